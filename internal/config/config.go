// Package config handles the configuration settings for the application,
// including parsing command-line flags, an optional JSON config file and
// environment variables, in that order of precedence (later wins).
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-json"

	"github.com/atinyakov/CragLog/internal/models"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Duration is a time.Duration read from strings such as "24h" in flags,
// JSON and environment variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Options holds the configuration settings for the application.
type Options struct {
	// Port is the server's listening address (ip:port).
	Port string `json:"address" env:"SERVER_ADDRESS"`

	// Driver selects the database: postgres or sqlite.
	Driver string `json:"driver" env:"DB_DRIVER"`

	// DatabaseDSN holds the database connection string for the application.
	// For sqlite it is a file path.
	DatabaseDSN string `json:"database_dsn" env:"DATABASE_DSN"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	JWTSecret string   `json:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  Duration `json:"token_ttl" env:"TOKEN_TTL"`

	LogLevel string `json:"log_level" env:"LOG_LEVEL"`

	// TickOrder ranks tick types, lowest first.
	TickOrder []string `json:"tick_order" env:"TICK_ORDER" envSeparator:","`
	// WeekStart is the first day of a statistics week.
	WeekStart string `json:"week_start" env:"WEEK_START"`

	TLSCert string `json:"tls_cert" env:"TLS_CERT"`
	TLSKey  string `json:"tls_key" env:"TLS_KEY"`

	// RateLimit is the number of requests per minute per client IP; 0
	// disables the limit.
	RateLimit int `json:"rate_limit" env:"RATE_LIMIT"`
	// TxAttempts bounds how often a transaction is run on serialization
	// conflicts.
	TxAttempts int `json:"tx_attempts" env:"TX_ATTEMPTS"`
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It exits the process on invalid configuration.
func Parse() *Options {
	opts, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return opts
}

// Load builds Options from args, the config file they point to and the
// environment.
func Load(args []string) (*Options, error) {
	options := &Options{TokenTTL: Duration(24 * time.Hour)}

	fs := flag.NewFlagSet("craglog", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.Driver, "driver", DriverPostgres, "database driver (postgres or sqlite)")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.JWTSecret, "jwt-secret", "", "secret used to sign access tokens")
	fs.TextVar(&options.TokenTTL, "token-ttl", options.TokenTTL, "lifetime of access tokens")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.Func("tick-order", "comma separated tick types, lowest first", func(s string) error {
		options.TickOrder = strings.Split(s, ",")
		return nil
	})
	fs.StringVar(&options.WeekStart, "week-start", "sunday", "first day of a statistics week")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&options.TLSKey, "tls-key", "", "TLS key file")
	fs.IntVar(&options.RateLimit, "rate-limit", 0, "requests per minute per client IP")
	fs.IntVar(&options.TxAttempts, "tx-attempts", 5, "attempts per transaction on serialization conflicts")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if err := env.Parse(options); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

// Validate checks option combinations that cannot work.
func (o *Options) Validate() error {
	switch o.Driver {
	case DriverPostgres:
		if o.DatabaseDSN == "" {
			return errors.New("database dsn is required for postgres")
		}
	case DriverSQLite:
		if o.DatabaseDSN == "" {
			o.DatabaseDSN = "craglog.db"
		}
	default:
		return fmt.Errorf("unknown database driver %q", o.Driver)
	}
	if o.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if o.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return errors.New("tls cert and key must be set together")
	}
	if o.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}
	if o.TxAttempts < 1 {
		o.TxAttempts = 1
	}
	if _, err := o.Order(); err != nil {
		return err
	}
	if _, err := o.Weekday(); err != nil {
		return err
	}
	return nil
}

// Order returns the configured tick order.
func (o *Options) Order() (models.TickOrder, error) {
	names := make([]string, 0, len(o.TickOrder))
	for _, n := range o.TickOrder {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return models.ParseTickOrder(names)
}

// Weekday returns the configured first day of the week.
func (o *Options) Weekday() (time.Weekday, error) {
	if o.WeekStart == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(o.WeekStart, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown week start %q", o.WeekStart)
}

// TTL returns the access token lifetime.
func (o *Options) TTL() time.Duration {
	return time.Duration(o.TokenTTL)
}
