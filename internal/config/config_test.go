package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/CragLog/internal/models"
)

func noConfigFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.json")
}

func TestLoad_Flags(t *testing.T) {
	opts, err := Load([]string{
		"-c", noConfigFile(t),
		"-a", ":9000",
		"-driver", "sqlite",
		"-jwt-secret", "s3cret",
		"-token-ttl", "2h",
		"-tick-order", "attempt,redpoint,flash",
		"-week-start", "Monday",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9000", opts.Port)
	assert.Equal(t, DriverSQLite, opts.Driver)
	assert.Equal(t, "craglog.db", opts.DatabaseDSN)
	assert.Equal(t, 2*time.Hour, opts.TTL())
	assert.Equal(t, 5, opts.TxAttempts)

	order, err := opts.Order()
	require.NoError(t, err)
	assert.Equal(t, models.TickOrder{models.Attempt, models.Redpoint, models.Flash}, order)

	day, err := opts.Weekday()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, day)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"address": ":7000",
		"database_dsn": "postgres://file",
		"jwt_secret": "from-file",
		"token_ttl": "30m",
		"rate_limit": 60
	}`), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("TICK_ORDER", "hang,redpoint,flash")

	opts, err := Load([]string{"-c", path, "-a", ":6000"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", opts.Port, "file overrides flags")
	assert.Equal(t, "postgres://file", opts.DatabaseDSN)
	assert.Equal(t, "from-env", opts.JWTSecret, "env overrides file")
	assert.Equal(t, 30*time.Minute, opts.TTL())
	assert.Equal(t, 60, opts.RateLimit)
	assert.Equal(t, []string{"hang", "redpoint", "flash"}, opts.TickOrder)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"driver":"sqlite","jwt_secret":"x"}`), 0o600))
	t.Setenv("CONFIG", path)

	opts, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, opts.Driver)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"postgres without dsn", []string{"-jwt-secret", "x"}},
		{"unknown driver", []string{"-driver", "mysql", "-jwt-secret", "x"}},
		{"missing secret", []string{"-driver", "sqlite"}},
		{"tls cert without key", []string{"-driver", "sqlite", "-jwt-secret", "x", "-tls-cert", "c.pem"}},
		{"order without flash", []string{"-driver", "sqlite", "-jwt-secret", "x", "-tick-order", "attempt,redpoint"}},
		{"bad week start", []string{"-driver", "sqlite", "-jwt-secret", "x", "-week-start", "someday"}},
		{"bad ttl", []string{"-driver", "sqlite", "-jwt-secret", "x", "-token-ttl", "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-c", noConfigFile(t)}, tt.args...)
			_, err := Load(args)
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT", "lots")
	_, err := Load([]string{"-c", noConfigFile(t), "-driver", "sqlite", "-jwt-secret", "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
