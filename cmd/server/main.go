// Package main initializes and starts the CragLog HTTP server, setting
// up configuration, logging, the database, the store, services and
// handlers.
package main

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/CragLog/internal/auth"
	"github.com/atinyakov/CragLog/internal/config"
	"github.com/atinyakov/CragLog/internal/db"
	"github.com/atinyakov/CragLog/internal/logger"
	"github.com/atinyakov/CragLog/internal/repository"
	"github.com/atinyakov/CragLog/internal/server/handler/http"
	"github.com/atinyakov/CragLog/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log
	defer func() { _ = zapLogger.Sync() }()

	order, err := options.Order()
	if err != nil {
		zapLogger.Fatal("invalid tick order", zap.Error(err))
	}
	weekStart, err := options.Weekday()
	if err != nil {
		zapLogger.Fatal("invalid week start", zap.Error(err))
	}

	database, store, err := openStore(options)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err), zap.String("driver", options.Driver))
	}
	defer database.Close()

	tokens, err := auth.NewJWTManager(options.JWTSecret, options.TTL())
	if err != nil {
		zapLogger.Fatal("cannot init token issuer", zap.Error(err))
	}

	// Initialize business-logic services.
	authService := service.NewAuthService(store, tokens, 0)
	catalogService := service.NewCatalogService(store, order)
	cascadeService := service.NewCascadeService(store, zapLogger.Named("cascade"))
	statsService := service.NewStatsService(store, order, weekStart)

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Auth: &http.AuthHandler{AuthService: authService, Log: zapLogger},
		Catalog: &http.CatalogHandler{
			Catalog: catalogService,
			Cascade: cascadeService,
			Summary: statsService,
			Log:     zapLogger,
		},
		Stats: &http.StatsHandler{Stats: statsService, Log: zapLogger},
	}, http.RouterOptions{Tokens: tokens, RateLimit: options.RateLimit}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown", zap.Error(err))
		}
	}()

	zapLogger.Info("starting server",
		zap.String("addr", options.Port),
		zap.String("driver", options.Driver),
		zap.Bool("tls", options.TLSCert != ""),
	)
	if options.TLSCert != "" {
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

// openStore connects to the configured database and wraps it in a store.
func openStore(options *config.Options) (*sql.DB, *repository.SQLStore, error) {
	attempts := repository.WithTxAttempts(uint(options.TxAttempts))

	switch options.Driver {
	case config.DriverSQLite:
		database, err := db.InitSQLite(options.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return database, repository.NewSQLiteStore(database, attempts), nil
	default:
		database, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return database, repository.NewPostgresStore(database, attempts), nil
	}
}
