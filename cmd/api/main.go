package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fkhayef/billsplit/internal/config"
	"github.com/fkhayef/billsplit/internal/database"
	"github.com/fkhayef/billsplit/internal/event"
	"github.com/fkhayef/billsplit/internal/expense"
	"github.com/fkhayef/billsplit/internal/store/memory"
	mw "github.com/fkhayef/billsplit/pkg/middleware"
)

// @title        Billsplit API
// @version      1.0
// @description  Shared-expense ledger, balances and settlement plans. All amounts are integer cents.
// @host         localhost:8080
// @BasePath     /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity service JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStores()

	handler := newRouter(st, routerOptions{
		logger:               logger,
		auth:                 mw.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer),
		devAuthHeader:        cfg.DevAuthHeader,
		swagger:              !cfg.IsProduction,
		aggregateConcurrency: cfg.AggregateConcurrency,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}
	logger.Info("Server exited")
}

// openStores builds the configured storage backend
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (stores, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		mem := memory.NewStore(cfg.LedgerLockTimeout)
		return stores{events: mem, ledgers: mem}, func() {}, nil
	}

	if cfg.MigrateOnStart {
		logger.Info("Running database migrations")
		if err := database.Migrate(cfg.DatabaseURL, logger); err != nil {
			return stores{}, nil, err
		}
	}

	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, nil, err
	}
	logger.Info("Connected to database successfully")

	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database", slog.String("error", err.Error()))
		}
	}
	return stores{
		events:  event.NewRepository(db, cfg.LedgerLockTimeout),
		ledgers: expense.NewRepository(db, cfg.LedgerLockTimeout),
	}, closeDB, nil
}
