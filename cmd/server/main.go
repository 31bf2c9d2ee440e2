// Package main is the entry point for the stockledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockledger/internal/config"
	"stockledger/internal/core/security"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/migration"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/migrations"
	"stockledger/pkg/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting stockledger server", "version", version, "env", cfg.App.Env)

	// --- Migrations ---
	if cfg.Migrations.Auto {
		if err := runMigrations(cfg.Database.URL, log); err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
	}

	// --- Database connection ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool).WithStatementTimeout(cfg.Database.StatementTimeout)

	// --- Snapshot confirmation ---
	confirmer, err := newConfirmer(cfg.Snapshot)
	if err != nil {
		log.Fatalw("failed to configure snapshot password", "error", err)
	}

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:        pool,
		TxManager:   txManager,
		Logger:      log,
		Confirmer:   confirmer,
		Audit:       auditService,
		Version:     version,
		Development: cfg.App.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// newConfirmer prefers a bcrypt hash over a plain password.
func newConfirmer(cfg config.SnapshotConfig) (*security.PasswordGate, error) {
	if cfg.PasswordHash != "" {
		return security.NewPasswordGate(cfg.PasswordHash)
	}
	return security.NewPasswordGateFromPlain(cfg.Password)
}

func runMigrations(databaseURL string, log *logger.Logger) error {
	m, err := migration.New(migrations.FS, databaseURL, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Warnw("failed to close migrator", "error", cerr)
		}
	}()
	return m.Up()
}
