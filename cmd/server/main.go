// Package main is the entry point for the grootboek API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"grootboek/internal/config"
	"grootboek/internal/domain/journal"
	"grootboek/internal/domain/period"
	"grootboek/internal/domain/reference/account"
	"grootboek/internal/domain/reference/vatcode"
	"grootboek/internal/domain/snapshot"
	"grootboek/internal/domain/vatbox"
	"grootboek/internal/infrastructure/auth"
	v1 "grootboek/internal/infrastructure/http/v1"
	"grootboek/internal/infrastructure/numerator"
	"grootboek/internal/infrastructure/storage/postgres"
	"grootboek/internal/infrastructure/storage/postgres/journal_repo"
	"grootboek/internal/infrastructure/storage/postgres/period_repo"
	"grootboek/internal/infrastructure/storage/postgres/reference_repo"
	"grootboek/internal/infrastructure/storage/postgres/snapshot_repo"
	"grootboek/internal/infrastructure/storage/postgres/vatbox_repo"
	"grootboek/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting grootboek server")

	// --- Migrations ---
	if cfg.Database.MigrateOnStartup {
		if err := postgres.Migrate(cfg.Database.DSN, cfg.Database.MigrationsPath); err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
		log.Info("database migrations applied")
	}

	// --- Database pool ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Audit recorder ---
	auditRecorder, err := postgres.NewAuditRecorder(txManager)
	if err != nil {
		log.Fatalw("failed to create audit recorder", "error", err)
	}

	// --- Repositories ---
	accountRepo := reference_repo.NewAccountRepo(txManager)
	vatCodeRepo := reference_repo.NewVatCodeRepo(txManager)
	journalRepo := journal_repo.NewJournalRepo(txManager)
	periodRepo := period_repo.NewPeriodRepo(txManager)
	lineageRepo := vatbox_repo.NewLineageRepo(txManager)
	snapshotRepo := snapshot_repo.NewSnapshotRepo(txManager)

	// --- Services ---
	numbers := numerator.New(txManager)

	accountService := account.NewService(accountRepo, txManager, auditRecorder)
	vatCodeService := vatcode.NewService(vatCodeRepo, txManager, auditRecorder)

	journalService := journal.NewService(
		journalRepo,
		accountRepo,
		periodRepo,
		numbers,
		txManager,
		auditRecorder,
	)

	lineageIndexer := vatbox.NewIndexer(lineageRepo, vatCodeRepo, txManager)
	snapshotBuilder := snapshot.NewBuilder(snapshotRepo, lineageRepo)

	periodService := period.NewService(
		periodRepo,
		journalRepo,
		lineageIndexer,
		snapshotBuilder,
		txManager,
		auditRecorder,
	)

	// --- JWT validation ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	jwtConfig.AccessTokenTTL = cfg.JWT.TokenTTL
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool,
		Logger:          log,
		JWTValidator:    jwtService,
		AccountService:  accountService,
		VatCodeService:  vatCodeService,
		JournalService:  journalService,
		PeriodService:   periodService,
		VatBoxIndexer:   lineageIndexer,
		SnapshotBuilder: snapshotBuilder,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
