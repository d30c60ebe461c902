package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/VaultIntake/internal/config"
	"github.com/dharsanguruparan/VaultIntake/internal/database"
	"github.com/dharsanguruparan/VaultIntake/internal/logging"
	"github.com/dharsanguruparan/VaultIntake/internal/repository"
	"github.com/dharsanguruparan/VaultIntake/internal/s3storage"
	"github.com/dharsanguruparan/VaultIntake/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if !cfg.QueueEnabled() {
		slog.Error("VAULTINTAKE_REDIS_ADDR is required for the worker")
		os.Exit(1)
	}

	var ledger worker.BatchWriter
	if cfg.LedgerEnabled() {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			slog.Error("ensure schema", "error", err)
			os.Exit(1)
		}
		ledger = repository.NewBatchRepository(pool)
	}

	var manifests worker.ManifestWriter
	if cfg.ManifestsEnabled() {
		store, err := s3storage.New(cfg)
		if err != nil {
			slog.Error("init storage", "error", err)
			os.Exit(1)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			slog.Error("ensure bucket", "error", err)
			os.Exit(1)
		}
		manifests = store
	}

	persister := worker.NewPersister(ledger, manifests, slog.Default())
	if !persister.Enabled() {
		slog.Warn("no ledger or manifest bucket configured; batches will be acknowledged and dropped")
	}

	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency: cfg.ProcessingPool,
	})

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	if err := srv.Run(persister.Handler()); err != nil {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
