// Package main runs the VaultIntake HTTP API.
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
	"github.com/dharsanguruparan/VaultIntake/internal/ingest"
	"github.com/dharsanguruparan/VaultIntake/internal/logging"
	"github.com/dharsanguruparan/VaultIntake/internal/processing"
	"github.com/dharsanguruparan/VaultIntake/internal/queue"
	"github.com/dharsanguruparan/VaultIntake/internal/repository"
	"github.com/dharsanguruparan/VaultIntake/internal/s3storage"
	"github.com/dharsanguruparan/VaultIntake/internal/server"
	"github.com/dharsanguruparan/VaultIntake/internal/signing"
	"github.com/dharsanguruparan/VaultIntake/internal/storage"
	"github.com/dharsanguruparan/VaultIntake/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ingester := ingest.New(storage.NewHashSet(),
		ingest.WithMaxSize(cfg.MaxFileSize),
		ingest.WithFilter(ingest.EntryFilter{
			MetadataPrefixes:     cfg.MetadataPrefix,
			ResourceForkPrefixes: cfg.ForkPrefix,
		}),
		ingest.WithLogger(slog.Default()),
	)
	opts := []server.Option{server.WithLogger(slog.Default())}

	var ledger worker.BatchWriter
	if cfg.LedgerEnabled() {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		repo := repository.NewBatchRepository(pool)
		ledger = repo
		opts = append(opts, server.WithBatchReader(repo))
	}

	var manifests worker.ManifestWriter
	if cfg.ManifestsEnabled() {
		store, err := s3storage.New(cfg)
		if err != nil {
			return err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return err
		}
		manifests = store
		opts = append(opts, server.WithManifestLinker(store))
	}

	switch {
	case cfg.QueueEnabled():
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		opts = append(opts, server.WithPublisher(queue.NewPublisher(client)))
	default:
		persister := worker.NewPersister(ledger, manifests, slog.Default())
		if persister.Enabled() {
			pool := processing.New(persister, cfg.ProcessingPool, slog.Default())
			pool.Start(ctx)
			defer pool.Wait()
			opts = append(opts, server.WithPublisher(pool))
		}
	}

	srv := server.New(cfg, ingester, signing.NewSigner(cfg.SigningSecret), opts...)
	return srv.Run(ctx)
}
