package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// EnsureSchema creates the batch ledger table if needed. Rows are keyed by
// batch and output position so a retried task cannot duplicate them.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS ingest_records (
	batch_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	file_name TEXT NOT NULL,
	file_type TEXT,
	size_kb DOUBLE PRECISION,
	hash TEXT,
	status TEXT,
	mime_type TEXT,
	uploaded_at TIMESTAMPTZ NOT NULL,
	duplicate BOOLEAN,
	scan_status TEXT,
	PRIMARY KEY (batch_id, position)
);
CREATE INDEX IF NOT EXISTS idx_ingest_records_hash ON ingest_records(hash);`
	_, err := pool.Exec(ctx, stmt)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
