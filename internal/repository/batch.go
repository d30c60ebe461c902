package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/VaultIntake/internal/model"
)

// ErrBatchNotFound is returned when no records exist for a batch id.
var ErrBatchNotFound = errors.New("batch not found")

// BatchRepository wraps the SQL for the ingest_records ledger.
type BatchRepository struct {
	pool *pgxpool.Pool
}

// NewBatchRepository constructs a repository.
func NewBatchRepository(pool *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{pool: pool}
}

// SaveBatch inserts every record of a batch in one round trip. Rows already
// present from an earlier attempt are left alone.
func (r *BatchRepository) SaveBatch(ctx context.Context, batchID string, records []model.ResultRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for pos, rec := range records {
		batch.Queue(`
			INSERT INTO ingest_records (batch_id, position, file_name, file_type, size_kb, hash, status, mime_type, uploaded_at, duplicate, scan_status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (batch_id, position) DO NOTHING
		`, batchID, pos, rec.FileName, text(rec.FileType), rec.SizeKB, rec.Hash, text(rec.Status), rec.MIMEType, rec.UploadedAt, rec.Duplicate, text(rec.ScanStatus))
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert batch %s: %w", batchID, err)
	}
	return nil
}

// ListBatch returns the records of a batch in their original order.
func (r *BatchRepository) ListBatch(ctx context.Context, batchID string) ([]model.ResultRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT file_name, file_type, size_kb, hash, status, mime_type, uploaded_at, duplicate, scan_status
		FROM ingest_records WHERE batch_id=$1 ORDER BY position
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("select batch: %w", err)
	}
	defer rows.Close()

	var records []model.ResultRecord
	for rows.Next() {
		var (
			rec        model.ResultRecord
			fileType   sql.NullString
			sizeKB     sql.NullFloat64
			hash       sql.NullString
			status     sql.NullString
			mimeType   sql.NullString
			duplicate  sql.NullBool
			scanStatus sql.NullString
		)
		if err := rows.Scan(&rec.FileName, &fileType, &sizeKB, &hash, &status, &mimeType, &rec.UploadedAt, &duplicate, &scanStatus); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.UploadedAt = rec.UploadedAt.UTC()
		rec.FileType = fromNull[model.FileType](fileType)
		rec.Status = fromNull[model.Status](status)
		rec.ScanStatus = fromNull[model.ScanStatus](scanStatus)
		rec.Hash = fromNull[string](hash)
		rec.MIMEType = fromNull[string](mimeType)
		if sizeKB.Valid {
			v := sizeKB.Float64
			rec.SizeKB = &v
		}
		if duplicate.Valid {
			v := duplicate.Bool
			rec.Duplicate = &v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrBatchNotFound
	}
	return records, nil
}

// text converts an optional named string to the *string pgx encodes as
// TEXT or NULL.
func text[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func fromNull[T ~string](v sql.NullString) *T {
	if !v.Valid {
		return nil
	}
	out := T(v.String)
	return &out
}
