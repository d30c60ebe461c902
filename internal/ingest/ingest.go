// Package ingest runs uploaded files through classification, fingerprinting,
// duplicate detection and archive expansion, producing one result record per
// logical file.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dharsanguruparan/VaultIntake/internal/logging"
	"github.com/dharsanguruparan/VaultIntake/internal/metrics"
	"github.com/dharsanguruparan/VaultIntake/internal/model"
	"github.com/dharsanguruparan/VaultIntake/internal/storage"
)

// DefaultMaxSize is the largest upload accepted for processing (100 MiB).
const DefaultMaxSize int64 = 100 << 20

// ErrInvalidItem marks a caller-contract violation: an item without a
// filename or without a content buffer. Malformed content is never an error.
var ErrInvalidItem = errors.New("invalid upload item")

// Tracker is the duplicate-hash store consulted by the pipeline.
type Tracker interface {
	Seen(hash string) bool
	Record(hash string)
}

// observer is implemented by trackers that can check and insert atomically,
// such as storage.HashSet.
type observer interface {
	Observe(hash string) bool
}

// Ingester processes upload batches. It is safe for concurrent use; batches
// sharing one Tracker never both report the same novel content as original.
type Ingester struct {
	tracker Tracker
	maxSize int64
	filter  EntryFilter
	now     func() time.Time
	logger  *slog.Logger

	// mu guards Seen+Record for trackers without Observe.
	mu sync.Mutex
}

// Option customizes an Ingester.
type Option func(*Ingester)

// WithMaxSize overrides the per-item size gate. Non-positive values keep the
// default.
func WithMaxSize(n int64) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.maxSize = n
		}
	}
}

// WithFilter overrides the archive member filter.
func WithFilter(f EntryFilter) Option {
	return func(i *Ingester) { i.filter = f }
}

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(i *Ingester) {
		if now != nil {
			i.now = now
		}
	}
}

// WithLogger sets the base logger; request ids from the context are added on
// top of it.
func WithLogger(l *slog.Logger) Option {
	return func(i *Ingester) { i.logger = l }
}

// New builds an Ingester around tracker. A nil tracker gets a private
// storage.HashSet.
func New(tracker Tracker, opts ...Option) *Ingester {
	if tracker == nil {
		tracker = storage.NewHashSet()
	}
	i := &Ingester{
		tracker: tracker,
		maxSize: DefaultMaxSize,
		filter:  DefaultFilter(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// MaxSize returns the configured per-item limit in bytes.
func (i *Ingester) MaxSize() int64 {
	return i.maxSize
}

// Ingest processes items in order and returns the flat list of records. Archive
// member records directly follow their archive's self record. Only an invalid
// item fails the call, and it does so before anything is processed.
func (i *Ingester) Ingest(ctx context.Context, items []model.UploadItem) ([]model.ResultRecord, error) {
	for idx, item := range items {
		if item.Filename == "" {
			return nil, fmt.Errorf("item %d: empty filename: %w", idx, ErrInvalidItem)
		}
		if item.Content == nil {
			return nil, fmt.Errorf("item %d (%s): nil content: %w", idx, item.Filename, ErrInvalidItem)
		}
	}

	log := logging.FromContext(ctx, i.logger)
	records := make([]model.ResultRecord, 0, len(items))
	for _, item := range items {
		records = append(records, i.ingestItem(log, item)...)
	}
	observeRecords(records)
	log.Info("batch ingested", "items", len(items), "records", len(records))
	return records, nil
}

func (i *Ingester) ingestItem(log *slog.Logger, item model.UploadItem) []model.ResultRecord {
	size := int64(len(item.Content))
	if size == 0 || size > i.maxSize {
		log.Debug("upload gated", "file", item.Filename, "bytes", size, "limit", i.maxSize)
		rec := i.shell(item.Filename)
		rec.Reject()
		return []model.ResultRecord{rec}
	}
	if IsArchive(item.Filename) {
		return i.expandArchive(log, item.Filename, item.Content)
	}
	return []model.ResultRecord{i.processFile(log, item.Filename, item.Content)}
}

func (i *Ingester) shell(name string) model.ResultRecord {
	return model.NewRecord(name, i.now())
}

func observeRecords(records []model.ResultRecord) {
	for _, rec := range records {
		status, fileType := "none", "none"
		if rec.Status != nil {
			status = string(*rec.Status)
		}
		if rec.FileType != nil {
			fileType = string(*rec.FileType)
		}
		metrics.RecordsTotal.WithLabelValues(status, fileType).Inc()
		if rec.Duplicate != nil && *rec.Duplicate {
			metrics.DuplicatesTotal.Inc()
		}
	}
}
