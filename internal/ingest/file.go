package ingest

import (
	"encoding/json"
	"log/slog"
	"unicode/utf8"

	"github.com/dharsanguruparan/VaultIntake/internal/classify"
	"github.com/dharsanguruparan/VaultIntake/internal/fingerprint"
	"github.com/dharsanguruparan/VaultIntake/internal/model"
)

// processFile is the single-file path shared by top-level uploads and archive
// members.
func (i *Ingester) processFile(log *slog.Logger, name string, content []byte) model.ResultRecord {
	rec := i.shell(name)
	fileType, mimeType := classify.Classify(name, content)
	hash := fingerprint.Sum(content)
	duplicate := i.observe(hash)
	rec.Validated(fileType, mimeType, len(content), hash, duplicate)

	if fileType == model.TypeJSON && !validJSON(content) {
		rec.InvalidJSON()
	}
	log.Debug("file processed",
		"file", name,
		"type", fileType,
		"mime", mimeType,
		"duplicate", duplicate,
		"status", *rec.Status,
	)
	return rec
}

// observe performs the duplicate check and, for novel content, the insert as
// one critical section.
func (i *Ingester) observe(hash string) bool {
	if o, ok := i.tracker.(observer); ok {
		return o.Observe(hash)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.tracker.Seen(hash) {
		return true
	}
	i.tracker.Record(hash)
	return false
}

// validJSON requires UTF-8 text holding exactly one JSON value.
func validJSON(content []byte) bool {
	return utf8.Valid(content) && json.Valid(content)
}
