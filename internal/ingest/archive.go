package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/dharsanguruparan/VaultIntake/internal/fingerprint"
	"github.com/dharsanguruparan/VaultIntake/internal/metrics"
	"github.com/dharsanguruparan/VaultIntake/internal/model"
)

var errMemberTooLarge = errors.New("member exceeds size limit")

type member struct {
	name    string
	content []byte
}

// IsArchive reports whether name carries the .zip extension.
func IsArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

// expandArchive returns the self record followed by one record per accepted
// member. Members are fully extracted before any is classified, so an
// unreadable archive leaves the tracker untouched and yields a single
// rejected record.
func (i *Ingester) expandArchive(log *slog.Logger, name string, content []byte) []model.ResultRecord {
	members, err := i.extract(content)
	if err != nil {
		log.Warn("archive rejected", "file", name, "error", err)
		metrics.ArchivesTotal.WithLabelValues("unreadable").Inc()
		rec := i.shell(name)
		rec.Reject()
		return []model.ResultRecord{rec}
	}

	self := i.shell(name)
	self.Container(len(content), fingerprint.Sum(content))
	out := make([]model.ResultRecord, 0, len(members)+1)
	out = append(out, self)
	for _, m := range members {
		out = append(out, i.processFile(log, m.name, m.content))
	}
	metrics.ArchivesTotal.WithLabelValues("expanded").Inc()
	log.Debug("archive expanded", "file", name, "members", len(members))
	return out
}

func (i *Ingester) extract(content []byte) ([]member, error) {
	// A reader returned alongside an error only flags insecure member paths;
	// those names are kept verbatim.
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if zr == nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	members := make([]member, 0, len(zr.File))
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") || !i.filter.AcceptPath(f.Name) {
			continue
		}
		data, err := i.readMember(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if !i.filter.Accept(f.Name, data) {
			continue
		}
		members = append(members, member{name: f.Name, content: data})
	}
	return members, nil
}

func (i *Ingester) readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	// Read one byte past the limit so oversized members are detected without
	// inflating the whole entry.
	data, err := io.ReadAll(io.LimitReader(rc, i.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > i.maxSize {
		return nil, errMemberTooLarge
	}
	return data, nil
}
