package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewRecordSerializesNulls(t *testing.T) {
	rec := NewRecord("a.txt", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, field := range []string{"file_type", "size_kb", "hash", "status", "mime_type", "duplicate", "scan_status"} {
		if !strings.Contains(out, `"`+field+`":null`) {
			t.Errorf("expected %s to be null in %s", field, out)
		}
	}
	if !strings.Contains(out, `"uploaded_at":"2024-01-02T03:04:05Z"`) {
		t.Errorf("unexpected timestamp in %s", out)
	}
}

func TestRecordBranches(t *testing.T) {
	rec := NewRecord("x.json", time.Now())
	rec.Validated(TypeJSON, "application/json", 2048, "abc", true)
	rec.InvalidJSON()
	if *rec.Status != StatusRejected || *rec.ScanStatus != ScanInvalidJSON {
		t.Fatalf("InvalidJSON did not flip status")
	}
	if *rec.FileType != TypeJSON || *rec.SizeKB != 2 || *rec.Hash != "abc" || !*rec.Duplicate {
		t.Fatalf("InvalidJSON must keep classification fields")
	}

	self := NewRecord("a.zip", time.Now())
	self.Container(512, "def")
	if *self.FileType != TypeZip || *self.Status != StatusContainer || *self.Duplicate {
		t.Fatalf("bad container record")
	}
}

func TestSizeKB(t *testing.T) {
	cases := map[int]float64{
		0:    0,
		11:   0.01,
		1024: 1,
		1536: 1.5,
		1000: 0.98,
	}
	for in, want := range cases {
		if got := SizeKB(in); got != want {
			t.Errorf("SizeKB(%d) = %v, want %v", in, got, want)
		}
	}
}
