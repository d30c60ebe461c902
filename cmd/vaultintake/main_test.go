package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func runCLI(t *testing.T, args ...string) []byte {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v (stderr: %s)", args, err, errOut.String())
	}
	return out.Bytes()
}

func TestIngestCommand(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	empty := filepath.Join(dir, "empty.txt")
	for path, body := range map[string]string{a: "X", b: "X", empty: ""} {
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	var records []map[string]any
	if err := json.Unmarshal(runCLI(t, "ingest", a, b, empty), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0]["file_name"] != "a.txt" || records[0]["duplicate"] != false {
		t.Errorf("unexpected first record %v", records[0])
	}
	if records[1]["duplicate"] != true {
		t.Errorf("second record must be a duplicate: %v", records[1])
	}
	if records[2]["status"] != "rejected" || records[2]["scan_status"] != "not_applicable" {
		t.Errorf("empty file must be gated: %v", records[2])
	}
}

func TestClassifyCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 dummy content"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out []classification
	if err := json.Unmarshal(runCLI(t, "classify", path), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].FileType != "pdf" || out[0].MIMEType != "application/pdf" {
		t.Fatalf("unexpected classification %+v", out)
	}
}

func TestIngestCommandMissingFile(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"ingest", filepath.Join(t.TempDir(), "missing.txt")})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
