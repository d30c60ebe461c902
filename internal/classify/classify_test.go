package classify

import (
	"testing"

	"github.com/dharsanguruparan/VaultIntake/internal/model"
)

func TestClassify(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	binary := []byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff, 0x00, 0x10}
	cases := []struct {
		name     string
		file     string
		content  []byte
		wantTag  model.FileType
		wantMIME string
	}{
		{"json extension wins", "x.json", []byte("not json at all"), model.TypeJSON, "application/json"},
		{"json extension case-insensitive", "DATA.JSON", []byte("%PDF-1.4"), model.TypeJSON, "application/json"},
		{"plain text", "a.txt", []byte("Hello world"), model.TypeTXT, "text/plain"},
		{"pdf signature", "inner2.pdf", []byte("%PDF-1.4 dummy content"), model.TypePDF, "application/pdf"},
		{"sniff beats extension", "report.txt", []byte("%PDF-1.7\n%binary"), model.TypePDF, "application/pdf"},
		{"png signature", "pic", png, model.TypeImage, "image/png"},
		{"gif signature", "anim.bin", []byte("GIF89a\x01\x00\x01\x00"), model.TypeImage, "image/gif"},
		{"binary named .png", "photo.png", binary, model.TypeUnknown, "application/octet-stream"},
		{"binary named .xlsx", "report.xlsx", binary, model.TypeUnknown, "application/octet-stream"},
		{"binary named .csv", "data.csv", binary, model.TypeUnknown, "application/octet-stream"},
		{"binary named .txt", "notes.txt", binary, model.TypeUnknown, "application/octet-stream"},
		{"no signature no extension", "blob", binary, model.TypeUnknown, "application/octet-stream"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tag, mimeType := Classify(tc.file, tc.content)
			if tag != tc.wantTag {
				t.Errorf("tag = %q, want %q", tag, tc.wantTag)
			}
			if mimeType != tc.wantMIME {
				t.Errorf("mime = %q, want %q", mimeType, tc.wantMIME)
			}
		})
	}
}

func TestTagFor(t *testing.T) {
	cases := map[string]model.FileType{
		"application/pdf": model.TypePDF,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   model.TypeDOCX,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         model.TypeExcel,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation": model.TypePPT,
		"text/plain":               model.TypeTXT,
		"text/csv":                 model.TypeCSV,
		"image/webp":               model.TypeImage,
		"application/zip":          model.TypeUnknown,
		"application/json":         model.TypeUnknown,
		"text/html":                model.TypeUnknown,
		"application/octet-stream": model.TypeUnknown,
	}
	for mimeType, want := range cases {
		if got := TagFor(mimeType); got != want {
			t.Errorf("TagFor(%q) = %q, want %q", mimeType, got, want)
		}
	}
}

func TestGuessFromName(t *testing.T) {
	if got := GuessFromName("sheet.XLSX"); got != extensionTypes[".xlsx"] {
		t.Fatalf("GuessFromName(sheet.XLSX) = %q", got)
	}
	if got := GuessFromName("noext"); got != "" {
		t.Fatalf("expected empty guess, got %q", got)
	}
}

func TestBaseType(t *testing.T) {
	if got := baseType("Text/Plain; charset=utf-8"); got != "text/plain" {
		t.Fatalf("baseType = %q", got)
	}
}

func TestSniffReportsOctetStream(t *testing.T) {
	if got := Sniff([]byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff}); got != "application/octet-stream" {
		t.Fatalf("Sniff = %q", got)
	}
}
