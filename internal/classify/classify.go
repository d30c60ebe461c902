// Package classify maps a (filename, content) pair to a semantic file type tag
// and a MIME type. Extension rules run first; magic-byte sniffing is the
// fallback.
package classify

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dharsanguruparan/VaultIntake/internal/model"
)

const (
	mimeJSON        = "application/json"
	mimeOctetStream = "application/octet-stream"
)

// extensionTypes complements the small built-in table of the mime package so
// extension guessing works for office documents and plain text on hosts
// without a system mime.types file.
var extensionTypes = map[string]string{
	".txt":  "text/plain",
	".csv":  "text/csv",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".zip":  model.MIMEZip,
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

func init() {
	for ext, typ := range extensionTypes {
		_ = mime.AddExtensionType(ext, typ)
	}
}

// Rule maps a resolved MIME type to a tag when Match reports true.
type Rule struct {
	Match func(mimeType string) bool
	Tag   model.FileType
}

// Rules is evaluated in order, first match wins. Anything unmatched is
// model.TypeUnknown.
var Rules = []Rule{
	{Match: equals("application/pdf"), Tag: model.TypePDF},
	{Match: contains("wordprocessingml"), Tag: model.TypeDOCX},
	{Match: contains("spreadsheetml"), Tag: model.TypeExcel},
	{Match: contains("presentationml"), Tag: model.TypePPT},
	{Match: equals("text/plain"), Tag: model.TypeTXT},
	{Match: equals("text/csv"), Tag: model.TypeCSV},
	{Match: hasPrefix("image/"), Tag: model.TypeImage},
}

// Classify returns the file type tag and MIME type for a file. It never fails:
// unrecognized content resolves to model.TypeUnknown.
func Classify(name string, content []byte) (model.FileType, string) {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return model.TypeJSON, mimeJSON
	}
	resolved := ResolveMIME(name, content)
	return TagFor(resolved), resolved
}

// ResolveMIME prefers the sniffed type, then the extension guess, then
// application/octet-stream.
func ResolveMIME(name string, content []byte) string {
	if sniffed := Sniff(content); sniffed != "" {
		return sniffed
	}
	if guessed := GuessFromName(name); guessed != "" {
		return guessed
	}
	return mimeOctetStream
}

// Sniff inspects the leading bytes of content. Unrecognized binary data
// sniffs as application/octet-stream, which is a result like any other: the
// extension guess never overrides it.
func Sniff(content []byte) string {
	return baseType(mimetype.Detect(content).String())
}

// GuessFromName looks the extension up in the MIME registry.
func GuessFromName(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	return baseType(mime.TypeByExtension(strings.ToLower(ext)))
}

// TagFor applies Rules to a resolved MIME type.
func TagFor(mimeType string) model.FileType {
	for _, rule := range Rules {
		if rule.Match(mimeType) {
			return rule.Tag
		}
	}
	return model.TypeUnknown
}

// baseType drops MIME parameters such as "; charset=utf-8".
func baseType(v string) string {
	base, _, _ := strings.Cut(v, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func equals(want string) func(string) bool {
	return func(v string) bool { return v == want }
}

func contains(sub string) func(string) bool {
	return func(v string) bool { return strings.Contains(v, sub) }
}

func hasPrefix(prefix string) func(string) bool {
	return func(v string) bool { return strings.HasPrefix(v, prefix) }
}
