package ingest

import "strings"

// Default noise prefixes for archive members.
var (
	DefaultMetadataPrefixes     = []string{"__MACOSX/"}
	DefaultResourceForkPrefixes = []string{"._"}
)

// EntryFilter decides whether an archive member is a real payload or archive
// noise. Directory entries never reach it.
type EntryFilter struct {
	// MetadataPrefixes are matched against the full member path.
	MetadataPrefixes []string
	// ResourceForkPrefixes are matched against the last path segment.
	ResourceForkPrefixes []string
}

// DefaultFilter returns the filter used when none is configured.
func DefaultFilter() EntryFilter {
	return EntryFilter{
		MetadataPrefixes:     DefaultMetadataPrefixes,
		ResourceForkPrefixes: DefaultResourceForkPrefixes,
	}
}

// Accept reports whether the member should be processed.
func (f EntryFilter) Accept(path string, content []byte) bool {
	return f.AcceptPath(path) && len(content) > 0
}

// AcceptPath applies the name-based rules only, so noise members can be
// skipped without decompressing them.
func (f EntryFilter) AcceptPath(path string) bool {
	for _, prefix := range f.MetadataPrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return false
		}
	}
	base := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		base = path[idx+1:]
	}
	for _, prefix := range f.ResourceForkPrefixes {
		if prefix != "" && strings.HasPrefix(base, prefix) {
			return false
		}
	}
	return true
}
