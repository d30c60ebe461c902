package ingest

import "testing"

func TestEntryFilter(t *testing.T) {
	f := DefaultFilter()
	cases := []struct {
		path    string
		content string
		want    bool
	}{
		{"inner1.txt", "data", true},
		{"docs/report.pdf", "%PDF", true},
		{"__MACOSX/docs/report.pdf", "data", false},
		{"._report.pdf", "data", false},
		{"docs/._report.pdf", "data", false},
		{"docs/empty.txt", "", false},
		{"docs/not._fork.txt", "data", true},
	}
	for _, tc := range cases {
		if got := f.Accept(tc.path, []byte(tc.content)); got != tc.want {
			t.Errorf("Accept(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestEntryFilterCustomPrefixes(t *testing.T) {
	f := EntryFilter{
		MetadataPrefixes:     []string{".git/", "__MACOSX/"},
		ResourceForkPrefixes: []string{"~$"},
	}
	if f.AcceptPath(".git/config") {
		t.Errorf("expected .git/ prefix to be rejected")
	}
	if f.AcceptPath("docs/~$draft.docx") {
		t.Errorf("expected ~$ segment prefix to be rejected")
	}
	if !f.AcceptPath("docs/._keep") {
		t.Errorf("default fork prefix should not apply once overridden")
	}
}

func TestEntryFilterEmptyPrefixIgnored(t *testing.T) {
	f := EntryFilter{MetadataPrefixes: []string{""}, ResourceForkPrefixes: []string{""}}
	if !f.AcceptPath("anything") {
		t.Fatalf("empty prefixes must not match every path")
	}
}
