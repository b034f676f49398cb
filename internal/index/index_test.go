package index

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cyberia-to/publish-quartz/internal/models"
)

func names(docs []*models.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}

func TestBuild(t *testing.T) {
	sources := []models.Source{
		{Path: "pages/Go.md", Data: []byte("alias:: golang\ntags:: lang\n- fast\n")},
		{Path: "pages/bad.md", Data: []byte{0xff}},
		{Path: "pages/tools___hammer.md", Data: []byte("- #tool\n")},
	}
	dates := map[string]models.FileDates{
		"pages/Go.md": {Modified: "2025-02-01", Created: "2024-01-01"},
	}
	idx := Build(sources, dates)

	if diff := cmp.Diff([]string{"Go", "tools/hammer"}, names(idx.Documents())); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	goDoc, ok := idx.Lookup("GO")
	if !ok {
		t.Fatal("Lookup(GO) failed")
	}
	if goDoc.NameLower != "go" {
		t.Errorf("NameLower = %q", goDoc.NameLower)
	}
	if goDoc.Modified != "2025-02-01" || goDoc.Created != "2024-01-01" {
		t.Errorf("dates = %q/%q", goDoc.Modified, goDoc.Created)
	}
	if goDoc.Body != "alias:: golang\ntags:: lang\n- fast\n" {
		t.Errorf("body = %q, want raw text", goDoc.Body)
	}
	hammer, _ := idx.Lookup("tools/hammer")
	if hammer.Namespace != "tools" {
		t.Errorf("namespace = %q", hammer.Namespace)
	}
	if diff := cmp.Diff([]string{"lang", "tool"}, idx.AllTags()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildEntries_NameOverride(t *testing.T) {
	sources := []models.Source{
		{Path: "journals/2025_01_15.md", Data: []byte("- entry\n")},
	}
	idx, entries := BuildEntries(sources, nil, func(src models.Source) string {
		return "2025-01-15"
	})
	if idx.Len() != 1 || entries[0].Doc.Name != "2025-01-15" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Content != "- entry\n" {
		t.Errorf("content = %q", entries[0].Content)
	}
}

func TestWithOverlay(t *testing.T) {
	pages := Build([]models.Source{{Path: "pages/A.md", Data: []byte("- a")}}, nil)
	journals := Build([]models.Source{{Path: "journals/2025-01-02.md", Data: []byte("- j")}}, nil)

	merged := pages.WithOverlay("journals/", journals)
	if diff := cmp.Diff([]string{"A", "journals/2025-01-02"}, names(merged.Documents())); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if _, ok := merged.Lookup("journals/2025-01-02"); !ok {
		t.Error("overlay document not found")
	}
	if journals.Documents()[0].Name != "2025-01-02" {
		t.Error("overlay must not mutate the source index")
	}
}

func TestWithTag(t *testing.T) {
	idx := Build([]models.Source{
		{Path: "a.md", Data: []byte("tags:: x\n")},
		{Path: "b.md", Data: []byte("- none\n")},
		{Path: "c.md", Data: []byte("- #X\n")},
	}, nil)
	if diff := cmp.Diff([]string{"a", "c"}, names(idx.WithTag("X"))); diff != "" {
		t.Errorf("WithTag mismatch (-want +got):\n%s", diff)
	}
}
