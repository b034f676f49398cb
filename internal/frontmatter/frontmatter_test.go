package frontmatter

import (
	"strings"
	"testing"

	"github.com/adrg/frontmatter"

	"github.com/cyberia-to/publish-quartz/internal/models"
)

type pageMeta struct {
	Title       string   `yaml:"title"`
	Icon        string   `yaml:"icon"`
	Tags        []string `yaml:"tags"`
	Aliases     []string `yaml:"aliases"`
	Description string   `yaml:"description"`
	Stub        bool     `yaml:"stub"`
}

func parse(t *testing.T, header string) (pageMeta, string) {
	t.Helper()
	var meta pageMeta
	body, err := frontmatter.Parse(strings.NewReader(header+"\nbody text\n"), &meta)
	if err != nil {
		t.Fatalf("frontmatter.Parse: %v\n%s", err, header)
	}
	return meta, string(body)
}

func TestRender_PageRoundTrip(t *testing.T) {
	doc := &models.Document{
		Name:       "Go_lang",
		Properties: map[string]string{"icon": "🐹", "description": `a "quoted": value`},
		Tags:       []string{"lang", "tool"},
		Aliases:    []string{"golang"},
		Modified:   "2025-02-01",
		Created:    "2024-01-01",
	}
	out, err := Render(Page(doc))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(out, "---\ntitle: \"") || !strings.HasSuffix(out, "\n---\n") {
		t.Errorf("unexpected layout:\n%s", out)
	}

	meta, body := parse(t, out)
	if meta.Title != "🐹 Go lang" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Icon != "🐹" || meta.Description != `a "quoted": value` {
		t.Errorf("icon/description = %q / %q", meta.Icon, meta.Description)
	}
	if strings.Join(meta.Tags, ",") != "lang,tool" || strings.Join(meta.Aliases, ",") != "golang" {
		t.Errorf("tags/aliases = %v / %v", meta.Tags, meta.Aliases)
	}
	if !strings.Contains(out, "modified: 2025-02-01\n") || !strings.Contains(out, "created: 2024-01-01\n") {
		t.Errorf("dates not written plain:\n%s", out)
	}
	if strings.TrimSpace(body) != "body text" {
		t.Errorf("body = %q", body)
	}
}

func TestRender_FieldOrder(t *testing.T) {
	out := MustRender(Journal("January 15, 2025", "2025-01-15", []string{"daily"}))
	want := "---\ntitle: \"January 15, 2025\"\ndate: 2025-01-15\ntags:\n"
	if !strings.HasPrefix(out, want) {
		t.Errorf("Render =\n%s\nwant prefix\n%s", out, want)
	}
	meta, _ := parse(t, out)
	if len(meta.Tags) != 1 || meta.Tags[0] != "daily" {
		t.Errorf("tags = %v", meta.Tags)
	}
}

func TestRender_Stub(t *testing.T) {
	meta, _ := parse(t, MustRender(Stub("Missing: page")))
	if meta.Title != "Missing: page" || !meta.Stub {
		t.Errorf("meta = %+v", meta)
	}
}

func TestRender_Unsupported(t *testing.T) {
	if _, err := Render([]Field{{Key: "n", Value: 3}}); err == nil {
		t.Error("expected error for int value")
	}
}
