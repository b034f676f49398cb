package linkres

import (
	"testing"

	"github.com/cyberia-to/publish-quartz/internal/testutil"
)

func fixture(t *testing.T) *Resolver {
	t.Helper()
	return New(testutil.Index(t,
		"pages/cyber.md", "- root\n",
		"pages/cyber valley.md", "- place\n",
		"pages/Curriculum Vitae.md", "alias:: CV, Resume\n",
		"pages/projects___alpha.md", "alias:: Alpha Project\n",
		"pages/Projects.md", "alias:: proj\n",
		"pages/Other CV.md", "alias:: cv\n",
	))
}

func TestResolve_IdentityForEveryDocument(t *testing.T) {
	idx := testutil.Index(t,
		"pages/cyber.md", "",
		"pages/cyber valley.md", "",
		"pages/a___b.md", "alias:: cyber\n",
	)
	r := New(idx)
	for _, d := range idx.Documents() {
		if got := r.Resolve(d.Name); got != d.Name {
			t.Errorf("Resolve(%q) = %q, want identity", d.Name, got)
		}
	}
}

func TestResolve(t *testing.T) {
	r := fixture(t)
	tests := []struct {
		in, want string
	}{
		{"Cyber", "Cyber"},
		{"cyber_valley", "cyber_valley"},
		{"cv", "Curriculum Vitae"},
		{"RESUME", "Curriculum Vitae"},
		{"cyber valley estate", "cyber valley"},
		{"cyber-valley-estate", "cyber valley"},
		{"cyber punk", "cyber"},
		{"cyberpunk", "cyberpunk"},
		{"proj/alpha", "projects/alpha"},
		{"proj/missing", "proj/missing"},
		{"alpha project", "projects/alpha"},
		{"nowhere", "nowhere"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLookup_ReportsMiss(t *testing.T) {
	r := fixture(t)
	if _, ok := r.Lookup("nowhere"); ok {
		t.Error("Lookup(nowhere) reported a match")
	}
	if name, ok := r.Lookup("cv"); !ok || name != "Curriculum Vitae" {
		t.Errorf("Lookup(cv) = %q, %v", name, ok)
	}
}

func TestResolve_PrefixTieGoesToFirstDocument(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		want  string
	}{
		{"dash first", []string{"pages/a-b.md", "", "pages/a_b.md", ""}, "a-b"},
		{"underscore first", []string{"pages/a_b.md", "", "pages/a-b.md", ""}, "a_b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(testutil.Index(t, tt.pairs...))
			if got := r.Resolve("a b c"); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", "a b c", got, tt.want)
			}
		})
	}
}
