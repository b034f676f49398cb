package query

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cyberia-to/publish-quartz/internal/index"
	"github.com/cyberia-to/publish-quartz/internal/testutil"
)

func fixture(t *testing.T) *index.Index {
	t.Helper()
	return testutil.Index(t,
		"pages/Alpha.md", "tags:: a, b\ntype:: book\n- TODO read it [#A]\n",
		"pages/Beta.md", "tags:: a\ntype:: paper\n- DONE cite [[Alpha]]\n",
		"pages/Gamma.md", "tags:: c\n- LATER plan\n",
		"pages/Delta.md", "tags:: d\nstatus:: active-project\n- mentions [[alpha]] twice\n",
		"pages/tools___hammer.md", "- container\n",
		"pages/tools___saw___electric.md", "- nested\n",
		"journals/2025-01-10.md", "- day\n",
		"journals/2025-02-10.md", "- later day\n",
		"pages/a.md", "- page named after a tag\n",
	)
}

func run(t *testing.T, idx *index.Index, q string) []string {
	t.Helper()
	return testutil.Names(Execute(q, idx))
}

func TestExecute_AndNot(t *testing.T) {
	got := run(t, fixture(t), "(and (page-tags [[a]]) (not (page-tags [[b]])))")
	if diff := cmp.Diff([]string{"Beta"}, got); diff != "" {
		t.Errorf("and/not mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_OrOfAnds(t *testing.T) {
	idx := fixture(t)
	got := run(t, idx, "{{query (or (and (page-tags a) (task TODO)) (and (page-tags [[a]]) (page-tags b)) (and (page-tags c) (task later)))}}")
	if diff := cmp.Diff([]string{"Alpha", "Gamma"}, got); diff != "" {
		t.Errorf("or of ands mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_Predicates(t *testing.T) {
	idx := fixture(t)
	tests := []struct {
		query string
		want  []string
	}{
		{"(page [[pages/alpha]])", []string{"Alpha"}},
		{"(page-tags [[c]] [[d]])", []string{"Gamma", "Delta"}},
		{"(namespace [[tools]])", []string{"tools/hammer"}},
		{"(namespace tools/saw)", []string{"tools/saw/electric"}},
		{"(property :type)", []string{"Alpha", "Beta"}},
		{`(property type "Book")`, []string{"Alpha"}},
		{"(property :status project)", []string{"Delta"}},
		{"(page-property status-x)", nil},
		{"(task DONE)", []string{"Beta"}},
		{"(task todo later)", []string{"Alpha", "Gamma"}},
		{"(task SOMEDAY)", nil},
		{"(priority a)", []string{"Alpha"}},
		{"(between [[2025-01-01]] [[Jan 31st, 2025]])", []string{"2025-01-10"}},
		{"(between [[2025_01_01]] [[2025-12-31]])", []string{"2025-01-10", "2025-02-10"}},
		{"(between [[yesterday]] [[2025-12-31]])", nil},
		{"(all-page-tags)", []string{"a"}},
		{"[[alpha]]", []string{"Alpha", "Beta", "Delta"}},
		{`"twice"`, []string{"Delta"}},
		{"mentions", []string{"Delta"}},
		{"ab", nil},
		{"(frobnicate x)", nil},
		{"(not)", nil},
		{"(and (page-tags a)", []string{"Alpha", "Beta"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, run(t, idx, tt.query)); diff != "" {
				t.Errorf("Execute(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestExecute_NotIsComplement(t *testing.T) {
	idx := fixture(t)
	got := run(t, idx, "(not (page-tags a) (page-tags c))")
	for _, name := range got {
		if name == "Alpha" || name == "Beta" || name == "Gamma" {
			t.Errorf("not returned excluded document %q", name)
		}
	}
	if len(got) != idx.Len()-3 {
		t.Errorf("len = %d, want %d", len(got), idx.Len()-3)
	}
}

func TestExecute_AndKeepsFirstOperandOrder(t *testing.T) {
	idx := fixture(t)
	got := run(t, idx, "(and (or (page Beta) (page Alpha)) (page-tags a))")
	if diff := cmp.Diff([]string{"Beta", "Alpha"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SortByDirective(t *testing.T) {
	q := Parse("(and (page-tags a) (sort-by type desc))")
	if q.Sort == nil || q.Sort.Key != "type" || !q.Sort.Desc {
		t.Fatalf("Sort = %+v", q.Sort)
	}
	got := testutil.Names(q.Eval(fixture(t)))
	if diff := cmp.Diff([]string{"Alpha", "Beta"}, got); diff != "" {
		t.Errorf("sort-by must not filter (-want +got):\n%s", diff)
	}
}

func TestTokenize(t *testing.T) {
	toks := tokenize(`(and [[A b]] "x y" :key)`)
	var kinds []string
	for _, tok := range toks {
		kinds = append(kinds, tok.kind.String()+":"+tok.text)
	}
	want := []string{"(:(", "word:and", "page-ref:A b", "string:x y", "word::key", "):)", "EOF:"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-01-15", "2025-01-15", true},
		{"2025_01_15", "2025-01-15", true},
		{"January 15th, 2025", "2025-01-15", true},
		{"feb 3 2024", "2024-02-03", true},
		{"Feb 30, 2024", "", false},
		{"today", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}

func TestParseOptions(t *testing.T) {
	o := ParseOptions([]string{
		"query-properties:: [:page :type, :created]",
		"- query-sort-by:: :created",
		"query-sort-desc:: true",
		"query-table:: false",
	})
	want := Options{SortBy: "created", SortDesc: true, Table: TableOff, Properties: []string{"page", "type", "created"}}
	if diff := cmp.Diff(want, o); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	if !IsOptionLine("  - query-table:: true") || IsOptionLine("query-foo:: x") {
		t.Error("IsOptionLine misclassified")
	}
}

func TestRender_Empty(t *testing.T) {
	long := "(and " + strings.Repeat("(page-tags x) ", 10) + ")"
	out := Render(nil, "{{query "+long+"}}", Options{})
	if !strings.HasPrefix(out, "> [!info] Query Results\n> No pages match this query.\n> `") {
		t.Fatalf("unexpected callout: %q", out)
	}
	if !strings.HasSuffix(out, "...`") {
		t.Errorf("long query not truncated: %q", out)
	}
}

func TestRender_AutoTable(t *testing.T) {
	idx := fixture(t)
	out := Render(Execute("(page-tags a)", idx), "(page-tags a)", Options{})
	want := "| Page | Tags | Type |\n| --- | --- | --- |\n| [[Alpha|Alpha]] | a, b | book |\n| [[Beta|Beta]] | a | paper |"
	if out != want {
		t.Errorf("table =\n%s\nwant\n%s", out, want)
	}
}

func TestRender_ExplicitColumnsAndSort(t *testing.T) {
	idx := fixture(t)
	opts := Options{Properties: []string{"type"}, SortBy: "type", SortDesc: true, Table: TableOff}
	out, layout := RenderLayout(Execute("(property type)", idx), "(property type)", opts)
	if layout != LayoutTable {
		t.Errorf("layout = %v, want table", layout)
	}
	want := "| Page | Type |\n| --- | --- |\n| [[Beta|Beta]] | paper |\n| [[Alpha|Alpha]] | book |"
	if out != want {
		t.Errorf("table =\n%s\nwant\n%s", out, want)
	}
}

func TestRender_List(t *testing.T) {
	idx := testutil.Index(t,
		"pages/zeta_page.md", "icon:: 🚀\n- z\n",
		"pages/Apple.md", "title:: An Apple\n- a\n",
	)
	out, layout := RenderLayout(idx.Documents(), "q", Options{Table: TableOff})
	if layout != LayoutList {
		t.Errorf("layout = %v, want list", layout)
	}
	want := "- [[Apple|An Apple]]\n- [[zeta_page|🚀 zeta page]]"
	if out != want {
		t.Errorf("list = %q, want %q", out, want)
	}
}

func TestRender_EscapesPipes(t *testing.T) {
	idx := testutil.Index(t, "pages/P.md", "note:: a | b\n")
	out := Render(idx.Documents(), "q", Options{Properties: []string{"page", "note"}})
	if !strings.Contains(out, "| a &#124; b |") {
		t.Errorf("pipe not escaped: %q", out)
	}
}

func TestHeader(t *testing.T) {
	for in, want := range map[string]string{"page": "Page", "name": "Page", "due-date": "Due Date", "project_lead": "Project Lead"} {
		if got := Header(in); got != want {
			t.Errorf("Header(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRun_UsesQuerySort(t *testing.T) {
	idx := fixture(t)
	out, _ := Run("(and (page-tags a) (sort-by type))", idx, Options{Table: TableOff})
	if out != "- [[Alpha|Alpha]]\n- [[Beta|Beta]]" {
		t.Errorf("out = %q", out)
	}
	out, _ = Run("(and (page-tags a) (sort-by type desc))", idx, Options{Table: TableOff})
	if out != "- [[Beta|Beta]]\n- [[Alpha|Alpha]]" {
		t.Errorf("out = %q", out)
	}
}
