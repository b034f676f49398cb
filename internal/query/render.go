package query

import (
	"math"
	"sort"
	"strings"

	"github.com/cyberia-to/publish-quartz/internal/index"
	"github.com/cyberia-to/publish-quartz/internal/models"
)

// Layout tells the caller how rendered output has to be placed.
type Layout int

// Layouts.
const (
	LayoutCallout Layout = iota
	LayoutTable
	LayoutList
)

func (l Layout) String() string {
	switch l {
	case LayoutTable:
		return "table"
	case LayoutList:
		return "list"
	}
	return "callout"
}

const maxQuotedQuery = 80

var excludedAutoColumns = map[string]bool{
	"title": true, "icon": true, "public": true, "alias": true, "aliases": true,
}

// Run parses text, evaluates it against idx and renders the results.
func Run(text string, idx *index.Index, opts Options) (string, Layout) {
	q := Parse(text)
	return RenderLayout(q.Eval(idx), q.Text, opts.Merge(q))
}

// Render formats results as Quartz markdown.
func Render(results []*models.Document, queryText string, opts Options) string {
	out, _ := RenderLayout(results, queryText, opts)
	return out
}

// RenderLayout is Render that also reports the layout it chose.
func RenderLayout(results []*models.Document, queryText string, opts Options) (string, Layout) {
	if len(results) == 0 {
		return emptyCallout(queryText), LayoutCallout
	}
	docs := sortResults(results, opts.SortBy, opts.SortDesc)

	if opts.Table == TableOff && len(opts.Properties) == 0 {
		lines := make([]string, len(docs))
		for i, d := range docs {
			lines[i] = "- " + pageLink(d, d.IconTitle())
		}
		return strings.Join(lines, "\n"), LayoutList
	}

	cols := opts.Properties
	if len(cols) == 0 {
		cols = autoColumns(docs)
	} else if !hasPageColumn(cols) {
		cols = append([]string{"page"}, cols...)
	}
	return renderTable(docs, cols), LayoutTable
}

func emptyCallout(queryText string) string {
	q := StripWrapper(queryText)
	if r := []rune(q); len(r) > maxQuotedQuery {
		q = string(r[:maxQuotedQuery]) + "..."
	}
	return "> [!info] Query Results\n> No pages match this query.\n> `" + q + "`"
}

func sortResults(results []*models.Document, key string, desc bool) []*models.Document {
	docs := make([]*models.Document, len(results))
	copy(docs, results)
	byName := func(a, b *models.Document) bool {
		la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if la != lb {
			return la < lb
		}
		return a.Name < b.Name
	}
	if key == "" || key == "page" || key == "name" {
		sort.SliceStable(docs, func(i, j int) bool {
			if desc && key != "" {
				return byName(docs[j], docs[i])
			}
			return byName(docs[i], docs[j])
		})
		return docs
	}
	sort.SliceStable(docs, func(i, j int) bool {
		vi := strings.ToLower(Cell(docs[i], key))
		vj := strings.ToLower(Cell(docs[j], key))
		if vi != vj {
			if desc {
				return vi > vj
			}
			return vi < vj
		}
		return byName(docs[i], docs[j])
	})
	return docs
}

func hasPageColumn(cols []string) bool {
	for _, c := range cols {
		if c == "page" || c == "name" {
			return true
		}
	}
	return false
}

func autoColumns(docs []*models.Document) []string {
	counts := make(map[string]int)
	for _, d := range docs {
		for k, v := range d.Properties {
			if excludedAutoColumns[k] || strings.HasPrefix(k, "query-") || strings.TrimSpace(v) == "" {
				continue
			}
			counts[k]++
		}
	}
	threshold := int(math.Ceil(float64(len(docs)) / 3))
	if threshold < 1 {
		threshold = 1
	}
	var keys []string
	for k, n := range counts {
		if n >= threshold {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > 3 {
		keys = keys[:3]
	}
	return append([]string{"page"}, keys...)
}

func renderTable(docs []*models.Document, cols []string) string {
	var sb strings.Builder
	sb.WriteString("|")
	for _, c := range cols {
		sb.WriteString(" " + Header(c) + " |")
	}
	sb.WriteString("\n|")
	for range cols {
		sb.WriteString(" --- |")
	}
	for _, d := range docs {
		sb.WriteString("\n|")
		for _, c := range cols {
			var v string
			if c == "page" || c == "name" {
				v = pageLink(d, d.Title())
			} else {
				v = escapeCell(Cell(d, c))
			}
			sb.WriteString(" " + v + " |")
		}
	}
	return sb.String()
}

func pageLink(d *models.Document, title string) string {
	title = strings.NewReplacer("|", "-", "]]", "]", "\n", " ").Replace(title)
	return "[[" + d.Name + "|" + title + "]]"
}

func escapeCell(v string) string {
	return strings.NewReplacer("|", "&#124;", "\r\n", " ", "\n", " ").Replace(v)
}

// Header returns the column header for a property key.
func Header(key string) string {
	if key == "page" || key == "name" {
		return "Page"
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// Cell returns the value of column key for d, using the synthetic
// accessors before falling back to page properties.
func Cell(d *models.Document, key string) string {
	switch key {
	case "page", "name":
		return d.Name
	case "created", "created-at":
		return d.Created
	case "modified", "updated", "updated-at":
		return d.Modified
	case "tags":
		return strings.Join(d.Tags, ", ")
	case "namespace":
		return d.Namespace
	}
	if v, ok := d.Properties[key]; ok {
		return v
	}
	stripped := strings.ReplaceAll(key, "-", "")
	if v, ok := d.Properties[stripped]; ok {
		return v
	}
	for k, v := range d.Properties {
		if strings.ReplaceAll(k, "-", "") == stripped {
			return v
		}
	}
	return ""
}
