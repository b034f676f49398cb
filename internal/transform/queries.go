package transform

import (
	"strings"

	"github.com/cyberia-to/publish-quartz/internal/query"
)

// querySite is one {{query ...}} occurrence located by the first pass.
type querySite struct {
	line    int
	indent  string
	marker  string
	text    string
	options query.Options
}

// runQueries executes every query in place. Pass one finds the query lines
// and the query-* option lines of the same block (directly above the query,
// or indented below it as Logseq writes block properties); pass two renders
// the results and drops the consumed option lines.
func (p *Pipeline) runQueries(s string) string {
	if !strings.Contains(s, "{{query") {
		return s
	}
	lines := strings.Split(s, "\n")
	sites, consumed := p.findQuerySites(lines)
	if len(sites) == 0 {
		return s
	}

	bySite := make(map[int]querySite, len(sites))
	for _, site := range sites {
		bySite[site.line] = site
	}

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if consumed[i] {
			continue
		}
		site, ok := bySite[i]
		if !ok {
			out = append(out, line)
			continue
		}
		rendered, layout := query.Run(site.text, p.idx, site.options)
		out = append(out, placeQueryOutput(rendered, layout, site.indent, site.marker)...)
	}
	return strings.Join(out, "\n")
}

func (p *Pipeline) findQuerySites(lines []string) ([]querySite, map[int]bool) {
	var sites []querySite
	consumed := make(map[int]bool)
	for i, line := range lines {
		m := p.pats.queryLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		// Following continuation lines come first so the preceding ones
		// override them.
		var optLines []string
		end := i + 1
		for end < len(lines) && isOptionLine(lines[end]) && continues(lines[end], m[1]) {
			end++
		}
		if end < len(lines) && p.pats.queryLine.MatchString(lines[end]) {
			end = i + 1
		}
		for j := i + 1; j < end; j++ {
			optLines = append(optLines, lines[j])
			consumed[j] = true
		}
		start := i
		for start > 0 && !consumed[start-1] && isOptionLine(lines[start-1]) {
			start--
		}
		for j := start; j < i; j++ {
			optLines = append(optLines, lines[j])
			consumed[j] = true
		}
		text := strings.TrimSpace(m[0][len(m[1])+len(m[2]):])
		sites = append(sites, querySite{
			line:    i,
			indent:  m[1],
			marker:  m[2],
			text:    text,
			options: query.ParseOptions(optLines),
		})
	}
	return sites, consumed
}

// continues reports whether line is a property line of the block whose
// first line is indented by indent: deeper and not a new list item.
func continues(line, indent string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	depth := len(line) - len(trimmed)
	return depth > len(indent) && !strings.HasPrefix(trimmed, "- ")
}

func isOptionLine(line string) bool {
	return strings.TrimSpace(line) != "" && query.IsOptionLine(line)
}

func placeQueryOutput(rendered string, layout query.Layout, indent, marker string) []string {
	lines := strings.Split(rendered, "\n")
	prefix := indent + marker
	if marker == "" {
		prefix = indent + "- "
	}
	var out []string
	switch layout {
	case query.LayoutTable:
		out = append(out, "")
		for _, l := range lines {
			out = append(out, indent+l)
		}
	case query.LayoutList:
		for _, l := range lines {
			out = append(out, prefix+strings.TrimPrefix(l, "- "))
		}
	default:
		cont := indent + strings.Repeat(" ", len(prefix)-len(indent))
		for i, l := range lines {
			if i == 0 {
				out = append(out, prefix+l)
			} else {
				out = append(out, cont+l)
			}
		}
	}
	return out
}
