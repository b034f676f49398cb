package query

import (
	"regexp"
	"strings"
)

// TableMode selects how results are laid out.
type TableMode int

// Table modes.
const (
	TableAuto TableMode = iota
	TableOn
	TableOff
)

// Options are the per-query rendering settings read from query-* property lines.
type Options struct {
	SortBy     string
	SortDesc   bool
	Table      TableMode
	Properties []string
}

var (
	optPropertiesRe = regexp.MustCompile(`query-properties::\s*\[([^\]]*)\]`)
	optSortByRe     = regexp.MustCompile(`query-sort-by::\s*:?(\S+)`)
	optSortDescRe   = regexp.MustCompile(`query-sort-desc::\s*(true|false)`)
	optTableRe      = regexp.MustCompile(`query-table::\s*(true|false)`)
	optionLineRe    = regexp.MustCompile(`^[ \t]*(?:-[ \t]*)?query-(?:properties|sort-by|sort-desc|table)::`)
)

// IsOptionLine reports whether line is a query-* option property.
func IsOptionLine(line string) bool {
	return optionLineRe.MatchString(line)
}

// ParseOptions reads options from lines. Later lines override earlier ones.
func ParseOptions(lines []string) Options {
	var o Options
	for _, line := range lines {
		if m := optPropertiesRe.FindStringSubmatch(line); m != nil {
			o.Properties = nil
			for _, f := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
				f = strings.ToLower(strings.Trim(f, ":"))
				if f != "" {
					o.Properties = append(o.Properties, f)
				}
			}
		}
		if m := optSortByRe.FindStringSubmatch(line); m != nil {
			o.SortBy = strings.ToLower(strings.TrimPrefix(m[1], ":"))
		}
		if m := optSortDescRe.FindStringSubmatch(line); m != nil {
			o.SortDesc = m[1] == "true"
		}
		if m := optTableRe.FindStringSubmatch(line); m != nil {
			if m[1] == "true" {
				o.Table = TableOn
			} else {
				o.Table = TableOff
			}
		}
	}
	return o
}

// Merge fills unset sort settings from the query's own sort-by directive.
func (o Options) Merge(q *Query) Options {
	if o.SortBy == "" && q != nil && q.Sort != nil {
		o.SortBy = q.Sort.Key
		o.SortDesc = q.Sort.Desc
	}
	return o
}
