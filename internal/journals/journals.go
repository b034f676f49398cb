// Package journals names journal days and builds the journal index page.
package journals

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cyberia-to/publish-quartz/internal/frontmatter"
)

// Dir is the output directory journals are published under.
const Dir = "journals"

// IndexTitle is the title of the journal index page.
const IndexTitle = "📅 Journals"

var dateStemRe = regexp.MustCompile(`^(\d{4})[_-](\d{2})[_-](\d{2})$`)

// Day is one published journal.
type Day struct {
	// Date is the ISO date, YYYY-MM-DD.
	Date  string
	Title string
}

// ParseDate reads a journal file stem (YYYY_MM_DD or YYYY-MM-DD) and
// returns its ISO date and a title such as "January 15, 2025".
func ParseDate(stem string) (Day, bool) {
	m := dateStemRe.FindStringSubmatch(stem)
	if m == nil || strings.Count(stem, "_") == 1 || strings.Count(stem, "-") == 1 {
		return Day{}, false
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Day{}, false
	}
	return Day{
		Date:  fmt.Sprintf("%s-%02d-%02d", m[1], month, day),
		Title: fmt.Sprintf("%s %d, %s", time.Month(month).String(), day, m[1]),
	}, true
}

// Name returns the index name of the day, relative to the journal overlay.
func (d Day) Name() string {
	return d.Date
}

// Path returns the output path of the day's page.
func (d Day) Path() string {
	return Dir + "/" + d.Date + ".md"
}

// IndexPage renders journals/index.md: every day newest first, each as a
// heading link followed by an embed of the day.
func IndexPage(days []Day) string {
	sorted := make([]Day, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })

	var sb strings.Builder
	sb.WriteString(frontmatter.MustRender(frontmatter.Title(IndexTitle)))
	sb.WriteString("\n")
	for _, d := range sorted {
		link := Dir + "/" + d.Date
		fmt.Fprintf(&sb, "## [[%s|%s - %s]]\n\n![[%s]]\n\n---\n\n", link, d.Date, d.Title, link)
	}
	return sb.String()
}
