package transform

import "regexp"

// patterns is the compiled pattern registry shared by every Pipeline.
type patterns struct {
	systemProp     *regexp.Regexp
	logbook        *regexp.Regexp
	queryLine      *regexp.Regexp
	userProp       *regexp.Regexp
	imageSize      *regexp.Regexp
	emptyBullet    *regexp.Regexp
	linkSpan       *regexp.Regexp
	dollar         *regexp.Regexp
	embedPage      *regexp.Regexp
	mdLinkWikilink *regexp.Regexp
	wikilink       *regexp.Regexp
	embedBlock     *regexp.Regexp
	blockRef       *regexp.Regexp
	media          *regexp.Regexp
	pdf            *regexp.Regexp
	pdfImage       *regexp.Regexp
	renderer       *regexp.Regexp
	cloze          *regexp.Regexp
	task           *regexp.Regexp
	scheduled      *regexp.Regexp
	deadline       *regexp.Regexp
}

var registry = &patterns{
	systemProp:     regexp.MustCompile(`(?m)^[ \t]*(?:-[ \t]*)?(?:collapsed|logseq\.order-list-type|id)::[ \t]*.*(?:\n|$)`),
	logbook:        regexp.MustCompile(`(?m)^[ \t]*(?::LOGBOOK:|CLOCK:.*|:END:)[ \t]*(?:\n|$)`),
	queryLine:      regexp.MustCompile(`^([ \t]*)(-[ \t]*)?\{\{query\b.*\}\}`),
	userProp:       regexp.MustCompile(`^([ \t]*)(?:-[ \t]*)?([\w-]+)::[ \t]+(\S.*)$`),
	imageSize:      regexp.MustCompile(`\{:(?:height|width)\s+\d+,?\s*:(?:height|width)\s+\d+\}`),
	emptyBullet:    regexp.MustCompile(`(?m)^[ \t]*-[ \t]*(?:\n|$)`),
	linkSpan:       regexp.MustCompile(`!?\[\[[^\]]+\]\]`),
	dollar:         regexp.MustCompile(`\$(?:[A-Z][A-Z0-9]*|\d[\d,.]*[kKmMbB]?)`),
	embedPage:      regexp.MustCompile(`\{\{embed\s+\[\[([^\]]+)\]\]\s*\}\}`),
	mdLinkWikilink: regexp.MustCompile(`\[([^\]]+)\]\(\[\[([^\]]+)\]\]\)`),
	wikilink:       regexp.MustCompile(`(!\s*)?\[\[([^\]|]+)(\|[^\]]*)?\]\]`),
	embedBlock:     regexp.MustCompile(`\{\{embed\s+\(\(([^)]+)\)\)\s*\}\}`),
	blockRef:       regexp.MustCompile(`\(\(([0-9a-fA-F-]{36})\)\)`),
	media:          regexp.MustCompile(`\{\{(?:youtube|video)\s+([^\}]+)\}\}`),
	pdf:            regexp.MustCompile(`\{\{pdf\s+([^\}]+)\}\}`),
	pdfImage:       regexp.MustCompile(`!\[[^\]]*\]\(([^\)]+\.pdf)\)`),
	renderer:       regexp.MustCompile(`\{\{renderer\s+[^\}]*\}\}`),
	cloze:          regexp.MustCompile(`\{\{cloze\s+([^\}]+)\}\}`),
	task:           regexp.MustCompile(`(?m)^([ \t]*)-[ \t]+(DONE|TODO|NOW|DOING|LATER|WAITING|CANCELLED|CANCELED)(?:[ \t]+|$)`),
	scheduled:      regexp.MustCompile(`SCHEDULED:\s*<([^>]+)>`),
	deadline:       regexp.MustCompile(`DEADLINE:\s*<([^>]+)>`),
}

// replaceSubmatchFunc replaces every match of re in s with fn(groups), where
// groups[0] is the whole match and unmatched groups are "".
func replaceSubmatchFunc(re *regexp.Regexp, s string, fn func(groups []string) string) string {
	idx := re.FindAllStringSubmatchIndex(s, -1)
	if idx == nil {
		return s
	}
	var out []byte
	last := 0
	for _, m := range idx {
		groups := make([]string, len(m)/2)
		for g := range groups {
			if m[2*g] >= 0 {
				groups[g] = s[m[2*g]:m[2*g+1]]
			}
		}
		out = append(out, s[last:m[0]]...)
		out = append(out, fn(groups)...)
		last = m[1]
	}
	out = append(out, s[last:]...)
	return string(out)
}
