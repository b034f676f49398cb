package transform

import (
	"strconv"
	"strings"
)

const placeholderMark = "\x00"

// escapeDollars backslash-escapes $TOKEN and currency amounts so they are not
// read as math, leaving bracket-link spans byte-for-byte intact.
func (p *Pipeline) escapeDollars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	var spans []string
	protected := p.pats.linkSpan.ReplaceAllStringFunc(s, func(m string) string {
		spans = append(spans, m)
		return placeholderMark + "WIKILINK" + strconv.Itoa(len(spans)-1) + placeholderMark
	})

	var sb strings.Builder
	last := 0
	for _, m := range p.pats.dollar.FindAllStringIndex(protected, -1) {
		sb.WriteString(protected[last:m[0]])
		if m[0] == 0 || protected[m[0]-1] != '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteString(protected[m[0]:m[1]])
		last = m[1]
	}
	sb.WriteString(protected[last:])
	out := sb.String()

	for i := len(spans) - 1; i >= 0; i-- {
		out = strings.Replace(out, placeholderMark+"WIKILINK"+strconv.Itoa(i)+placeholderMark, spans[i], 1)
	}
	return out
}

// collapseMarkdownWikilinks turns [text]([[Page]]) into [text](Page).
func (p *Pipeline) collapseMarkdownWikilinks(s string) string {
	return replaceSubmatchFunc(p.pats.mdLinkWikilink, s, func(g []string) string {
		target := stripPagesPrefix(g[2])
		if strings.ContainsAny(target, " \t") {
			target = "<" + target + ">"
		}
		return "[" + g[1] + "](" + target + ")"
	})
}

// rewriteWikilinks resolves every [[...]] and ![[...]] through the resolver.
// A link whose target changed keeps its original text as display alias.
func (p *Pipeline) rewriteWikilinks(s string) string {
	return replaceSubmatchFunc(p.pats.wikilink, s, func(g []string) string {
		embed := g[1] != ""
		raw := strings.TrimSpace(g[2])
		alias := g[3]

		target, anchor := raw, ""
		if i := strings.Index(raw, "#"); i > 0 {
			target, anchor = raw[:i], raw[i:]
		}
		clean := stripPagesPrefix(target)
		resolved := p.resolver.Resolve(clean)

		var sb strings.Builder
		if embed {
			sb.WriteString("!")
		}
		sb.WriteString("[[")
		sb.WriteString(resolved)
		sb.WriteString(anchor)
		switch {
		case alias != "":
			sb.WriteString(alias)
		case resolved != clean:
			sb.WriteString("|")
			sb.WriteString(clean + anchor)
		}
		sb.WriteString("]]")
		return sb.String()
	})
}

func stripPagesPrefix(name string) string {
	if len(name) >= 6 && strings.EqualFold(name[:6], "pages/") {
		return name[6:]
	}
	return name
}
