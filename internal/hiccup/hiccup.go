// Package hiccup converts hiccup literals ([:tag {:attr "v"} children...])
// into Quartz markdown.
package hiccup

import (
	"strconv"
	"strings"
)

// Element is one parsed [:tag ...] vector.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Children []any // *Element or string
}

const (
	componentCallout = "> [!info] Custom component\n> *Interactive content - view in Logseq*"
)

// Parse reads a literal. It tolerates missing closing brackets, braces and
// quotes. The second result is false when literal does not start with "[".
func Parse(literal string) (*Element, bool) {
	s := &scanner{src: strings.TrimSpace(literal)}
	if !strings.HasPrefix(s.src, "[") {
		return nil, false
	}
	s.pos++
	return s.element(), true
}

// Convert turns a literal into markdown: headings and lists are extracted in
// pre-order; otherwise the string content becomes an info callout.
func Convert(literal string) string {
	root, ok := Parse(literal)
	if !ok {
		return componentCallout
	}
	var lines []string
	collect(root, &lines)
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}
	var texts []string
	strs(root, &texts)
	if len(texts) > 0 {
		return "> [!info]\n> " + strings.Join(texts, " ")
	}
	return componentCallout
}

func collect(el *Element, lines *[]string) {
	switch el.Tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(el.Tag[1:])
		*lines = append(*lines, strings.Repeat("#", level)+" "+Text(el))
		return
	case "ul", "ol":
		n := 0
		for _, c := range el.Children {
			item, ok := c.(*Element)
			if !ok {
				continue
			}
			n++
			marker := "- "
			if el.Tag == "ol" {
				marker = strconv.Itoa(n) + ". "
			}
			*lines = append(*lines, marker+Text(item))
		}
		return
	}
	for _, c := range el.Children {
		if child, ok := c.(*Element); ok {
			collect(child, lines)
		}
	}
}

func strs(el *Element, out *[]string) {
	for _, c := range el.Children {
		switch v := c.(type) {
		case string:
			if t := strings.TrimSpace(v); t != "" {
				*out = append(*out, t)
			}
		case *Element:
			strs(v, out)
		}
	}
}

// Text concatenates every string beneath el with whitespace collapsed.
func Text(el *Element) string {
	var sb strings.Builder
	var walk func(*Element)
	walk = func(e *Element) {
		for _, c := range e.Children {
			switch v := c.(type) {
			case string:
				sb.WriteString(v)
			case *Element:
				walk(v)
			}
		}
	}
	walk(el)
	return strings.Join(strings.Fields(sb.String()), " ")
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) skipSpace() {
	for !s.eof() && strings.IndexByte(" \t\r\n,", s.src[s.pos]) >= 0 {
		s.pos++
	}
}

// element parses the body of a vector whose "[" was consumed.
func (s *scanner) element() *Element {
	el := &Element{}
	if !s.eof() && s.src[s.pos] == ':' {
		s.pos++
		el.Tag = strings.ToLower(s.atom())
		// Tags such as :div.class#id carry selectors; keep the element name.
		if i := strings.IndexAny(el.Tag, ".#"); i >= 0 {
			el.Tag = el.Tag[:i]
		}
	}
	for {
		s.skipSpace()
		if s.eof() {
			return el
		}
		switch s.src[s.pos] {
		case ']':
			s.pos++
			return el
		case '[':
			s.pos++
			el.Children = append(el.Children, s.element())
		case '{':
			s.pos++
			attrs := s.attrs()
			if el.Attrs == nil {
				el.Attrs = attrs
			}
		case '"':
			el.Children = append(el.Children, s.str())
		default:
			s.atom()
		}
	}
}

func (s *scanner) attrs() map[string]string {
	out := make(map[string]string)
	key := ""
	for {
		s.skipSpace()
		if s.eof() {
			return out
		}
		var val string
		switch s.src[s.pos] {
		case '}':
			s.pos++
			return out
		case '"':
			val = s.str()
		case '{':
			s.pos++
			s.attrs()
			key = ""
			continue
		case '[':
			s.pos++
			s.element()
			key = ""
			continue
		default:
			val = s.atom()
		}
		if key == "" && strings.HasPrefix(val, ":") {
			key = val[1:]
			continue
		}
		if key != "" {
			out[key] = val
			key = ""
		}
	}
}

// str reads a quoted string starting at the opening quote.
func (s *scanner) str() string {
	s.pos++
	var sb strings.Builder
	for !s.eof() {
		c := s.src[s.pos]
		if c == '\\' && s.pos+1 < len(s.src) {
			sb.WriteByte(s.src[s.pos+1])
			s.pos += 2
			continue
		}
		s.pos++
		if c == '"' {
			break
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// atom reads up to the next delimiter. It always consumes at least one byte.
func (s *scanner) atom() string {
	start := s.pos
	for !s.eof() && strings.IndexByte(" \t\r\n,[]{}\"", s.src[s.pos]) < 0 {
		s.pos++
	}
	if s.pos == start && !s.eof() {
		s.pos++
	}
	return s.src[start:s.pos]
}

// Balance returns the bracket depth change of line, ignoring brackets
// inside quoted strings.
func Balance(line string) int {
	depth := 0
	inStr := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inStr && c == '\\':
			i++
		case c == '"':
			inStr = !inStr
		case !inStr && c == '[':
			depth++
		case !inStr && c == ']':
			depth--
		}
	}
	return depth
}

// Split cuts s after the bracket that closes its leading literal. rest is
// empty when the literal never closes.
func Split(s string) (literal, rest string) {
	depth := 0
	inStr := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inStr && c == '\\':
			i++
		case c == '"':
			inStr = !inStr
		case !inStr && c == '[':
			depth++
		case !inStr && c == ']':
			depth--
			if depth == 0 {
				return s[:i+1], s[i+1:]
			}
		}
	}
	return s, ""
}

// ConvertBlocks replaces every hiccup literal that starts a line (optionally
// after a list marker) with its markdown conversion, placed at the literal's
// indentation. Multi-line literals are joined until their brackets balance.
// Text after the closing bracket follows the conversion on its own line.
func ConvertBlocks(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	var buf strings.Builder
	var indent string
	depth := 0
	open := false

	emit := func() {
		literal, rest := Split(buf.String())
		converted := strings.Split(Convert(literal), "\n")
		for _, l := range converted {
			out = append(out, indent+l)
		}
		if rest = strings.TrimSpace(rest); rest != "" {
			// Keep trailing text out of a callout's lazy continuation.
			if strings.HasPrefix(converted[len(converted)-1], ">") {
				out = append(out, "")
			}
			out = append(out, indent+rest)
		}
		buf.Reset()
		open = false
		depth = 0
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if open {
			buf.WriteByte(' ')
			buf.WriteString(trimmed)
			depth += Balance(trimmed)
			if depth <= 0 {
				emit()
			}
			continue
		}
		start, ok := literalStart(trimmed)
		if !ok {
			out = append(out, line)
			continue
		}
		indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		open = true
		buf.WriteString(start)
		depth = Balance(start)
		if depth <= 0 {
			emit()
		}
	}
	if open {
		emit()
	}
	return strings.Join(out, "\n")
}

func literalStart(trimmed string) (string, bool) {
	switch {
	case strings.HasPrefix(trimmed, "[:"):
		return trimmed, true
	case strings.HasPrefix(trimmed, "- [:"):
		return trimmed[2:], true
	}
	return "", false
}
