// Package parser extracts property blocks, tags, aliases and wikilinks from
// Logseq-flavored Markdown pages.
package parser

import (
	"errors"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	propertyRe   = regexp.MustCompile(`^(?:-[ \t]*)?([A-Za-z_-]+)::[ \t]*(.+)$`)
	wikilinkRe   = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]+)?\]\]`)
	tagRe        = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_-]*)`)
	bracketTagRe = regexp.MustCompile(`(?:^|\s)#\[\[([^\]]+)\]\]`)
	escapedSepRe = regexp.MustCompile(`(?i)%2F`)
)

// ErrInvalidSource is returned for files that cannot become a document.
var ErrInvalidSource = errors.New("parser: invalid source")

// NamespaceSeparator is the filename token Logseq writes for "/" in a page name.
const NamespaceSeparator = "___"

// Result holds the output of parsing one page file.
type Result struct {
	Name       string
	Namespace  string
	Properties map[string]string
	// Keys lists property keys in source order.
	Keys []string
	// Content is the text remaining after the property block.
	Content string
	Tags    []string
	Aliases []string
	Links   []string
}

// Parse parses a page stored at relPath (slash separated, root relative).
func Parse(relPath string, data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidSource
	}
	name, ns := SplitName(path.Base(relPath))
	if name == "" {
		return nil, ErrInvalidSource
	}
	text := string(data)
	props, keys, content := ParseProperties(text)

	aliasValue := props["alias"]
	if aliasValue == "" {
		aliasValue = props["aliases"]
	}

	return &Result{
		Name:       name,
		Namespace:  ns,
		Properties: props,
		Keys:       keys,
		Content:    content,
		Tags:       ExtractTags(props["tags"], text),
		Aliases:    ParseAliases(aliasValue),
		Links:      ExtractLinks(text),
	}, nil
}

// SplitName turns a file name into a page name and its namespace. Each
// separator token becomes "/"; the namespace is everything before the last one.
func SplitName(filename string) (name, namespace string) {
	stem := strings.TrimSuffix(filename, ".md")
	stem = strings.ReplaceAll(stem, NamespaceSeparator, "/")
	stem = escapedSepRe.ReplaceAllString(stem, "/")
	stem = strings.Trim(stem, "/")
	if i := strings.LastIndex(stem, "/"); i >= 0 {
		return stem, stem[:i]
	}
	return stem, ""
}

// ParseProperties reads the leading property block of text. Keys are
// lowercased, values trimmed. The returned content is everything after the
// block, starting at the line that terminated it.
func ParseProperties(text string) (props map[string]string, keys []string, content string) {
	props = make(map[string]string)
	lines := strings.SplitAfter(text, "\n")
	started := false
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			if !started {
				break
			}
			continue
		}
		m := propertyRe.FindStringSubmatch(line)
		if m == nil {
			break
		}
		started = true
		key := strings.ToLower(m[1])
		if _, seen := props[key]; !seen {
			keys = append(keys, key)
		}
		props[key] = strings.TrimSpace(m[2])
	}
	if !started {
		return props, nil, text
	}
	return props, keys, strings.Join(lines[i:], "")
}

// ExtractTags unions the comma separated tags property with inline #tags of
// body. Tags are lowercased and returned in first-seen order.
func ExtractTags(tagsProperty, body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for _, part := range strings.Split(tagsProperty, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "#")
		part = strings.TrimPrefix(part, "[[")
		part = strings.TrimSuffix(part, "]]")
		add(part)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, m := range bracketTagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// ParseAliases splits an alias property on commas outside [[...]] spans and
// drops the brackets from each alias.
func ParseAliases(value string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		a := strings.NewReplacer("[[", "", "]]", "").Replace(cur.String())
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
		cur.Reset()
	}
	for i := 0; i < len(value); i++ {
		switch {
		case strings.HasPrefix(value[i:], "[["):
			depth++
			cur.WriteString("[[")
			i++
		case strings.HasPrefix(value[i:], "]]") && depth > 0:
			depth--
			cur.WriteString("]]")
			i++
		case value[i] == ',' && depth == 0:
			flush()
		default:
			cur.WriteByte(value[i])
		}
	}
	flush()
	return out
}

// ExtractLinks returns deduplicated wikilink targets, dropping display aliases.
func ExtractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}
