package publish

import (
	"regexp"
	"strings"
)

var wikilinkRe = regexp.MustCompile(`\[\[([^\]|#]+)(?:#[^\]|]*)?(?:\|[^\]]*)?\]\]`)

// outgoingLinks returns the distinct wikilink targets of published markdown
// in first-seen order. Anchors and aliases are dropped.
func outgoingLinks(markdown string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range wikilinkRe.FindAllStringSubmatch(markdown, -1) {
		target := strings.TrimSpace(m[1])
		target = strings.TrimPrefix(target, "pages/")
		if target == "" {
			continue
		}
		key := strings.ToLower(target)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, target)
	}
	return out
}
