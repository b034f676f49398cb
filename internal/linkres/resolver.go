// Package linkres maps fuzzy or aliased page references to canonical page names.
package linkres

import (
	"strings"

	"github.com/cyberia-to/publish-quartz/internal/index"
)

// Resolver answers link lookups against one index. Its tables are built once
// and never modified, so it is safe for concurrent use.
type Resolver struct {
	names   map[string]string // normalized name -> canonical name
	aliases map[string]string // normalized alias -> owning page name
	// prefixes holds word-normalized names in index order.
	prefixes []prefixEntry
}

type prefixEntry struct {
	words string
	name  string
}

// New builds a resolver for idx.
func New(idx *index.Index) *Resolver {
	r := &Resolver{
		names:   make(map[string]string),
		aliases: make(map[string]string),
	}
	if idx == nil {
		return r
	}
	for _, d := range idx.Documents() {
		key := normalize(d.Name)
		if _, ok := r.names[key]; !ok {
			r.names[key] = d.Name
		}
		r.prefixes = append(r.prefixes, prefixEntry{words: words(d.Name), name: d.Name})
	}
	for _, d := range idx.Documents() {
		for _, a := range d.Aliases {
			key := normalize(a)
			if _, ok := r.aliases[key]; !ok {
				r.aliases[key] = d.Name
			}
		}
	}
	return r
}

// Resolve returns the canonical page name for link, or link unchanged when
// it already names a page or nothing matches.
func (r *Resolver) Resolve(link string) string {
	if name, ok := r.Lookup(link); ok {
		return name
	}
	return link
}

// Lookup is Resolve that reports whether any strategy matched.
func (r *Resolver) Lookup(link string) (string, bool) {
	key := normalize(link)
	if key == "" {
		return link, false
	}
	if _, ok := r.names[key]; ok {
		return link, true
	}
	if owner, ok := r.aliases[key]; ok {
		return owner, true
	}
	if name, ok := r.expandNamespace(link); ok {
		return name, true
	}
	if name, ok := r.longestPrefix(link); ok {
		return name, true
	}
	return link, false
}

func (r *Resolver) expandNamespace(link string) (string, bool) {
	i := strings.Index(link, "/")
	if i <= 0 || i == len(link)-1 {
		return "", false
	}
	target, ok := r.aliases[normalize(link[:i])]
	if !ok {
		return "", false
	}
	expanded := normalize(target + "/" + link[i+1:])
	if name, ok := r.names[expanded]; ok {
		return name, true
	}
	if owner, ok := r.aliases[expanded]; ok {
		return owner, true
	}
	return "", false
}

func (r *Resolver) longestPrefix(link string) (string, bool) {
	lw := words(link)
	best := ""
	bestLen := 0
	for _, p := range r.prefixes {
		if p.words == "" || len(p.words) <= bestLen {
			continue
		}
		if strings.HasPrefix(lw, p.words+" ") {
			best, bestLen = p.name, len(p.words)
		}
	}
	return best, best != ""
}

// normalize lowercases s and treats spaces, dashes and underscores alike.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "-", "_", "-").Replace(s)
}

// words lowercases s and turns dashes and underscores into spaces.
func words(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", " ", "_", " ").Replace(s)
}
