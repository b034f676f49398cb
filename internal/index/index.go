// Package index builds the read-only document index a publish run queries.
package index

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/cyberia-to/publish-quartz/internal/models"
	"github.com/cyberia-to/publish-quartz/internal/parser"
)

// Index is an ordered, immutable collection of documents. Discovery order
// is the stable tie-break for every consumer.
type Index struct {
	docs   []*models.Document
	byName map[string]*models.Document
	tags   []string
}

// Entry pairs a parsed page with the text left after its property block.
type Entry struct {
	Doc     *models.Document
	Content string
}

// Build parses sources in order. Files that fail to parse are skipped and
// logged at debug level. dates is keyed by the source path and may be nil.
func Build(sources []models.Source, dates map[string]models.FileDates) *Index {
	idx, _ := BuildEntries(sources, dates, nil)
	return idx
}

// BuildEntries is Build that also returns each document's content. name, when
// non-nil, overrides the parsed name of a source (it returns "" to keep it).
func BuildEntries(sources []models.Source, dates map[string]models.FileDates, name func(models.Source) string) (*Index, []Entry) {
	entries := make([]Entry, 0, len(sources))
	for _, src := range sources {
		r, err := parser.Parse(src.Path, src.Data)
		if err != nil {
			slog.Debug("index: skip source", slog.String("path", src.Path), slog.String("error", err.Error()))
			continue
		}
		doc := &models.Document{
			Name:       r.Name,
			Path:       src.Path,
			Body:       string(src.Data),
			Properties: r.Properties,
			Tags:       r.Tags,
			Aliases:    r.Aliases,
			Namespace:  r.Namespace,
		}
		if name != nil {
			if n := name(src); n != "" {
				doc.Name = n
				doc.Namespace = ""
				if i := strings.LastIndex(n, "/"); i >= 0 {
					doc.Namespace = n[:i]
				}
			}
		}
		if d, ok := dates[src.Path]; ok {
			doc.Modified = d.Modified
			doc.Created = d.Created
		}
		entries = append(entries, Entry{Doc: doc, Content: r.Content})
	}

	docs := make([]*models.Document, len(entries))
	for i, e := range entries {
		docs[i] = e.Doc
	}
	return New(docs), entries
}

// New indexes already constructed documents, deriving their lowercase fields.
func New(docs []*models.Document) *Index {
	idx := &Index{
		docs:   make([]*models.Document, 0, len(docs)),
		byName: make(map[string]*models.Document, len(docs)),
	}
	seenTag := make(map[string]struct{})
	for _, d := range docs {
		if d == nil || d.Name == "" {
			continue
		}
		d.NameLower = strings.ToLower(d.Name)
		d.BodyLower = strings.ToLower(d.Body)
		idx.docs = append(idx.docs, d)
		if _, dup := idx.byName[d.NameLower]; !dup {
			idx.byName[d.NameLower] = d
		}
		for _, t := range d.Tags {
			if _, ok := seenTag[t]; !ok {
				seenTag[t] = struct{}{}
				idx.tags = append(idx.tags, t)
			}
		}
	}
	sort.Strings(idx.tags)
	return idx
}

// WithOverlay returns a new index holding idx's documents followed by
// other's, each renamed under prefix (for example "journals/").
func (idx *Index) WithOverlay(prefix string, other *Index) *Index {
	docs := make([]*models.Document, 0, idx.Len()+other.Len())
	docs = append(docs, idx.docs...)
	for _, d := range other.docs {
		cp := *d
		if !strings.HasPrefix(cp.NameLower, strings.ToLower(prefix)) {
			cp.Name = prefix + cp.Name
		}
		docs = append(docs, &cp)
	}
	return New(docs)
}

// Documents returns the documents in discovery order. The slice must not be
// modified.
func (idx *Index) Documents() []*models.Document {
	return idx.docs
}

// Len returns the number of documents.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.docs)
}

// Lookup finds a document by case-insensitive name.
func (idx *Index) Lookup(name string) (*models.Document, bool) {
	d, ok := idx.byName[strings.ToLower(name)]
	return d, ok
}

// AllTags returns every tag seen in the index, sorted.
func (idx *Index) AllTags() []string {
	return idx.tags
}

// WithTag returns the documents carrying tag, in index order.
func (idx *Index) WithTag(tag string) []*models.Document {
	var out []*models.Document
	for _, d := range idx.docs {
		if d.HasTag(tag) {
			out = append(out, d)
		}
	}
	return out
}
