// Package publish turns a Logseq graph into Quartz content.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/cyberia-to/publish-quartz/internal/apperr"
	"github.com/cyberia-to/publish-quartz/internal/history"
	"github.com/cyberia-to/publish-quartz/internal/index"
	"github.com/cyberia-to/publish-quartz/internal/journals"
	"github.com/cyberia-to/publish-quartz/internal/models"
	"github.com/cyberia-to/publish-quartz/internal/storage"
	"github.com/cyberia-to/publish-quartz/internal/transform"
)

// Graph source directories.
const (
	PagesDir    = "pages"
	JournalsDir = "journals"
	AssetsDir   = "assets"
)

// Graph is a loaded graph: the combined index, a pipeline over it and the
// documents to publish with their post-property content.
type Graph struct {
	Index    *index.Index
	Pipeline *transform.Pipeline

	pages    []index.Entry
	journals []journalEntry
}

type journalEntry struct {
	index.Entry
	day journals.Day
}

// NewGraph wraps an already built index. It has nothing to publish.
func NewGraph(idx *index.Index) *Graph {
	return &Graph{Index: idx, Pipeline: transform.New(idx)}
}

// Load reads every page and journal under the graph root. Dates come from
// git history in root when it is a repository.
func Load(ctx context.Context, src storage.Provider, root string, logger *slog.Logger) (*Graph, error) {
	if !src.Exists(PagesDir) && !src.Exists(JournalsDir) {
		return nil, fmt.Errorf("publish: %s: %w", root, apperr.ErrSourceRoot)
	}

	dates, err := history.Lookup(ctx, root)
	if err != nil {
		logger.Debug("publish: no git dates", slog.String("error", err.Error()))
		dates = nil
	}

	pageSources, err := readAll(src, PagesDir)
	if err != nil {
		return nil, err
	}
	journalSources, err := readAll(src, JournalsDir)
	if err != nil {
		return nil, err
	}

	days := make(map[string]journals.Day, len(journalSources))
	dated := journalSources[:0]
	for _, s := range journalSources {
		day, ok := journals.ParseDate(stem(s.Path))
		if !ok {
			logger.Debug("publish: skip undated journal", slog.String("path", s.Path))
			continue
		}
		days[s.Path] = day
		dated = append(dated, s)
	}

	pagesIdx, pages := index.BuildEntries(pageSources, dates, nil)
	journalIdx, js := index.BuildEntries(dated, dates, func(s models.Source) string {
		return days[s.Path].Name()
	})

	g := &Graph{
		Index: pagesIdx.WithOverlay(journals.Dir+"/", journalIdx),
		pages: pages,
	}
	for _, e := range js {
		g.journals = append(g.journals, journalEntry{Entry: e, day: days[e.Doc.Path]})
	}
	g.Pipeline = transform.New(g.Index)

	logger.Info("publish: graph indexed",
		slog.Int("pages", len(g.pages)),
		slog.Int("journals", len(g.journals)),
		slog.Int("documents", g.Index.Len()))
	return g, nil
}

func readAll(src storage.Provider, dir string) ([]models.Source, error) {
	paths, err := src.List(dir)
	if err != nil {
		return nil, fmt.Errorf("publish: list %s: %w", dir, err)
	}
	out := make([]models.Source, 0, len(paths))
	for _, p := range paths {
		data, err := src.Read(p)
		if err != nil {
			slog.Debug("publish: skip unreadable source", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		out = append(out, models.Source{Path: p, Data: data})
	}
	return out, nil
}

func stem(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}
