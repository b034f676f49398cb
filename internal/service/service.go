// Package service answers queries, link lookups and transforms against the
// most recently loaded graph.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/cyberia-to/publish-quartz/internal/apperr"
	"github.com/cyberia-to/publish-quartz/internal/catalog"
	"github.com/cyberia-to/publish-quartz/internal/models"
	"github.com/cyberia-to/publish-quartz/internal/publish"
	"github.com/cyberia-to/publish-quartz/internal/query"
)

// Loader builds a fresh graph.
type Loader func(ctx context.Context) (*publish.Graph, error)

// Service is safe for concurrent use. Reload swaps the graph atomically so
// in-flight requests finish against the graph they started with.
type Service struct {
	load    Loader
	graph   atomic.Pointer[publish.Graph]
	catalog *catalog.DB
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog answers backlink lookups from the catalog a publish run
// recorded.
func WithCatalog(db *catalog.DB) Option {
	return func(s *Service) {
		s.catalog = db
	}
}

// New returns a service that loads graphs with load. Call Reload before
// serving.
func New(load Loader, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{load: load, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStatic returns a service over a fixed graph.
func NewStatic(g *publish.Graph, opts ...Option) *Service {
	s := New(nil, nil, opts...)
	s.graph.Store(g)
	return s
}

// Reload rebuilds the graph. On failure the previous graph stays in place.
func (s *Service) Reload(ctx context.Context) error {
	if s.load == nil {
		return nil
	}
	g, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("service: reload: %w", err)
	}
	s.graph.Store(g)
	s.logger.Info("service: graph reloaded", slog.Int("documents", g.Index.Len()))
	return nil
}

// Ready reports whether a graph has been loaded.
func (s *Service) Ready() bool {
	return s.graph.Load() != nil
}

// Len returns the number of indexed documents, 0 before the first load.
func (s *Service) Len() int {
	if g := s.graph.Load(); g != nil {
		return g.Index.Len()
	}
	return 0
}

func (s *Service) current() (*publish.Graph, error) {
	g := s.graph.Load()
	if g == nil {
		return nil, apperr.ErrNotReady
	}
	return g, nil
}

// QueryResult is an evaluated query.
type QueryResult struct {
	Query    string   `json:"query"`
	Layout   string   `json:"layout"`
	Matches  []string `json:"matches"`
	Markdown string   `json:"markdown"`
}

// Query evaluates text, with or without its {{query ...}} wrapper.
// optionLines are query-* property lines controlling the rendering.
func (s *Service) Query(text string, optionLines []string) (QueryResult, error) {
	if strings.TrimSpace(query.StripWrapper(text)) == "" {
		return QueryResult{}, fmt.Errorf("service: empty query: %w", apperr.ErrInvalidRequest)
	}
	g, err := s.current()
	if err != nil {
		return QueryResult{}, err
	}

	q := query.Parse(text)
	matches := q.Eval(g.Index)
	md, layout := query.RenderLayout(matches, q.Text, query.ParseOptions(optionLines).Merge(q))

	names := make([]string, len(matches))
	for i, d := range matches {
		names[i] = d.Name
	}
	return QueryResult{Query: q.Text, Layout: layout.String(), Matches: names, Markdown: md}, nil
}

// Resolution is the outcome of a link lookup.
type Resolution struct {
	Link   string `json:"link"`
	Target string `json:"target"`
	Found  bool   `json:"found"`
}

// Resolve maps a link onto the page it publishes as.
func (s *Service) Resolve(link string) (Resolution, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return Resolution{}, fmt.Errorf("service: empty link: %w", apperr.ErrInvalidRequest)
	}
	g, err := s.current()
	if err != nil {
		return Resolution{}, err
	}
	target, found := g.Pipeline.Resolver().Lookup(link)
	return Resolution{Link: link, Target: target, Found: found}, nil
}

// Transform rewrites a Logseq body into Quartz markdown.
func (s *Service) Transform(markdown string) (string, error) {
	g, err := s.current()
	if err != nil {
		return "", err
	}
	return g.Pipeline.Transform(markdown), nil
}

// DocumentInfo describes one indexed document.
type DocumentInfo struct {
	Name      string   `json:"name"`
	Title     string   `json:"title"`
	Path      string   `json:"path"`
	Namespace string   `json:"namespace,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
	Private   bool     `json:"private,omitempty"`
}

// Documents lists indexed documents in discovery order, only those carrying
// tag when it is set.
func (s *Service) Documents(tag string) ([]DocumentInfo, error) {
	g, err := s.current()
	if err != nil {
		return nil, err
	}
	docs := g.Index.Documents()
	if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
		docs = g.Index.WithTag(tag)
	}
	out := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, info(d))
	}
	return out, nil
}

// Document returns one document by name.
func (s *Service) Document(name string) (DocumentInfo, error) {
	g, err := s.current()
	if err != nil {
		return DocumentInfo{}, err
	}
	d, ok := g.Index.Lookup(name)
	if !ok {
		return DocumentInfo{}, fmt.Errorf("service: document %q: %w", name, apperr.ErrNotFound)
	}
	return info(d), nil
}

func info(d *models.Document) DocumentInfo {
	return DocumentInfo{
		Name:      d.Name,
		Title:     d.IconTitle(),
		Path:      d.Path,
		Namespace: d.Namespace,
		Tags:      d.Tags,
		Aliases:   d.Aliases,
		Private:   d.Private(),
	}
}

// Backlinks lists the documents that linked to name in the last publish run.
func (s *Service) Backlinks(name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("service: empty name: %w", apperr.ErrInvalidRequest)
	}
	if s.catalog == nil {
		return nil, fmt.Errorf("service: no catalog: %w", apperr.ErrNotReady)
	}
	if g := s.graph.Load(); g != nil {
		if target, ok := g.Pipeline.Resolver().Lookup(name); ok {
			name = target
		}
	}
	return s.catalog.Backlinks(name)
}

// Tags lists every tag in the graph, sorted.
func (s *Service) Tags() ([]string, error) {
	g, err := s.current()
	if err != nil {
		return nil, err
	}
	return g.Index.AllTags(), nil
}
