package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cyberia-to/publish-quartz/internal/catalog"
	"github.com/cyberia-to/publish-quartz/internal/checksum"
	"github.com/cyberia-to/publish-quartz/internal/favorites"
	fm "github.com/cyberia-to/publish-quartz/internal/frontmatter"
	"github.com/cyberia-to/publish-quartz/internal/index"
	"github.com/cyberia-to/publish-quartz/internal/journals"
	"github.com/cyberia-to/publish-quartz/internal/linkres"
	"github.com/cyberia-to/publish-quartz/internal/storage"
	"github.com/cyberia-to/publish-quartz/internal/transform"
)

// Options control a publish run.
type Options struct {
	IncludePrivate bool
	CreateStubs    bool
	// Concurrency bounds parallel document transforms. Zero means GOMAXPROCS.
	Concurrency int
	Site        SiteOverrides
}

// SiteOverrides replace values read from logseq/config.edn when set.
type SiteOverrides struct {
	Home      string
	Title     string
	Favorites []string
}

// Output is where published content is written.
type Output interface {
	storage.Provider
	CopyTree(src, dst string) (int, error)
}

// Stats summarises a publish run.
type Stats struct {
	PagesPublished  int
	PagesSkipped    int
	PagesFailed     int
	Journals        int
	JournalsSkipped int
	Favorites       int
	Assets          int
	Stubs           int
	// Unchanged counts files left in place because their content matched
	// the previous run.
	Unchanged int
	Duration  time.Duration
}

// Publisher writes a graph's Quartz content.
type Publisher struct {
	src     storage.Provider
	root    string
	out     Output
	catalog *catalog.DB
	opts    Options
	logger  *slog.Logger

	// prev maps output paths to the checksums recorded by the last run.
	prev      map[string]string
	unchanged atomic.Int64
}

// New returns a publisher reading the graph at root through src.
func New(src storage.Provider, root string, out Output, db *catalog.DB, opts Options, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{src: src, root: root, out: out, catalog: db, opts: opts, logger: logger}
}

type job struct {
	entry  index.Entry
	name   string
	path   string
	kind   string
	header []fm.Field
}

type counts struct {
	published, skipped, failed int
}

// Run publishes pages, journals, favorites, site settings and assets, then
// records everything in the catalog and, when enabled, writes stub pages
// for links nothing answers to.
func (p *Publisher) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	var stats Stats

	g, err := Load(ctx, p.src, p.root, p.logger)
	if err != nil {
		return stats, err
	}

	p.prev, err = p.catalog.Checksums()
	if err != nil {
		return stats, err
	}
	p.unchanged.Store(0)

	pageJobs := make([]job, len(g.pages))
	for i, e := range g.pages {
		pageJobs[i] = job{entry: e, name: e.Doc.Name, path: e.Doc.Name + ".md", kind: catalog.KindPage, header: fm.Page(e.Doc)}
	}
	pageRecs, pc, err := p.runJobs(ctx, g.Pipeline, pageJobs)
	if err != nil {
		return stats, err
	}
	stats.PagesPublished, stats.PagesSkipped, stats.PagesFailed = pc.published, pc.skipped, pc.failed
	p.logger.Info("publish: pages done",
		slog.Int("published", pc.published),
		slog.Int("skipped", pc.skipped),
		slog.Int("failed", pc.failed))

	journalJobs := make([]job, len(g.journals))
	for i, j := range g.journals {
		journalJobs[i] = job{
			entry:  j.Entry,
			name:   journals.Dir + "/" + j.day.Name(),
			path:   j.day.Path(),
			kind:   catalog.KindJournal,
			header: fm.Journal(j.day.Title, j.day.Date, j.Doc.Tags),
		}
	}
	journalRecs, jc, err := p.runJobs(ctx, g.Pipeline, journalJobs)
	if err != nil {
		return stats, err
	}
	stats.Journals, stats.JournalsSkipped = jc.published, jc.skipped
	stats.PagesFailed += jc.failed

	records := append(compact(pageRecs), compact(journalRecs)...)

	var days []journals.Day
	for i, rec := range journalRecs {
		if rec != nil {
			days = append(days, g.journals[i].day)
		}
	}
	if len(days) > 0 {
		rec, err := p.write(journals.Dir+"/index", journals.Dir+"/index.md", catalog.KindSpecial, []byte(journals.IndexPage(days)))
		if err != nil {
			return stats, err
		}
		records = append(records, rec)
	}
	p.logger.Info("publish: journals done", slog.Int("published", stats.Journals))

	favRecs, nFavs, err := p.publishFavorites(g.Index)
	if err != nil {
		return stats, err
	}
	stats.Favorites = nFavs
	records = append(records, favRecs...)

	assetsSrc := filepath.Join(p.root, AssetsDir)
	stats.Assets, err = p.out.CopyTree(assetsSrc, AssetsDir)
	if err != nil {
		return stats, fmt.Errorf("publish: copy assets: %w", err)
	}
	if stats.Assets > 0 {
		p.logger.Info("publish: assets copied", slog.Int("files", stats.Assets))
	}

	if err := p.catalog.Reset(); err != nil {
		return stats, err
	}
	if err := p.catalog.RecordAll(records); err != nil {
		return stats, err
	}
	if p.opts.CreateStubs {
		stats.Stubs, err = p.createStubs(g.Pipeline.Resolver())
		if err != nil {
			return stats, err
		}
		p.logger.Info("publish: stubs created", slog.Int("stubs", stats.Stubs))
	}

	stats.Unchanged = int(p.unchanged.Load())
	stats.Duration = time.Since(start)
	p.logger.Info("publish: complete",
		slog.Int("pages", stats.PagesPublished),
		slog.Int("journals", stats.Journals),
		slog.Int("favorites", stats.Favorites),
		slog.Int("stubs", stats.Stubs),
		slog.Int("unchanged", stats.Unchanged),
		slog.String("duration", stats.Duration.String()))
	return stats, nil
}

// runJobs transforms and writes jobs on a bounded pool. A failing document
// is logged and counted without stopping the others. The returned records
// are aligned with jobs and nil where nothing was written.
func (p *Publisher) runJobs(ctx context.Context, pipe *transform.Pipeline, jobs []job) ([]*catalog.Entry, counts, error) {
	records := make([]*catalog.Entry, len(jobs))
	var published, skipped, failed atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.concurrency())
	for i, j := range jobs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if j.entry.Doc.Private() && !p.opts.IncludePrivate {
				skipped.Add(1)
				p.logger.Debug("publish: skip private", slog.String("path", j.entry.Doc.Path))
				return nil
			}
			rec, err := p.publishJob(pipe, j)
			if err != nil {
				failed.Add(1)
				p.logger.Warn("publish: document failed",
					slog.String("path", j.entry.Doc.Path),
					slog.String("error", err.Error()))
				return nil
			}
			records[i] = &rec
			published.Add(1)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, counts{}, fmt.Errorf("publish: %w", err)
	}
	return records, counts{
		published: int(published.Load()),
		skipped:   int(skipped.Load()),
		failed:    int(failed.Load()),
	}, nil
}

func (p *Publisher) publishJob(pipe *transform.Pipeline, j job) (rec catalog.Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	header, err := fm.Render(j.header)
	if err != nil {
		return rec, err
	}
	body := header + "\n" + pipe.Transform(j.entry.Content)
	return p.write(j.name, j.path, j.kind, []byte(body))
}

// write stores data at path unless the file already holds exactly what the
// previous run recorded for it.
func (p *Publisher) write(name, path, kind string, data []byte) (catalog.Entry, error) {
	if checksum.Matches(p.prev[path], data) && p.out.Exists(path) {
		p.unchanged.Add(1)
		return p.record(name, path, kind, data), nil
	}
	if err := p.out.Write(path, data); err != nil {
		return catalog.Entry{}, fmt.Errorf("publish: write %s: %w", path, err)
	}
	return p.record(name, path, kind, data), nil
}

func (p *Publisher) record(name, path, kind string, data []byte) catalog.Entry {
	return catalog.Entry{
		Name:     name,
		Path:     path,
		Kind:     kind,
		Checksum: checksum.Sum(data),
		Links:    outgoingLinks(string(data)),
	}
}

func (p *Publisher) publishFavorites(idx *index.Index) ([]catalog.Entry, int, error) {
	var settings favorites.Settings
	if p.src.Exists(favorites.ConfigPath) {
		data, err := p.src.Read(favorites.ConfigPath)
		if err != nil {
			return nil, 0, fmt.Errorf("publish: read %s: %w", favorites.ConfigPath, err)
		}
		settings = favorites.ParseEDN(data)
	}
	o := p.opts.Site
	if o.Home != "" {
		settings.Home = o.Home
	}
	if o.Title != "" {
		settings.Title = o.Title
	}
	if len(o.Favorites) > 0 {
		settings.Favorites = o.Favorites
	}

	favs, err := favorites.Publish(p.out, idx, settings.Favorites)
	if err != nil {
		return nil, 0, err
	}
	var records []catalog.Entry
	for _, f := range favs {
		if rec, ok := p.readRecord(favorites.Dir+"/"+f.Slug, f.Path(), catalog.KindFavorite); ok {
			records = append(records, rec)
		}
	}
	if len(favs) > 0 {
		p.logger.Info("publish: favorites done", slog.Int("favorites", len(favs)))
	}

	if err := favorites.WriteSite(p.out, idx, settings.Site()); err != nil {
		return nil, 0, err
	}
	if len(settings.Favorites) > 0 {
		if rec, ok := p.readRecord(favorites.Dir+"/index", favorites.Dir+"/index.md", catalog.KindSpecial); ok {
			records = append(records, rec)
		}
	}
	if _, ok := idx.Lookup("index"); !ok {
		if rec, ok := p.readRecord("index", "index.md", catalog.KindSpecial); ok {
			records = append(records, rec)
		}
	}
	return records, len(favs), nil
}

func (p *Publisher) readRecord(name, path, kind string) (catalog.Entry, bool) {
	data, err := p.out.Read(path)
	if err != nil {
		p.logger.Warn("publish: read back failed", slog.String("path", path), slog.String("error", err.Error()))
		return catalog.Entry{}, false
	}
	return p.record(name, path, kind, data), true
}

// createStubs writes a placeholder for every missing link target the
// resolver cannot place either.
func (p *Publisher) createStubs(resolver *linkres.Resolver) (int, error) {
	missing, err := p.catalog.MissingTargets()
	if err != nil {
		return 0, err
	}
	var records []catalog.Entry
	for _, target := range missing {
		if !stubTarget(target) {
			continue
		}
		if _, ok := resolver.Lookup(target); ok {
			continue
		}
		path := stubPath(target)
		if p.out.Exists(path) {
			continue
		}
		rec, err := p.write(target, path, catalog.KindStub, stubPage(target))
		if err != nil {
			p.logger.Warn("publish: stub failed", slog.String("target", target), slog.String("error", err.Error()))
			continue
		}
		rec.Links = nil
		records = append(records, rec)
	}
	if err := p.catalog.RecordAll(records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (p *Publisher) concurrency() int {
	if p.opts.Concurrency > 0 {
		return p.opts.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

func compact(recs []*catalog.Entry) []catalog.Entry {
	out := make([]catalog.Entry, 0, len(recs))
	for _, r := range recs {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
