// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cyberia-to/publish-quartz/internal/api"
	"github.com/cyberia-to/publish-quartz/internal/apperr"
	"github.com/cyberia-to/publish-quartz/internal/catalog"
	"github.com/cyberia-to/publish-quartz/internal/mcpserver"
	"github.com/cyberia-to/publish-quartz/internal/publish"
	"github.com/cyberia-to/publish-quartz/internal/repl"
	"github.com/cyberia-to/publish-quartz/internal/service"
	"github.com/cyberia-to/publish-quartz/internal/sse"
	"github.com/cyberia-to/publish-quartz/internal/storage"
	"github.com/cyberia-to/publish-quartz/internal/watch"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logOutput == nil {
		app.logOutput = os.Stderr
	}
	return app, nil
}

func (a *application) logger() *slog.Logger {
	hopts := &slog.HandlerOptions{Level: a.config.App.LogLevel}
	var h slog.Handler
	if a.config.App.LogFormat == LogFormatJSON {
		h = slog.NewJSONHandler(a.logOutput, hopts)
	} else {
		h = slog.NewTextHandler(a.logOutput, hopts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func (a *application) openSource() (*storage.FS, string, error) {
	root, err := filepath.Abs(a.config.Source.Path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve source path: %w", err)
	}
	src, err := storage.NewFS(root)
	if err != nil {
		return nil, "", fmt.Errorf("open source %s: %w", root, errors.Join(apperr.ErrSourceRoot, err))
	}
	return src, root, nil
}

func (a *application) loader(src *storage.FS, root string, logger *slog.Logger) service.Loader {
	return func(ctx context.Context) (*publish.Graph, error) {
		return publish.Load(ctx, src, root, logger)
	}
}

// openCatalog opens the on-disk catalog when it already exists. Read-only
// front ends answer backlinks from the last publish and need no catalog
// otherwise.
func (a *application) openCatalog(logger *slog.Logger) *catalog.DB {
	path := a.config.Catalog.Path
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		logger.Debug("catalog: not found, backlinks disabled", slog.String("path", path))
		return nil
	}
	db, err := catalog.Open(path)
	if err != nil {
		logger.Warn("catalog: open failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	return db
}

// Run publishes the configured graph once and, when publish.watch is set,
// keeps republishing on change until ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("publish: configuration loaded",
		slog.String("source", cfg.Source.Path),
		slog.String("output", cfg.Output.Path),
		slog.String("catalog", cfg.Catalog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	src, root, err := app.openSource()
	if err != nil {
		return err
	}
	out, err := storage.CreateFS(cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("init output: %w", err)
	}

	db, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer db.Close()

	pub := publish.New(src, root, out, db, publish.Options{
		IncludePrivate: cfg.Publish.IncludePrivate,
		CreateStubs:    cfg.Publish.CreateStubs,
		Concurrency:    cfg.App.Concurrency,
		Site: publish.SiteOverrides{
			Home:      cfg.Site.Home,
			Title:     cfg.Site.Title,
			Favorites: cfg.Site.Favorites,
		},
	}, logger)

	if err := publishOnce(ctx, pub, logger); err != nil {
		return err
	}
	if !cfg.Publish.Watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("watch: watching for changes", slog.String("root", root))
	return watch.Watch(ctx, root, watch.DefaultDirs, cfg.Publish.Debounce, logger,
		func(ctx context.Context, changed []string) {
			logger.Info("watch: change detected", slog.Int("files", len(changed)))
			if err := publishOnce(ctx, pub, logger); err != nil {
				logger.Error("publish: rebuild failed", slog.String("error", err.Error()))
			}
		})
}

func publishOnce(ctx context.Context, pub *publish.Publisher, logger *slog.Logger) error {
	stats, err := pub.Run(ctx)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if stats.PagesFailed > 0 {
		logger.Warn("publish: some documents failed", slog.Int("failed", stats.PagesFailed))
	}
	return nil
}

// Serve indexes the graph and answers queries over HTTP. With publish.watch
// set the index is rebuilt whenever the graph changes.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("serve: configuration loaded",
		slog.String("http_address", cfg.HTTP.Address()),
		slog.String("source", cfg.Source.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	src, root, err := app.openSource()
	if err != nil {
		return err
	}

	var svcOpts []service.Option
	if db := app.openCatalog(logger); db != nil {
		defer db.Close()
		svcOpts = append(svcOpts, service.WithCatalog(db))
	}
	svc := service.New(app.loader(src, root, logger), logger, svcOpts...)

	// Reload notifications for live-preview clients.
	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           api.NewHTTPHandler(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Initial index load; the server reports not ready until it completes.
	g.Go(func() error {
		if err := svc.Reload(gCtx); err != nil {
			logger.Error("serve: initial index failed", slog.String("error", err.Error()))
		}
		return nil
	})

	if cfg.Publish.Watch {
		g.Go(func() error {
			return watch.Watch(gCtx, root, watch.DefaultDirs, cfg.Publish.Debounce, logger,
				func(ctx context.Context, changed []string) {
					if err := svc.Reload(ctx); err != nil {
						logger.Warn("serve: reindex failed", slog.String("error", err.Error()))
						broker.ReloadFailed(err)
						return
					}
					logger.Info("serve: reindexed", slog.Int("files", len(changed)))
					broker.Reloaded(svc.Len(), changed)
				})
		})
	}

	g.Go(func() error {
		logger.Info("serve: starting HTTP server", slog.String("address", cfg.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("serve: received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("serve: context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("serve: HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("serve: application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("serve: stopped")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// ServeMCP indexes the graph and serves MCP tools over stdio.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, svc, cleanup, err := loadService(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()
	return mcpserver.New(svc, app.version).ServeStdio()
}

// RunREPL indexes the graph and starts the interactive query shell.
func RunREPL(ctx context.Context, opts ...Option) error {
	_, svc, cleanup, err := loadService(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()
	return repl.New(svc, os.Stdout, repl.DefaultHistoryFile()).Run(ctx)
}

func loadService(ctx context.Context, opts []Option) (*application, *service.Service, func(), error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := app.logger()

	src, root, err := app.openSource()
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {}
	var svcOpts []service.Option
	if db := app.openCatalog(logger); db != nil {
		cleanup = func() { _ = db.Close() }
		svcOpts = append(svcOpts, service.WithCatalog(db))
	}

	svc := service.New(app.loader(src, root, logger), logger, svcOpts...)
	if err := svc.Reload(ctx); err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("index graph: %w", err)
	}
	return app, svc, cleanup, nil
}
