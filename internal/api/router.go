package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cyberia-to/publish-quartz/internal/service"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *service.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/query", h.Query)
	r.Get("/resolve", h.Resolve)
	r.Post("/transform", h.Transform)
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)
	r.Get("/tags", h.Tags)
	r.Get("/backlinks", h.Backlinks)

	return r
}

// NewHTTPHandler builds the full server handler: request middleware,
// unauthenticated health checks and the API under /api. A non-nil events
// handler is served at /api/events behind the same auth.
func NewHTTPHandler(svc *service.Service, authEnabled bool, token string, events http.Handler) http.Handler {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)
	r.Mount("/api", NewRouter(svc, authEnabled, token))
	if events != nil {
		r.With(AuthMiddleware(authEnabled, token)).Get("/api/events", events.ServeHTTP)
	}
	return r
}
