package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cyberia-to/publish-quartz/internal/service"
)

// Handler holds API route handlers.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// Ready handles GET /health/ready. It reports 503 until a graph is loaded.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if !h.svc.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "loading"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// Query handles POST /api/query.
//
//	@Summary		Evaluate a query against the graph
//	@Tags			query
//	@Accept			json
//	@Produce		json
//	@Param			body	body		QueryRequest	true	"Query and option lines"
//	@Success		200		{object}	QueryResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/query [post]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Query(req.Query, req.Options)
	if err != nil {
		writeError(w, "query", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Resolve handles GET /api/resolve.
//
//	@Summary		Resolve a link to the page it publishes as
//	@Tags			links
//	@Produce		json
//	@Param			link	query		string	true	"Link text"
//	@Success		200		{object}	ResolveResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	link := r.URL.Query().Get("link")
	if link == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'link' is required"))
		return
	}
	res, err := h.svc.Resolve(link)
	if err != nil {
		writeError(w, "resolve", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Transform handles POST /api/transform.
//
//	@Summary		Transform a Logseq body into Quartz markdown
//	@Tags			transform
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TransformRequest	true	"Logseq markdown"
//	@Success		200		{object}	TransformResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/transform [post]
func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Markdown == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("markdown is required"))
		return
	}
	out, err := h.svc.Transform(req.Markdown)
	if err != nil {
		writeError(w, "transform", err)
		return
	}
	writeJSON(w, http.StatusOK, TransformResponse{Markdown: out})
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List indexed documents
//	@Tags			documents
//	@Produce		json
//	@Param			tag	query		string	false	"Filter by tag"
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Documents(r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Total: len(docs)})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get one document by name
//	@Tags			documents
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Success		200		{object}	DocumentInfo
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	doc, err := h.svc.Document(name)
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Tags handles GET /api/tags.
//
//	@Summary		List every tag in the graph
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, _ *http.Request) {
	tags, err := h.svc.Tags()
	if err != nil {
		writeError(w, "tags", err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// Backlinks handles GET /api/backlinks.
//
//	@Summary		List pages linking to a page in the last publish run
//	@Tags			links
//	@Produce		json
//	@Param			name	query		string	true	"Page name or alias"
//	@Success		200		{object}	BacklinksResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'name' is required"))
		return
	}
	links, err := h.svc.Backlinks(name)
	if err != nil {
		writeError(w, "backlinks", err)
		return
	}
	if links == nil {
		links = []string{}
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Name: name, Backlinks: links})
}

// documentName extracts the name from the URL (everything after
// /api/documents/). Namespaced names may arrive with encoded slashes.
func documentName(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
