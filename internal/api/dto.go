package api

import "github.com/cyberia-to/publish-quartz/internal/service"

// QueryRequest is the request body for evaluating a query.
type QueryRequest struct {
	Query   string   `json:"query" example:"{{query (page-tags [[work]])}}" validate:"required"`
	Options []string `json:"options,omitempty" example:"query-table:: false"`
}

// QueryResponse is an evaluated query (aliased from the domain layer).
type QueryResponse = service.QueryResult

// ResolveResponse is a link lookup result (aliased from the domain layer).
type ResolveResponse = service.Resolution

// TransformRequest is the request body for transforming a Logseq body.
type TransformRequest struct {
	Markdown string `json:"markdown" example:"- TODO write [[notes]]" validate:"required"`
}

// TransformResponse holds the Quartz markdown.
type TransformResponse struct {
	Markdown string `json:"markdown" validate:"required"`
}

// DocumentInfo is one indexed document (aliased from the domain layer).
type DocumentInfo = service.DocumentInfo

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []DocumentInfo `json:"documents" validate:"required"`
	Total     int            `json:"total" example:"42" validate:"required"`
}

// TagsResponse lists every tag in the graph.
type TagsResponse struct {
	Tags []string `json:"tags" validate:"required"`
}

// BacklinksResponse lists the pages linking to Name.
type BacklinksResponse struct {
	Name      string   `json:"name" example:"Projects" validate:"required"`
	Backlinks []string `json:"backlinks" validate:"required"`
}

type statusResponse struct {
	Status string `json:"status"`
}
