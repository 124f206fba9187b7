package queries

import (
	"context"
	"time"

	"jamflow/application/ports"
	"jamflow/pkg/utils"
)

// DefaultListLimit applies when a ListSessionsQuery has no limit.
const DefaultListLimit = 50

// ListSessionsQuery represents a query to list sessions
type ListSessionsQuery struct {
	Limit  int `json:"limit" validate:"gte=0,lte=500"`
	Offset int `json:"offset" validate:"gte=0"`
}

// Validate validates the query
func (q ListSessionsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListSessionsResult represents the result of listing sessions
type ListSessionsResult struct {
	Sessions   []SessionSummary `json:"sessions"`
	TotalCount int              `json:"total_count"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// SessionSummary represents a summary of a session graph
type SessionSummary struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Version   int       `json:"version"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListSessionsHandler handles the ListSessionsQuery
type ListSessionsHandler struct {
	graphRepo ports.GraphRepository
}

// NewListSessionsHandler creates a new handler instance
func NewListSessionsHandler(graphRepo ports.GraphRepository) *ListSessionsHandler {
	return &ListSessionsHandler{graphRepo: graphRepo}
}

// Handle returns one page of sessions, oldest first.
func (h *ListSessionsHandler) Handle(ctx context.Context, query ListSessionsQuery) (*ListSessionsResult, error) {
	limit := query.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}

	graphs, err := h.graphRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &ListSessionsResult{
		Sessions:   make([]SessionSummary, 0),
		TotalCount: len(graphs),
		Limit:      limit,
		Offset:     query.Offset,
	}
	if query.Offset >= len(graphs) {
		return result, nil
	}
	end := query.Offset + limit
	if end > len(graphs) {
		end = len(graphs)
	}
	for _, g := range graphs[query.Offset:end] {
		result.Sessions = append(result.Sessions, SessionSummary{
			ID:        g.ID().String(),
			Mode:      g.Mode().String(),
			Version:   g.Version(),
			NodeCount: g.NodeCount(),
			EdgeCount: len(g.Edges()),
			CreatedAt: g.CreatedAt(),
			UpdatedAt: g.UpdatedAt(),
		})
	}
	return result, nil
}
