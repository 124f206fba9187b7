package queries

import (
	"context"

	"jamflow/application/ports"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
	"jamflow/pkg/errors"
	"jamflow/pkg/utils"
)

// GetNodeQuery represents a query to get a single node
type GetNodeQuery struct {
	SessionID string `json:"session_id" validate:"required"`
	NodeID    string `json:"node_id" validate:"required"`
}

// Validate validates the GetNodeQuery
func (q GetNodeQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetNodeResult is a node with the rendered edges touching it.
type GetNodeResult struct {
	Node   entities.Node   `json:"node"`
	Pinned bool            `json:"pinned"`
	Edges  []entities.Edge `json:"edges"`
}

// GetNodeHandler handles the GetNodeQuery
type GetNodeHandler struct {
	graphRepo ports.GraphRepository
}

// NewGetNodeHandler creates a new handler instance
func NewGetNodeHandler(graphRepo ports.GraphRepository) *GetNodeHandler {
	return &GetNodeHandler{graphRepo: graphRepo}
}

// Handle executes the get node query
func (h *GetNodeHandler) Handle(ctx context.Context, query GetNodeQuery) (*GetNodeResult, error) {
	g, err := h.graphRepo.GetByID(ctx, aggregates.GraphID(query.SessionID))
	if err != nil {
		return nil, err
	}
	id := valueobjects.NodeID(query.NodeID)
	node, ok := g.Node(id)
	if !ok {
		return nil, errors.NewNotFoundError("node " + query.NodeID)
	}

	touching := make([]entities.Edge, 0)
	for _, e := range g.Edges() {
		if e.Touches(id) {
			touching = append(touching, e)
		}
	}
	return &GetNodeResult{Node: node, Pinned: g.IsPinned(id), Edges: touching}, nil
}
