package queries

import (
	"context"
	"time"

	"jamflow/application/ports"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
	"jamflow/pkg/utils"
)

// GetGraphQuery asks for the rendered snapshot of a session.
type GetGraphQuery struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Validate validates the query
func (q GetGraphQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GraphView is the rendered snapshot handed to clients.
type GraphView struct {
	SessionID string           `json:"session_id"`
	Mode      string           `json:"mode"`
	Version   int              `json:"version"`
	Nodes     []entities.Node  `json:"nodes"`
	Edges     []entities.Edge  `json:"edges"`
	Metadata  GraphMetadataDTO `json:"metadata"`
}

// GraphMetadataDTO represents graph metadata
type GraphMetadataDTO struct {
	NodeCount       int       `json:"node_count"`
	EdgeCount       int       `json:"edge_count"`
	Signature       string    `json:"signature"`
	StyleGeneration int       `json:"style_generation"`
	Pinned          []string  `json:"pinned"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewGraphView renders g.
func NewGraphView(g *aggregates.Graph) *GraphView {
	nodes := g.Nodes()
	edges := g.Edges()
	pinned := make([]string, 0)
	for _, n := range nodes {
		if g.IsPinned(n.ID) {
			pinned = append(pinned, n.ID.String())
		}
	}
	return &GraphView{
		SessionID: g.ID().String(),
		Mode:      g.Mode().String(),
		Version:   g.Version(),
		Nodes:     nodes,
		Edges:     edges,
		Metadata: GraphMetadataDTO{
			NodeCount:       len(nodes),
			EdgeCount:       len(edges),
			Signature:       g.Signature(),
			StyleGeneration: g.StyleGeneration(),
			Pinned:          pinned,
			CreatedAt:       g.CreatedAt(),
			UpdatedAt:       g.UpdatedAt(),
		},
	}
}

// GetGraphHandler handles the GetGraphQuery
type GetGraphHandler struct {
	graphRepo ports.GraphRepository
}

// NewGetGraphHandler creates a new handler instance
func NewGetGraphHandler(graphRepo ports.GraphRepository) *GetGraphHandler {
	return &GetGraphHandler{graphRepo: graphRepo}
}

// Handle executes the get graph query
func (h *GetGraphHandler) Handle(ctx context.Context, query GetGraphQuery) (*GraphView, error) {
	g, err := h.graphRepo.GetByID(ctx, aggregates.GraphID(query.SessionID))
	if err != nil {
		return nil, err
	}
	return NewGraphView(g), nil
}
