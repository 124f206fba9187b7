package handlers

import (
	"context"

	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/application/services"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/valueobjects"
)

// EdgeHandler handles user-drawn edges.
type EdgeHandler struct {
	edges  Edges
	logger *zap.Logger
}

// NewEdgeHandler creates an edge handler
func NewEdgeHandler(edges Edges, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{edges: edges, logger: logger}
}

// HandleAdd draws an edge.
func (h *EdgeHandler) HandleAdd(ctx context.Context, cmd commands.AddEdgeCommand) error {
	edge, _, err := h.edges.AddEdge(ctx, aggregates.GraphID(cmd.SessionID), services.EdgeInput{
		Source:   cmd.Source,
		Target:   cmd.Target,
		Label:    cmd.Label,
		Relation: cmd.Relation,
	})
	if err != nil {
		return err
	}
	h.logger.Debug("Edge added",
		zap.String("sessionID", cmd.SessionID),
		zap.String("edgeID", edge.ID.String()),
	)
	return nil
}

// HandleDelete removes an edge.
func (h *EdgeHandler) HandleDelete(ctx context.Context, cmd commands.DeleteEdgeCommand) error {
	_, err := h.edges.DeleteEdge(ctx, aggregates.GraphID(cmd.SessionID), valueobjects.EdgeID(cmd.EdgeID))
	return err
}
