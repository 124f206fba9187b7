package handlers

import (
	"context"

	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/valueobjects"
	"jamflow/pkg/errors"
)

// DeleteNodeHandler handles node deletion commands
type DeleteNodeHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewDeleteNodeHandler creates a new delete node handler
func NewDeleteNodeHandler(sessions Sessions, logger *zap.Logger) *DeleteNodeHandler {
	return &DeleteNodeHandler{sessions: sessions, logger: logger}
}

// Handle deletes the node; its edges go with it.
func (h *DeleteNodeHandler) Handle(ctx context.Context, cmd commands.DeleteNodeCommand) error {
	nodeID, err := valueobjects.ParseNodeID(cmd.NodeID)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}

	g, err := h.sessions.DeleteNode(ctx, aggregates.GraphID(cmd.SessionID), nodeID)
	if err != nil {
		return err
	}

	h.logger.Info("Node deleted",
		zap.String("sessionID", cmd.SessionID),
		zap.String("nodeID", cmd.NodeID),
		zap.Int("remainingNodes", g.NodeCount()),
	)
	return nil
}

// MoveNodesHandler records dragged positions.
type MoveNodesHandler struct {
	sessions Sessions
}

// NewMoveNodesHandler creates a move handler
func NewMoveNodesHandler(sessions Sessions) *MoveNodesHandler {
	return &MoveNodesHandler{sessions: sessions}
}

// Handle executes the move command
func (h *MoveNodesHandler) Handle(ctx context.Context, cmd commands.MoveNodesCommand) error {
	positions := make(map[valueobjects.NodeID]valueobjects.Position, len(cmd.Positions))
	for raw, p := range cmd.Positions {
		id, err := valueobjects.ParseNodeID(raw)
		if err != nil {
			return errors.NewValidationError(err.Error())
		}
		positions[id] = valueobjects.NewPosition(p.X, p.Y)
	}
	_, err := h.sessions.MoveNodes(ctx, aggregates.GraphID(cmd.SessionID), positions)
	return err
}
