package handlers

import (
	"context"

	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/application/services"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/valueobjects"
)

// AddNodeHandler adds a node chosen by the user. Auto edges are recomputed
// by the reducer in discovery mode, so the handler only has to stage the
// node.
type AddNodeHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewAddNodeHandler creates an add node handler
func NewAddNodeHandler(sessions Sessions, logger *zap.Logger) *AddNodeHandler {
	return &AddNodeHandler{sessions: sessions, logger: logger}
}

// Handle executes the add node command
func (h *AddNodeHandler) Handle(ctx context.Context, cmd commands.AddNodeCommand) error {
	in := services.NodeInput{
		ID:      cmd.NodeID,
		Label:   cmd.Label,
		Type:    cmd.Type,
		Key:     cmd.Key,
		BPM:     cmd.BPM,
		Section: cmd.Section,
		Details: cmd.Details,
	}
	if cmd.Position != nil {
		p := valueobjects.NewPosition(cmd.Position.X, cmd.Position.Y)
		in.Position = &p
	}

	node, g, err := h.sessions.AddNode(ctx, aggregates.GraphID(cmd.SessionID), in)
	if err != nil {
		return err
	}

	h.logger.Debug("Node added",
		zap.String("sessionID", cmd.SessionID),
		zap.String("nodeID", node.ID.String()),
		zap.String("type", node.Data.Type.String()),
		zap.Int("edges", len(g.Edges())),
	)
	return nil
}
