package handlers

import (
	"context"

	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
	"jamflow/pkg/errors"
)

// UpdateNodeHandler replaces a node's data record.
type UpdateNodeHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewUpdateNodeHandler creates a new update node handler
func NewUpdateNodeHandler(sessions Sessions, logger *zap.Logger) *UpdateNodeHandler {
	return &UpdateNodeHandler{sessions: sessions, logger: logger}
}

// Handle executes the update node command
func (h *UpdateNodeHandler) Handle(ctx context.Context, cmd commands.UpdateNodeCommand) error {
	nodeID, err := valueobjects.ParseNodeID(cmd.NodeID)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	elementType, err := valueobjects.ParseElementType(cmd.Type)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}

	data := entities.NodeData{
		Label:   cmd.Label,
		Type:    elementType,
		Key:     valueobjects.Key(cmd.Key),
		BPM:     valueobjects.BPM(cmd.BPM),
		Section: cmd.Section,
		Details: cmd.Details,
	}
	if _, err := h.sessions.UpdateNode(ctx, aggregates.GraphID(cmd.SessionID), nodeID, data); err != nil {
		return err
	}

	h.logger.Debug("Node updated",
		zap.String("sessionID", cmd.SessionID),
		zap.String("nodeID", cmd.NodeID),
	)
	return nil
}
