package handlers

import (
	"context"

	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/application/dispatch"
	"jamflow/domain/core/aggregates"
)

// BulkDeleteNodesHandler removes several nodes as one dispatched batch, so
// ids that are already gone are skipped instead of failing the request.
type BulkDeleteNodesHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewBulkDeleteNodesHandler creates a new bulk delete handler
func NewBulkDeleteNodesHandler(sessions Sessions, logger *zap.Logger) *BulkDeleteNodesHandler {
	return &BulkDeleteNodesHandler{sessions: sessions, logger: logger}
}

// Handle executes the bulk delete command
func (h *BulkDeleteNodesHandler) Handle(ctx context.Context, cmd commands.BulkDeleteNodesCommand) error {
	batch := make([]dispatch.Command, 0, len(cmd.NodeIDs))
	for _, id := range cmd.NodeIDs {
		batch = append(batch, dispatch.DeleteByID{ID: id})
	}

	outcome, err := h.sessions.ApplyCommands(ctx, aggregates.GraphID(cmd.SessionID), batch)
	if err != nil {
		return err
	}

	h.logger.Info("Bulk delete completed",
		zap.String("sessionID", cmd.SessionID),
		zap.Int("requested", len(cmd.NodeIDs)),
		zap.Int("deleted", outcome.Result.Applied()),
		zap.Int("skipped", len(outcome.Result.Skipped)),
	)
	return nil
}
