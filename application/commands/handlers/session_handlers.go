package handlers

import (
	"context"

	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/valueobjects"
	"jamflow/pkg/errors"
)

// SessionHandler handles the session lifecycle and whole-graph commands.
type SessionHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewSessionHandler creates a session handler
func NewSessionHandler(sessions Sessions, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// HandleCreate starts a session.
func (h *SessionHandler) HandleCreate(ctx context.Context, cmd commands.CreateSessionCommand) error {
	mode := valueobjects.ModeDiscovery
	if cmd.Mode != "" {
		parsed, err := valueobjects.ParseGraphMode(cmd.Mode)
		if err != nil {
			return errors.NewValidationError(err.Error())
		}
		mode = parsed
	}

	g, err := h.sessions.CreateSession(ctx, aggregates.GraphID(cmd.SessionID), mode)
	if err != nil {
		return err
	}
	h.logger.Info("Session created",
		zap.String("sessionID", g.ID().String()),
		zap.String("mode", mode.String()),
	)
	return nil
}

// HandleDelete drops a session.
func (h *SessionHandler) HandleDelete(ctx context.Context, cmd commands.DeleteSessionCommand) error {
	if err := h.sessions.DeleteSession(ctx, aggregates.GraphID(cmd.SessionID)); err != nil {
		return err
	}
	h.logger.Info("Session deleted", zap.String("sessionID", cmd.SessionID))
	return nil
}

// HandleSetMode switches the session mode.
func (h *SessionHandler) HandleSetMode(ctx context.Context, cmd commands.SetModeCommand) error {
	mode, err := valueobjects.ParseGraphMode(cmd.Mode)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	_, err = h.sessions.SetMode(ctx, aggregates.GraphID(cmd.SessionID), mode)
	return err
}

// HandleClear empties the session graph.
func (h *SessionHandler) HandleClear(ctx context.Context, cmd commands.ClearGraphCommand) error {
	_, err := h.sessions.Clear(ctx, aggregates.GraphID(cmd.SessionID))
	return err
}
