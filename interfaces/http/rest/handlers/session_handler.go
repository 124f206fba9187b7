package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/application/commands/bus"
	"jamflow/application/dispatch"
	"jamflow/application/queries"
	querybus "jamflow/application/queries/bus"
	"jamflow/application/services"
	"jamflow/domain/core/aggregates"
	"jamflow/pkg/errors"
)

// SessionEngine runs transcripts and command batches against a session.
type SessionEngine interface {
	ProcessTranscript(ctx context.Context, id aggregates.GraphID, transcript string) (*services.TranscriptOutcome, error)
	ApplyInstruction(ctx context.Context, id aggregates.GraphID, instruction string) (*services.BatchOutcome, error)
	ApplyCommands(ctx context.Context, id aggregates.GraphID, commands []dispatch.Command) (*services.BatchOutcome, error)
}

// SessionHandler handles session lifecycle and graph-wide requests.
type SessionHandler struct {
	base
	engine SessionEngine
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	engine SessionEngine,
	errorHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		base:   newBase(commandBus, queryBus, errorHandler, logger),
		engine: engine,
	}
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128"`
	Mode      string `json:"mode,omitempty" validate:"omitempty,oneof=discovery structure"`
}

// CreatedResponse reports the id of a created resource with the snapshot.
type CreatedResponse struct {
	ID    string             `json:"id"`
	Graph *queries.GraphView `json:"graph"`
}

// TranscriptRequest is the body of POST /sessions/{id}/transcript.
type TranscriptRequest struct {
	Transcript string `json:"transcript"`
}

// TranscriptResponse reports which parser handled a transcript.
type TranscriptResponse struct {
	Strategy string             `json:"strategy"`
	Graph    *queries.GraphView `json:"graph"`
}

// InstructionRequest is the body of POST /sessions/{id}/instructions.
type InstructionRequest struct {
	Instruction string `json:"instruction" validate:"required,max=2000"`
}

// BatchResponse reports the outcome of a command batch.
type BatchResponse struct {
	Result  dispatch.Result    `json:"result"`
	Applied int                `json:"applied"`
	Graph   *queries.GraphView `json:"graph"`
}

// ModeRequest is the body of PUT /sessions/{id}/mode.
type ModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.SessionID == "" {
		req.SessionID = aggregates.NewGraphID().String()
	}

	cmd := commands.CreateSessionCommand{SessionID: req.SessionID, Mode: req.Mode}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.respondError(w, r, err)
		return
	}
	view, err := h.graphView(r, req.SessionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/sessions/"+req.SessionID+"/graph")
	h.respondJSON(w, http.StatusCreated, CreatedResponse{ID: req.SessionID, Graph: view})
}

// ListSessions handles GET /sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	query := queries.ListSessionsQuery{}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, r, errors.NewValidationError("limit must be an integer"))
			return
		}
		query.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, r, errors.NewValidationError("offset must be an integer"))
			return
		}
		query.Offset = offset
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// GetGraph handles GET /sessions/{sessionID}/graph
func (h *SessionHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	view, err := h.graphView(r, sessionID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// GetStats handles GET /sessions/{sessionID}/stats
func (h *SessionHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetGraphStatsQuery{SessionID: sessionID(r)})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// DeleteSession handles DELETE /sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.commandBus.Send(r.Context(), commands.DeleteSessionCommand{SessionID: sessionID(r)}); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetMode handles PUT /sessions/{sessionID}/mode
func (h *SessionHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	id := sessionID(r)
	h.sendAndRender(w, r, http.StatusOK, id, commands.SetModeCommand{SessionID: id, Mode: req.Mode})
}

// Clear handles POST /sessions/{sessionID}/clear
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	h.sendAndRender(w, r, http.StatusOK, id, commands.ClearGraphCommand{SessionID: id})
}

// ProcessTranscript handles POST /sessions/{sessionID}/transcript
func (h *SessionHandler) ProcessTranscript(w http.ResponseWriter, r *http.Request) {
	var req TranscriptRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	outcome, err := h.engine.ProcessTranscript(r.Context(), aggregates.GraphID(sessionID(r)), req.Transcript)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, TranscriptResponse{
		Strategy: outcome.Strategy,
		Graph:    queries.NewGraphView(outcome.Graph),
	})
}

// ApplyInstruction handles POST /sessions/{sessionID}/instructions
func (h *SessionHandler) ApplyInstruction(w http.ResponseWriter, r *http.Request) {
	var req InstructionRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	outcome, err := h.engine.ApplyInstruction(r.Context(), aggregates.GraphID(sessionID(r)), req.Instruction)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondBatch(w, outcome)
}

// ApplyCommands handles POST /sessions/{sessionID}/commands. The body is a
// command list, bare or wrapped in {"commands": [...]}.
func (h *SessionHandler) ApplyCommands(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.respondError(w, r, errors.NewValidationError("failed to read request body"))
		return
	}
	cmds, err := dispatch.DecodeBatch(body)
	if err != nil {
		h.respondError(w, r, errors.NewValidationError(err.Error()))
		return
	}

	outcome, err := h.engine.ApplyCommands(r.Context(), aggregates.GraphID(sessionID(r)), cmds)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondBatch(w, outcome)
}

func (h *SessionHandler) respondBatch(w http.ResponseWriter, outcome *services.BatchOutcome) {
	result := outcome.Result
	if result.Skipped == nil {
		result.Skipped = []dispatch.Diagnostic{}
	}
	h.respondJSON(w, http.StatusOK, BatchResponse{
		Result:  result,
		Applied: result.Applied(),
		Graph:   queries.NewGraphView(outcome.Graph),
	})
}
