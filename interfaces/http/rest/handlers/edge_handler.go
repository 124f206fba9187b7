package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/application/commands/bus"
	"jamflow/application/queries"
	querybus "jamflow/application/queries/bus"
	"jamflow/pkg/errors"
)

// EdgeHandler handles edge and compatibility requests
type EdgeHandler struct {
	base
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *EdgeHandler {
	return &EdgeHandler{base: newBase(commandBus, queryBus, errorHandler, logger)}
}

// EdgeRequest is the body of POST /sessions/{id}/edges.
type EdgeRequest struct {
	Source   string `json:"source" validate:"required"`
	Target   string `json:"target" validate:"required"`
	Label    string `json:"label,omitempty" validate:"max=200"`
	Relation string `json:"relation,omitempty" validate:"max=32"`
}

// AddEdge handles POST /sessions/{sessionID}/edges
func (h *EdgeHandler) AddEdge(w http.ResponseWriter, r *http.Request) {
	var req EdgeRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	id := sessionID(r)
	h.sendAndRender(w, r, http.StatusCreated, id, commands.AddEdgeCommand{
		SessionID: id,
		Source:    req.Source,
		Target:    req.Target,
		Label:     req.Label,
		Relation:  req.Relation,
	})
}

// DeleteEdge handles DELETE /sessions/{sessionID}/edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	h.sendAndRender(w, r, http.StatusOK, id, commands.DeleteEdgeCommand{
		SessionID: id,
		EdgeID:    chi.URLParam(r, "edgeID"),
	})
}

// EvaluatePair handles GET /sessions/{sessionID}/compatibility?a=&b=
func (h *EdgeHandler) EvaluatePair(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.EvaluatePairQuery{
		SessionID: sessionID(r),
		A:         r.URL.Query().Get("a"),
		B:         r.URL.Query().Get("b"),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}
