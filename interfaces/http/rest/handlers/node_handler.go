package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/application/commands/bus"
	"jamflow/application/queries"
	querybus "jamflow/application/queries/bus"
	"jamflow/domain/core/valueobjects"
	"jamflow/pkg/errors"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	base
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{base: newBase(commandBus, queryBus, errorHandler, logger)}
}

// NodeRequest is the body of node create and update requests.
type NodeRequest struct {
	ID       string             `json:"id,omitempty" validate:"omitempty,max=128"`
	Label    string             `json:"label" validate:"required,max=200"`
	Type     string             `json:"type" validate:"required"`
	Key      string             `json:"key,omitempty" validate:"max=16"`
	BPM      int                `json:"bpm,omitempty" validate:"gte=0,lte=400"`
	Section  string             `json:"section,omitempty" validate:"max=64"`
	Details  string             `json:"details,omitempty" validate:"max=2000"`
	Position *commands.Position `json:"position,omitempty"`
}

// BulkDeleteRequest is the body of POST /sessions/{id}/nodes/bulk-delete.
type BulkDeleteRequest struct {
	NodeIDs []string `json:"node_ids" validate:"required,min=1,max=100"`
}

// MoveNodesRequest is the body of POST /sessions/{id}/positions.
type MoveNodesRequest struct {
	Positions map[string]commands.Position `json:"positions" validate:"required,min=1"`
}

// AddNode handles POST /sessions/{sessionID}/nodes
func (h *NodeHandler) AddNode(w http.ResponseWriter, r *http.Request) {
	var req NodeRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.ID == "" {
		req.ID = valueobjects.NewNodeID().String()
	}

	id := sessionID(r)
	cmd := commands.AddNodeCommand{
		SessionID: id,
		NodeID:    req.ID,
		Label:     req.Label,
		Type:      req.Type,
		Key:       req.Key,
		BPM:       req.BPM,
		Section:   req.Section,
		Details:   req.Details,
		Position:  req.Position,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Debug("Add node rejected", zap.String("sessionID", id), zap.Error(err))
		h.respondError(w, r, err)
		return
	}
	view, err := h.graphView(r, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, CreatedResponse{ID: req.ID, Graph: view})
}

// GetNode handles GET /sessions/{sessionID}/nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetNodeQuery{
		SessionID: sessionID(r),
		NodeID:    chi.URLParam(r, "nodeID"),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// UpdateNode handles PUT /sessions/{sessionID}/nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var req NodeRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	id := sessionID(r)
	h.sendAndRender(w, r, http.StatusOK, id, commands.UpdateNodeCommand{
		SessionID: id,
		NodeID:    chi.URLParam(r, "nodeID"),
		Label:     req.Label,
		Type:      req.Type,
		Key:       req.Key,
		BPM:       req.BPM,
		Section:   req.Section,
		Details:   req.Details,
	})
}

// DeleteNode handles DELETE /sessions/{sessionID}/nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	h.sendAndRender(w, r, http.StatusOK, id, commands.DeleteNodeCommand{
		SessionID: id,
		NodeID:    chi.URLParam(r, "nodeID"),
	})
}

// BulkDeleteNodes handles POST /sessions/{sessionID}/nodes/bulk-delete.
// Unknown ids are skipped.
func (h *NodeHandler) BulkDeleteNodes(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	id := sessionID(r)
	h.sendAndRender(w, r, http.StatusOK, id, commands.BulkDeleteNodesCommand{SessionID: id, NodeIDs: req.NodeIDs})
}

// MoveNodes handles POST /sessions/{sessionID}/positions
func (h *NodeHandler) MoveNodes(w http.ResponseWriter, r *http.Request) {
	var req MoveNodesRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	id := sessionID(r)
	h.sendAndRender(w, r, http.StatusOK, id, commands.MoveNodesCommand{SessionID: id, Positions: req.Positions})
}
