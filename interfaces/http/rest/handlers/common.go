// Package handlers implements the REST endpoints of a jam session.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jamflow/application/commands/bus"
	"jamflow/application/queries"
	querybus "jamflow/application/queries/bus"
	"jamflow/pkg/errors"
	"jamflow/pkg/utils"
)

// maxBodyBytes bounds request bodies; transcripts are the largest payload.
const maxBodyBytes = 1 << 20

// base carries what every handler needs.
type base struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *errors.ErrorHandler
	logger     *zap.Logger
}

func newBase(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *errors.ErrorHandler, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errorHandler == nil {
		errorHandler = errors.NewErrorHandler(logger, false)
	}
	return base{commandBus: commandBus, queryBus: queryBus, errors: errorHandler, logger: logger}
}

// sessionID returns the {sessionID} path parameter.
func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// decode reads a JSON body into v and validates it. An empty body decodes
// to the zero value.
func (b base) decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return errors.NewValidationError("invalid request body: " + err.Error())
	}
	return utils.ValidateStruct(v)
}

func (b base) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (b base) respondError(w http.ResponseWriter, r *http.Request, err error) {
	b.errors.Handle(w, r, err)
}

// graphView reads the current snapshot of a session.
func (b base) graphView(r *http.Request, id string) (*queries.GraphView, error) {
	result, err := b.queryBus.Ask(r.Context(), queries.GetGraphQuery{SessionID: id})
	if err != nil {
		return nil, err
	}
	return result.(*queries.GraphView), nil
}

// sendAndRender sends cmd and responds with the resulting snapshot.
func (b base) sendAndRender(w http.ResponseWriter, r *http.Request, status int, id string, cmd bus.Command) {
	if err := b.commandBus.Send(r.Context(), cmd); err != nil {
		b.respondError(w, r, err)
		return
	}
	view, err := b.graphView(r, id)
	if err != nil {
		b.respondError(w, r, err)
		return
	}
	b.respondJSON(w, status, view)
}
