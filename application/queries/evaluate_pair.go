package queries

import (
	"context"

	"jamflow/application/ports"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
	domainservices "jamflow/domain/services"
	"jamflow/pkg/errors"
	"jamflow/pkg/utils"
)

// EvaluatePairQuery asks how well two nodes of a session fit together.
type EvaluatePairQuery struct {
	SessionID string `json:"session_id" validate:"required"`
	A         string `json:"a" validate:"required"`
	B         string `json:"b" validate:"required,nefield=A"`
}

// Validate validates the query
func (q EvaluatePairQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// EvaluatePairResult is the verdict for an ordered pair.
type EvaluatePairResult struct {
	A       string                 `json:"a"`
	B       string                 `json:"b"`
	Verdict domainservices.Verdict `json:"verdict"`
}

// EvaluatePairHandler runs the compatibility engine on two stored nodes.
type EvaluatePairHandler struct {
	graphRepo ports.GraphRepository
	engine    *domainservices.CompatibilityEngine
}

// NewEvaluatePairHandler creates a new handler instance
func NewEvaluatePairHandler(graphRepo ports.GraphRepository, engine *domainservices.CompatibilityEngine) *EvaluatePairHandler {
	return &EvaluatePairHandler{graphRepo: graphRepo, engine: engine}
}

// Handle executes the evaluate pair query
func (h *EvaluatePairHandler) Handle(ctx context.Context, query EvaluatePairQuery) (*EvaluatePairResult, error) {
	g, err := h.graphRepo.GetByID(ctx, aggregates.GraphID(query.SessionID))
	if err != nil {
		return nil, err
	}
	a, err := lookup(g, query.A)
	if err != nil {
		return nil, err
	}
	b, err := lookup(g, query.B)
	if err != nil {
		return nil, err
	}

	verdict := h.engine.Evaluate(a, b)
	if verdict.Reasons == nil {
		verdict.Reasons = []string{}
	}
	return &EvaluatePairResult{A: query.A, B: query.B, Verdict: verdict}, nil
}

func lookup(g *aggregates.Graph, raw string) (entities.Node, error) {
	n, ok := g.Node(valueobjects.NodeID(raw))
	if !ok {
		return entities.Node{}, errors.NewNotFoundError("node " + raw)
	}
	return n, nil
}
