// Package memory keeps session graphs in process memory. Snapshots are
// immutable, so the repository stores and hands out the same pointers.
package memory

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"jamflow/domain/core/aggregates"
	"jamflow/pkg/errors"
)

// GraphRepository is an in-memory ports.GraphRepository with optimistic
// version checks.
type GraphRepository struct {
	mu     sync.RWMutex
	graphs map[aggregates.GraphID]*aggregates.Graph
	logger *zap.Logger
}

// NewGraphRepository creates an empty repository.
func NewGraphRepository(logger *zap.Logger) *GraphRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphRepository{
		graphs: make(map[aggregates.GraphID]*aggregates.Graph),
		logger: logger,
	}
}

// Save stores graph when the stored version still equals expectedVersion.
func (r *GraphRepository) Save(ctx context.Context, graph *aggregates.Graph, expectedVersion int) error {
	if graph == nil {
		return errors.NewValidationError("graph is required")
	}
	if err := ctx.Err(); err != nil {
		return errors.NewTimeoutError("save graph").WithCause(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.graphs[graph.ID()]
	switch {
	case expectedVersion == 0 && exists:
		return errors.NewConflictError("session " + graph.ID().String() + " already exists")
	case expectedVersion != 0 && !exists:
		return errors.NewNotFoundError("session " + graph.ID().String())
	case exists && current.Version() != expectedVersion:
		return errors.NewConflictError("graph was modified concurrently").
			WithDetail("expected_version", expectedVersion).
			WithDetail("actual_version", current.Version())
	}

	r.graphs[graph.ID()] = graph
	r.logger.Debug("Graph saved",
		zap.String("graphID", graph.ID().String()),
		zap.Int("version", graph.Version()),
	)
	return nil
}

// GetByID returns the current snapshot of a session.
func (r *GraphRepository) GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.graphs[id]
	if !ok {
		return nil, errors.NewNotFoundError("session " + id.String())
	}
	return g, nil
}

// Delete removes a session.
func (r *GraphRepository) Delete(ctx context.Context, id aggregates.GraphID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.graphs[id]; !ok {
		return errors.NewNotFoundError("session " + id.String())
	}
	delete(r.graphs, id)

	r.logger.Debug("Graph deleted", zap.String("graphID", id.String()))
	return nil
}

// List returns all sessions, oldest first.
func (r *GraphRepository) List(ctx context.Context) ([]*aggregates.Graph, error) {
	r.mu.RLock()
	out := make([]*aggregates.Graph, 0, len(r.graphs))
	for _, g := range r.graphs {
		out = append(out, g)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

// Count returns the number of stored sessions.
func (r *GraphRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.graphs), nil
}
