package ports

import (
	"context"
	"time"

	"jamflow/domain/core/aggregates"
)

// GraphRepository stores graph snapshots, one per session.
type GraphRepository interface {
	// Save stores graph if the stored snapshot is still at expectedVersion.
	// An expectedVersion of zero creates a new entry and fails when one
	// already exists.
	Save(ctx context.Context, graph *aggregates.Graph, expectedVersion int) error
	GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error)
	Delete(ctx context.Context, id aggregates.GraphID) error
	List(ctx context.Context) ([]*aggregates.Graph, error)
	Count(ctx context.Context) (int, error)
}

// Cache is a keyed store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
