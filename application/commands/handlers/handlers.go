// Package handlers binds the session commands to the services that carry
// them out.
package handlers

import (
	"context"

	"jamflow/application/dispatch"
	"jamflow/application/services"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
)

// Sessions is the part of the session service the handlers drive.
type Sessions interface {
	CreateSession(ctx context.Context, id aggregates.GraphID, mode valueobjects.GraphMode) (*aggregates.Graph, error)
	DeleteSession(ctx context.Context, id aggregates.GraphID) error
	SetMode(ctx context.Context, id aggregates.GraphID, mode valueobjects.GraphMode) (*aggregates.Graph, error)
	Clear(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error)
	AddNode(ctx context.Context, id aggregates.GraphID, in services.NodeInput) (entities.Node, *aggregates.Graph, error)
	UpdateNode(ctx context.Context, id aggregates.GraphID, nodeID valueobjects.NodeID, data entities.NodeData) (*aggregates.Graph, error)
	DeleteNode(ctx context.Context, id aggregates.GraphID, nodeID valueobjects.NodeID) (*aggregates.Graph, error)
	MoveNodes(ctx context.Context, id aggregates.GraphID, positions map[valueobjects.NodeID]valueobjects.Position) (*aggregates.Graph, error)
	ApplyCommands(ctx context.Context, id aggregates.GraphID, commands []dispatch.Command) (*services.BatchOutcome, error)
}

// Edges is the part of the edge service the handlers drive.
type Edges interface {
	AddEdge(ctx context.Context, id aggregates.GraphID, in services.EdgeInput) (entities.Edge, *aggregates.Graph, error)
	DeleteEdge(ctx context.Context, id aggregates.GraphID, edgeID valueobjects.EdgeID) (*aggregates.Graph, error)
}
