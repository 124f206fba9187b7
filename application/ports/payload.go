package ports

import (
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
)

// GraphPayload is the graph as collaborators see it.
type GraphPayload struct {
	Nodes []entities.Node `json:"nodes"`
	Edges []entities.Edge `json:"edges"`
}

// NewGraphPayload renders a snapshot for the wire. A nil graph yields an
// empty payload with non-nil slices.
func NewGraphPayload(g *aggregates.Graph) GraphPayload {
	if g == nil {
		return GraphPayload{Nodes: []entities.Node{}, Edges: []entities.Edge{}}
	}
	return GraphPayload{Nodes: g.Nodes(), Edges: g.Edges()}
}

// IsEmpty reports whether the payload has no nodes.
func (p GraphPayload) IsEmpty() bool {
	return len(p.Nodes) == 0
}
