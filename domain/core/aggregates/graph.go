package aggregates

import (
	"time"

	"github.com/google/uuid"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
	"jamflow/domain/versioning"
)

// GraphID represents a unique graph identifier
type GraphID string

// NewGraphID creates a new random GraphID
func NewGraphID() GraphID {
	return GraphID(uuid.New().String())
}

// String returns the string representation
func (id GraphID) String() string {
	return string(id)
}

// Graph is an immutable snapshot of a jam session's canvas. Every change is
// made by the Reducer, which returns a new snapshot; readers holding an old
// one keep a consistent view.
type Graph struct {
	id              GraphID
	version         int
	mode            valueobjects.GraphMode
	nodes           []entities.Node
	autoEdges       []entities.Edge
	manualEdges     []entities.Edge
	signature       string
	styleGeneration int
	pinned          map[valueobjects.NodeID]valueobjects.Position
	createdAt       time.Time
	updatedAt       time.Time
}

// NewGraph creates an empty graph in the given mode.
func NewGraph(id GraphID, mode valueobjects.GraphMode, now time.Time) *Graph {
	if id == "" {
		id = NewGraphID()
	}
	if mode == "" {
		mode = valueobjects.ModeDiscovery
	}
	return &Graph{
		id:          id,
		version:     1,
		mode:        mode,
		nodes:       []entities.Node{},
		autoEdges:   []entities.Edge{},
		manualEdges: []entities.Edge{},
		signature:   versioning.StructuralSignature(nil),
		pinned:      map[valueobjects.NodeID]valueobjects.Position{},
		createdAt:   now,
		updatedAt:   now,
	}
}

// Getters

func (g *Graph) ID() GraphID                  { return g.id }
func (g *Graph) Version() int                 { return g.version }
func (g *Graph) Mode() valueobjects.GraphMode { return g.mode }
func (g *Graph) Signature() string            { return g.signature }
func (g *Graph) StyleGeneration() int         { return g.styleGeneration }
func (g *Graph) CreatedAt() time.Time         { return g.createdAt }
func (g *Graph) UpdatedAt() time.Time         { return g.updatedAt }
func (g *Graph) NodeCount() int               { return len(g.nodes) }

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []entities.Node {
	return append([]entities.Node(nil), g.nodes...)
}

// Node looks a node up by id.
func (g *Graph) Node(id valueobjects.NodeID) (entities.Node, bool) {
	for _, n := range g.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return entities.Node{}, false
}

// HasNode reports whether id is present.
func (g *Graph) HasNode(id valueobjects.NodeID) bool {
	_, ok := g.Node(id)
	return ok
}

// AutoEdges returns the derived (discovery) or parsed (structure) edges.
func (g *Graph) AutoEdges() []entities.Edge {
	return append([]entities.Edge(nil), g.autoEdges...)
}

// ManualEdges returns the edges added by users and external commands.
func (g *Graph) ManualEdges() []entities.Edge {
	return append([]entities.Edge(nil), g.manualEdges...)
}

// Edges returns the rendered edge set: auto edges first, then manual ones,
// first occurrence winning on id, dangling edges dropped.
func (g *Graph) Edges() []entities.Edge {
	index := entities.IndexNodes(g.nodes)
	seen := make(map[valueobjects.EdgeID]bool, len(g.autoEdges)+len(g.manualEdges))
	out := make([]entities.Edge, 0, len(g.autoEdges)+len(g.manualEdges))
	for _, set := range [][]entities.Edge{g.autoEdges, g.manualEdges} {
		for _, e := range set {
			if seen[e.ID] || !e.ResolvesIn(index) {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out
}

// Edge looks a rendered edge up by id.
func (g *Graph) Edge(id valueobjects.EdgeID) (entities.Edge, bool) {
	for _, e := range g.Edges() {
		if e.ID == id {
			return e, true
		}
	}
	return entities.Edge{}, false
}

// IsPinned reports whether the node was placed by a drag.
func (g *Graph) IsPinned(id valueobjects.NodeID) bool {
	_, ok := g.pinned[id]
	return ok
}

// Checksum returns a content hash of the rendered graph.
func (g *Graph) Checksum() (string, error) {
	return versioning.Checksum(g.nodes, g.Edges())
}

// clone copies the snapshot so the reducer can build the next one. Slices
// and the pin map are copied; entities are values.
func (g *Graph) clone() *Graph {
	next := *g
	next.nodes = append([]entities.Node{}, g.nodes...)
	next.autoEdges = append([]entities.Edge{}, g.autoEdges...)
	next.manualEdges = append([]entities.Edge{}, g.manualEdges...)
	next.pinned = make(map[valueobjects.NodeID]valueobjects.Position, len(g.pinned))
	for id, p := range g.pinned {
		next.pinned[id] = p
	}
	return &next
}

func (g *Graph) nodeIndex(id valueobjects.NodeID) int {
	for i, n := range g.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
