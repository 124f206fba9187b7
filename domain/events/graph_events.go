package events

import (
	"time"

	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
)

// Event type names.
const (
	TypeNodesAdded    = "graph.nodes_added"
	TypeNodeUpdated   = "graph.node_updated"
	TypeNodeRemoved   = "graph.node_removed"
	TypeNodesMoved    = "graph.nodes_moved"
	TypeEdgesAdded    = "graph.edges_added"
	TypeEdgeRemoved   = "graph.edge_removed"
	TypeGraphReplaced = "graph.replaced"
	TypeModeChanged   = "graph.mode_changed"
	TypeGraphCleared  = "graph.cleared"
	TypeBatchApplied  = "graph.batch_applied"
)

// Node Events

// NodesAdded appends nodes to the graph.
type NodesAdded struct {
	BaseEvent
	Nodes []entities.Node `json:"nodes"`
}

// NewNodesAdded creates a NodesAdded event
func NewNodesAdded(graphID string, version int, nodes []entities.Node, timestamp time.Time) NodesAdded {
	return NodesAdded{BaseEvent: newBase(graphID, TypeNodesAdded, version, timestamp), Nodes: nodes}
}

// NodeUpdated replaces a node's data record.
type NodeUpdated struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
	Data   entities.NodeData   `json:"data"`
}

// NewNodeUpdated creates a NodeUpdated event
func NewNodeUpdated(graphID string, version int, id valueobjects.NodeID, data entities.NodeData, timestamp time.Time) NodeUpdated {
	return NodeUpdated{BaseEvent: newBase(graphID, TypeNodeUpdated, version, timestamp), NodeID: id, Data: data}
}

// NodeRemoved deletes a node and every edge touching it.
type NodeRemoved struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
}

// NewNodeRemoved creates a NodeRemoved event
func NewNodeRemoved(graphID string, version int, id valueobjects.NodeID, timestamp time.Time) NodeRemoved {
	return NodeRemoved{BaseEvent: newBase(graphID, TypeNodeRemoved, version, timestamp), NodeID: id}
}

// NodesMoved records drag positions. It never changes the structure.
type NodesMoved struct {
	BaseEvent
	Positions map[valueobjects.NodeID]valueobjects.Position `json:"positions"`
}

// NewNodesMoved creates a NodesMoved event
func NewNodesMoved(graphID string, version int, positions map[valueobjects.NodeID]valueobjects.Position, timestamp time.Time) NodesMoved {
	return NodesMoved{BaseEvent: newBase(graphID, TypeNodesMoved, version, timestamp), Positions: positions}
}

// Edge Events

// EdgesAdded appends retained edges (manual or external).
type EdgesAdded struct {
	BaseEvent
	Edges []entities.Edge `json:"edges"`
}

// NewEdgesAdded creates an EdgesAdded event
func NewEdgesAdded(graphID string, version int, edges []entities.Edge, timestamp time.Time) EdgesAdded {
	return EdgesAdded{BaseEvent: newBase(graphID, TypeEdgesAdded, version, timestamp), Edges: edges}
}

// EdgeRemoved deletes a single edge.
type EdgeRemoved struct {
	BaseEvent
	EdgeID valueobjects.EdgeID `json:"edge_id"`
}

// NewEdgeRemoved creates an EdgeRemoved event
func NewEdgeRemoved(graphID string, version int, id valueobjects.EdgeID, timestamp time.Time) EdgeRemoved {
	return EdgeRemoved{BaseEvent: newBase(graphID, TypeEdgeRemoved, version, timestamp), EdgeID: id}
}

// Graph Events

// GraphReplaced swaps in a freshly parsed graph.
type GraphReplaced struct {
	BaseEvent
	Mode  valueobjects.GraphMode `json:"mode"`
	Nodes []entities.Node        `json:"nodes"`
	Edges []entities.Edge        `json:"edges"`
}

// NewGraphReplaced creates a GraphReplaced event
func NewGraphReplaced(graphID string, version int, mode valueobjects.GraphMode, nodes []entities.Node, edges []entities.Edge, timestamp time.Time) GraphReplaced {
	return GraphReplaced{BaseEvent: newBase(graphID, TypeGraphReplaced, version, timestamp), Mode: mode, Nodes: nodes, Edges: edges}
}

// ModeChanged switches between discovery and structure mode.
type ModeChanged struct {
	BaseEvent
	Mode valueobjects.GraphMode `json:"mode"`
}

// NewModeChanged creates a ModeChanged event
func NewModeChanged(graphID string, version int, mode valueobjects.GraphMode, timestamp time.Time) ModeChanged {
	return ModeChanged{BaseEvent: newBase(graphID, TypeModeChanged, version, timestamp), Mode: mode}
}

// GraphCleared empties the graph but keeps its mode.
type GraphCleared struct {
	BaseEvent
}

// NewGraphCleared creates a GraphCleared event
func NewGraphCleared(graphID string, version int, timestamp time.Time) GraphCleared {
	return GraphCleared{BaseEvent: newBase(graphID, TypeGraphCleared, version, timestamp)}
}

// BatchApplied carries the staged changes of one command batch so they land
// as a single new snapshot.
type BatchApplied struct {
	BaseEvent
	AddedNodes    []entities.Node       `json:"added_nodes,omitempty"`
	ReplacedNodes []entities.Node       `json:"replaced_nodes,omitempty"`
	AddedEdges    []entities.Edge       `json:"added_edges,omitempty"`
	RemovedNodes  []valueobjects.NodeID `json:"removed_nodes,omitempty"`
	RemovedEdges  []valueobjects.EdgeID `json:"removed_edges,omitempty"`
}

// NewBatchApplied creates an empty BatchApplied event
func NewBatchApplied(graphID string, version int, timestamp time.Time) *BatchApplied {
	return &BatchApplied{BaseEvent: newBase(graphID, TypeBatchApplied, version, timestamp)}
}

// IsEmpty reports whether the batch changes nothing.
func (b *BatchApplied) IsEmpty() bool {
	return len(b.AddedNodes) == 0 && len(b.ReplacedNodes) == 0 && len(b.AddedEdges) == 0 &&
		len(b.RemovedNodes) == 0 && len(b.RemovedEdges) == 0
}
