package entities

import (
	"jamflow/domain/core/valueobjects"
	pkgerrors "jamflow/pkg/errors"
)

// Origin records which part of the system produced an edge.
type Origin string

const (
	// OriginAuto edges are derived by compatibility recalculation and are
	// thrown away whenever the node set changes.
	OriginAuto      Origin = "auto"
	OriginStructure Origin = "structure"
	OriginExternal  Origin = "external"
	OriginManual    Origin = "manual"
)

// Emphasis distinguishes song-level links drawn in a subdued style.
type Emphasis string

const (
	EmphasisNormal Emphasis = "normal"
	EmphasisLow    Emphasis = "low"
)

// EdgeData holds the semantic attributes of an edge.
type EdgeData struct {
	Relation valueobjects.Relation `json:"relation,omitempty"`
	Strength valueobjects.Strength `json:"strength,omitempty"`
	Score    int                   `json:"score,omitempty"`
	Origin   Origin                `json:"origin,omitempty"`
	Emphasis Emphasis              `json:"emphasis,omitempty"`
}

// Edge is a relationship between two nodes.
type Edge struct {
	ID       valueobjects.EdgeID    `json:"id"`
	Source   valueobjects.NodeID    `json:"source"`
	Target   valueobjects.NodeID    `json:"target"`
	Label    string                 `json:"label,omitempty"`
	Directed bool                   `json:"directed,omitempty"`
	Animated bool                   `json:"animated,omitempty"`
	Style    valueobjects.EdgeStyle `json:"style"`
	Data     EdgeData               `json:"data"`
}

// NewEdge creates an edge with the mandatory identity fields checked.
func NewEdge(id valueobjects.EdgeID, source, target valueobjects.NodeID, label string) (Edge, error) {
	if id.IsZero() {
		return Edge{}, pkgerrors.NewValidationError("edge id cannot be empty")
	}
	if source.IsZero() || target.IsZero() {
		return Edge{}, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	return Edge{ID: id, Source: source, Target: target, Label: label}, nil
}

// Touches reports whether id is one of the edge's endpoints.
func (e Edge) Touches(id valueobjects.NodeID) bool {
	return e.Source == id || e.Target == id
}

// Connects reports whether the edge runs from source to target.
func (e Edge) Connects(source, target valueobjects.NodeID) bool {
	return e.Source == source && e.Target == target
}

// IsUserDrawn reports whether the edge was added by a user or a command
// source rather than derived from the nodes. Only these count against the
// graph's edge limit.
func (e Edge) IsUserDrawn() bool {
	return e.Data.Origin == OriginManual || e.Data.Origin == OriginExternal
}

// IsLowEmphasis reports whether the edge is a subdued song-level link.
func (e Edge) IsLowEmphasis() bool {
	return e.Data.Emphasis == EmphasisLow
}

// ResolvesIn reports whether both endpoints exist in the lookup.
func (e Edge) ResolvesIn(nodes map[valueobjects.NodeID]Node) bool {
	_, okS := nodes[e.Source]
	_, okT := nodes[e.Target]
	return okS && okT
}

// IndexNodes builds an id lookup over nodes.
func IndexNodes(nodes []Node) map[valueobjects.NodeID]Node {
	index := make(map[valueobjects.NodeID]Node, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n
	}
	return index
}
