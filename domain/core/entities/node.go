package entities

import (
	"strings"

	"jamflow/domain/core/valueobjects"
	pkgerrors "jamflow/pkg/errors"
)

// NodeData is the replaceable record of a musical element.
type NodeData struct {
	Label     string                   `json:"label"`
	Type      valueobjects.ElementType `json:"type"`
	Key       valueobjects.Key         `json:"key,omitempty"`
	BPM       valueobjects.BPM         `json:"bpm,omitempty"`
	Section   string                   `json:"section,omitempty"`
	IsSection bool                     `json:"isSection,omitempty"`
	Details   string                   `json:"details,omitempty"`
}

// Node is a musical element on the canvas. Nodes are values: every change
// produces a new Node and the snapshot holding the old one is left intact.
type Node struct {
	ID       valueobjects.NodeID   `json:"id"`
	Data     NodeData              `json:"data"`
	Position valueobjects.Position `json:"position"`
}

// NewNode creates a node after normalising and checking its data record.
func NewNode(id valueobjects.NodeID, data NodeData, position valueobjects.Position) (Node, error) {
	if id.IsZero() {
		return Node{}, pkgerrors.NewValidationError("node id cannot be empty")
	}
	normalized, err := data.normalize()
	if err != nil {
		return Node{}, err
	}
	return Node{ID: id, Data: normalized, Position: position}, nil
}

// WithData replaces the whole data record. The element type is fixed at
// creation, so a record with a different type is rejected.
func (n Node) WithData(data NodeData) (Node, error) {
	normalized, err := data.normalize()
	if err != nil {
		return Node{}, err
	}
	if normalized.Type != n.Data.Type {
		return Node{}, pkgerrors.NewValidationErrorf(
			"node %s: type is immutable (%s -> %s)", n.ID, n.Data.Type, normalized.Type)
	}
	n.Data = normalized
	return n, nil
}

// WithPosition returns a copy of the node at p.
func (n Node) WithPosition(p valueobjects.Position) Node {
	n.Position = p
	return n
}

// IsSection reports whether the node is a song-section container.
func (n Node) IsSection() bool {
	return n.Data.IsSection
}

// EquivalenceClass groups nodes that represent "the same thing" across
// sections: instruments by type, genre and mood nodes by label. Sections
// have no class.
func (n Node) EquivalenceClass() string {
	switch {
	case n.Data.IsSection:
		return ""
	case n.Data.Type == valueobjects.TypeGenre:
		return "label:" + strings.ToLower(n.Data.Label)
	default:
		return "type:" + string(n.Data.Type)
	}
}

func (d NodeData) normalize() (NodeData, error) {
	d.Label = strings.TrimSpace(d.Label)
	d.Section = strings.TrimSpace(d.Section)
	if d.Label == "" {
		return d, pkgerrors.NewValidationError("node label cannot be empty")
	}
	if !d.Type.IsValid() {
		return d, pkgerrors.NewValidationErrorf("unknown node type %q", d.Type)
	}
	if d.Type == valueobjects.TypeSection {
		d.IsSection = true
	}
	if d.IsSection && d.Type != valueobjects.TypeSection {
		return d, pkgerrors.NewValidationError("only section nodes may be marked as sections")
	}
	if !d.Key.IsZero() {
		key, err := valueobjects.ParseKey(string(d.Key))
		if err != nil {
			return d, pkgerrors.NewValidationError(err.Error())
		}
		d.Key = key
	}
	if d.BPM < 0 {
		return d, pkgerrors.NewValidationErrorf("bpm must be positive, got %d", d.BPM)
	}
	return d, nil
}
