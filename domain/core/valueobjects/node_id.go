package valueobjects

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeID identifies a node within a graph snapshot.
type NodeID string

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID("node-" + uuid.New().String())
}

// ParseNodeID validates a caller supplied identifier.
func ParseNodeID(raw string) (NodeID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("node id cannot be empty")
	}
	if strings.ContainsAny(id, " \t\n") {
		return "", fmt.Errorf("node id %q must not contain whitespace", raw)
	}
	return NodeID(id), nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return string(id)
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id == ""
}

// EdgeID identifies an edge within a graph snapshot.
type EdgeID string

// AutoEdgeID is the deterministic id of a derived edge between a and b.
func AutoEdgeID(a, b NodeID) EdgeID {
	return EdgeID(fmt.Sprintf("edge-%s-%s", a, b))
}

// NewManualEdgeID creates a random id for a user-drawn edge.
func NewManualEdgeID(source, target NodeID) EdgeID {
	return EdgeID(fmt.Sprintf("edge-%s-%s-%s", source, target, uuid.New().String()[:8]))
}

// String returns the string representation of the EdgeID
func (id EdgeID) String() string {
	return string(id)
}

// IsZero checks if the EdgeID is the zero value
func (id EdgeID) IsZero() bool {
	return id == ""
}
