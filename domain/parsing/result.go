// Package parsing turns free-form spoken descriptions of music into graph
// fragments. Both strategies are pure: the same transcript always yields the
// same nodes and edges, and bad input yields an empty result.
package parsing

import (
	"jamflow/domain/core/entities"
)

// Result is the graph fragment produced from one transcript.
type Result struct {
	Nodes []entities.Node `json:"nodes"`
	Edges []entities.Edge `json:"edges"`
}

// IsEmpty reports whether nothing was recognised.
func (r Result) IsEmpty() bool {
	return len(r.Nodes) == 0
}

// SectionCount returns the number of section containers in the result.
func (r Result) SectionCount() int {
	n := 0
	for _, node := range r.Nodes {
		if node.IsSection() {
			n++
		}
	}
	return n
}

func emptyResult() Result {
	return Result{Nodes: []entities.Node{}, Edges: []entities.Edge{}}
}
