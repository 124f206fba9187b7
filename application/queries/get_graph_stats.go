package queries

import "jamflow/pkg/utils"

// GetGraphStatsQuery asks for summary figures of a session graph.
type GetGraphStatsQuery struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Validate validates the query
func (q GetGraphStatsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GraphStats summarises a rendered graph.
type GraphStats struct {
	NodeCount    int            `json:"node_count"`
	EdgeCount    int            `json:"edge_count"`
	ClusterCount int            `json:"cluster_count"`
	Density      float64        `json:"density"`
	Sections     []string       `json:"sections"`
	ByType       map[string]int `json:"by_type"`
	ByRelation   map[string]int `json:"by_relation"`
	DashedEdges  int            `json:"dashed_edges"`
	AverageBPM   int            `json:"average_bpm,omitempty"`
}
