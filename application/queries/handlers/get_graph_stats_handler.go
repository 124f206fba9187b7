package handlers

import (
	"context"

	"go.uber.org/zap"

	"jamflow/application/ports"
	"jamflow/application/queries"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
)

// GetGraphStatsHandler computes summary figures of a session graph
type GetGraphStatsHandler struct {
	graphRepo ports.GraphRepository
	logger    *zap.Logger
}

// NewGetGraphStatsHandler creates a new graph stats handler
func NewGetGraphStatsHandler(graphRepo ports.GraphRepository, logger *zap.Logger) *GetGraphStatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GetGraphStatsHandler{graphRepo: graphRepo, logger: logger}
}

// Handle executes the graph stats query
func (h *GetGraphStatsHandler) Handle(ctx context.Context, query queries.GetGraphStatsQuery) (*queries.GraphStats, error) {
	g, err := h.graphRepo.GetByID(ctx, aggregates.GraphID(query.SessionID))
	if err != nil {
		return nil, err
	}
	nodes := g.Nodes()
	edges := g.Edges()

	stats := &queries.GraphStats{
		NodeCount:  len(nodes),
		EdgeCount:  len(edges),
		Sections:   make([]string, 0),
		ByType:     make(map[string]int),
		ByRelation: make(map[string]int),
	}

	bpmTotal, bpmCount := 0, 0
	for _, n := range nodes {
		stats.ByType[n.Data.Type.String()]++
		if n.IsSection() {
			stats.Sections = append(stats.Sections, n.Data.Label)
		}
		if !n.Data.BPM.IsZero() {
			bpmTotal += n.Data.BPM.Int()
			bpmCount++
		}
	}
	if bpmCount > 0 {
		stats.AverageBPM = bpmTotal / bpmCount
	}

	for _, e := range edges {
		rel := string(e.Data.Relation)
		if rel == "" {
			rel = string(e.Data.Origin)
		}
		stats.ByRelation[rel]++
		if e.Style.IsDashed() {
			stats.DashedEdges++
		}
	}

	// Density of the undirected simple graph
	if len(nodes) > 1 {
		maxPossibleEdges := len(nodes) * (len(nodes) - 1) / 2
		stats.Density = float64(len(edges)) / float64(maxPossibleEdges)
	}
	stats.ClusterCount = countClusters(nodes, edges)

	h.logger.Debug("Graph stats computed",
		zap.String("sessionID", query.SessionID),
		zap.Int("nodeCount", stats.NodeCount),
		zap.Int("edgeCount", stats.EdgeCount),
		zap.Int("clusters", stats.ClusterCount),
	)
	return stats, nil
}

// countClusters counts connected components, treating edges as undirected.
func countClusters(nodes []entities.Node, edges []entities.Edge) int {
	parent := make(map[valueobjects.NodeID]valueobjects.NodeID, len(nodes))
	for _, n := range nodes {
		parent[n.ID] = n.ID
	}
	find := func(id valueobjects.NodeID) valueobjects.NodeID {
		for parent[id] != id {
			parent[id] = parent[parent[id]]
			id = parent[id]
		}
		return id
	}

	clusters := len(nodes)
	for _, e := range edges {
		a, b := find(e.Source), find(e.Target)
		if a != b {
			parent[a] = b
			clusters--
		}
	}
	return clusters
}
