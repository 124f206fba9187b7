package services

import (
	"jamflow/domain/config"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
)

// EdgeRecalculator derives the complete auto edge set of a discovery graph.
type EdgeRecalculator struct {
	engine  *CompatibilityEngine
	palette config.Palette
	width   float64
}

// NewEdgeRecalculator creates a recalculator on top of engine.
func NewEdgeRecalculator(engine *CompatibilityEngine, cfg *config.DomainConfig) *EdgeRecalculator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &EdgeRecalculator{engine: engine, palette: cfg.Palette, width: cfg.DefaultStroke}
}

// Recalculate evaluates every unordered pair of non-section nodes, in input
// order, and returns an edge for each compatible pair. Ids depend only on the
// pair, so repeated calls over the same nodes yield identical edges.
func (r *EdgeRecalculator) Recalculate(nodes []entities.Node) []entities.Edge {
	elements := make([]entities.Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.IsSection() {
			elements = append(elements, n)
		}
	}

	edges := make([]entities.Edge, 0)
	for i := 0; i < len(elements); i++ {
		for j := i + 1; j < len(elements); j++ {
			a, b := elements[i], elements[j]
			verdict := r.engine.Evaluate(a, b)
			if !verdict.Compatible {
				continue
			}
			edges = append(edges, r.edgeFor(a.ID, b.ID, verdict))
		}
	}
	return edges
}

func (r *EdgeRecalculator) edgeFor(a, b valueobjects.NodeID, v Verdict) entities.Edge {
	return entities.Edge{
		ID:       valueobjects.AutoEdgeID(a, b),
		Source:   a,
		Target:   b,
		Label:    v.Reason,
		Animated: v.Strength == valueobjects.StrengthHigh,
		Style:    r.StrengthStyle(v.Strength),
		Data: entities.EdgeData{
			Strength: v.Strength,
			Score:    v.Score,
			Origin:   entities.OriginAuto,
			Emphasis: entities.EmphasisNormal,
		},
	}
}

// StrengthStyle maps a strength to its stroke colour and width.
func (r *EdgeRecalculator) StrengthStyle(s valueobjects.Strength) valueobjects.EdgeStyle {
	switch s {
	case valueobjects.StrengthHigh:
		return valueobjects.EdgeStyle{Stroke: r.palette.High, StrokeWidth: r.width + 1}
	case valueobjects.StrengthMedium:
		return valueobjects.EdgeStyle{Stroke: r.palette.Medium, StrokeWidth: r.width}
	default:
		return valueobjects.EdgeStyle{Stroke: r.palette.Low, StrokeWidth: r.width}
	}
}
