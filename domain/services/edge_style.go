package services

import (
	"jamflow/domain/config"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
)

// EdgeStyler decides how edges are drawn. Edges that cut across song
// sections are dashed.
type EdgeStyler struct {
	cfg *config.DomainConfig
}

// NewEdgeStyler creates a styler.
func NewEdgeStyler(cfg *config.DomainConfig) *EdgeStyler {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &EdgeStyler{cfg: cfg}
}

// StyleContext is a prepared view over a node set, reusable across edges.
type StyleContext struct {
	index    map[valueobjects.NodeID]entities.Node
	sections map[string]map[string]struct{}
}

// NewStyleContext indexes nodes by id and records, for each equivalence
// class, the sections it appears under.
func NewStyleContext(nodes []entities.Node) StyleContext {
	ctx := StyleContext{
		index:    entities.IndexNodes(nodes),
		sections: make(map[string]map[string]struct{}),
	}
	for _, n := range nodes {
		class := n.EquivalenceClass()
		if class == "" || n.Data.Section == "" {
			continue
		}
		if ctx.sections[class] == nil {
			ctx.sections[class] = make(map[string]struct{})
		}
		ctx.sections[class][n.Data.Section] = struct{}{}
	}
	return ctx
}

// recursAcrossSections reports whether n's class appears under a section
// other than n's own.
func (c StyleContext) recursAcrossSections(n entities.Node) bool {
	if n.Data.Section == "" {
		return false
	}
	for section := range c.sections[n.EquivalenceClass()] {
		if section != n.Data.Section {
			return true
		}
	}
	return false
}

// ShouldDash applies the cross-section rules to an edge.
func (c StyleContext) ShouldDash(edge entities.Edge) bool {
	source, okS := c.index[edge.Source]
	target, okT := c.index[edge.Target]
	if !okS || !okT {
		return false
	}

	switch {
	case source.IsSection():
		return c.recursAcrossSections(target)
	case target.IsSection():
		return c.recursAcrossSections(source)
	case source.Data.Section != "" && target.Data.Section != "":
		return source.Data.Section != target.Data.Section
	default:
		return source.Data.Type != "" && source.Data.Type == target.Data.Type
	}
}

// Style computes the style of edge against a prepared context. Stroke, width
// and opacity are kept from the edge; the dash pattern is recomputed.
func (s *EdgeStyler) Style(ctx StyleContext, edge entities.Edge) valueobjects.EdgeStyle {
	out := valueobjects.EdgeStyle{
		Stroke:      edge.Style.Stroke,
		StrokeWidth: edge.Style.StrokeWidth,
		Opacity:     edge.Style.Opacity,
	}
	if out.Stroke == "" {
		out.Stroke = s.cfg.Palette.Default
	}
	if out.StrokeWidth == 0 {
		out.StrokeWidth = s.cfg.DefaultStroke
	}

	switch {
	case ctx.ShouldDash(edge):
		out.StrokeDasharray = s.cfg.CrossSectionDash
	case edge.IsLowEmphasis():
		out.StrokeDasharray = s.cfg.LowEmphasisDash
	}
	return out
}

// StyleEdge styles a single edge against nodes.
func (s *EdgeStyler) StyleEdge(edge entities.Edge, nodes []entities.Node) entities.Edge {
	edge.Style = s.Style(NewStyleContext(nodes), edge)
	return edge
}

// Restyle returns copies of edges with styles recomputed against nodes.
func (s *EdgeStyler) Restyle(edges []entities.Edge, nodes []entities.Node) []entities.Edge {
	ctx := NewStyleContext(nodes)
	out := make([]entities.Edge, len(edges))
	for i, e := range edges {
		e.Style = s.Style(ctx, e)
		out[i] = e
	}
	return out
}

// RelationStyle is the style of a directed edge proposed with a relation
// tag. Unknown relations fall back to the "next" style.
func (s *EdgeStyler) RelationStyle(rel valueobjects.Relation) (valueobjects.EdgeStyle, bool) {
	p := s.cfg.Palette
	w := s.cfg.DefaultStroke
	switch rel {
	case valueobjects.RelationHas:
		return valueobjects.EdgeStyle{Stroke: p.Has, StrokeWidth: w}, false
	case valueobjects.RelationBlendsWith:
		return valueobjects.EdgeStyle{Stroke: p.BlendsWith, StrokeWidth: w}, true
	case valueobjects.RelationSupports:
		return valueobjects.EdgeStyle{Stroke: p.Supports, StrokeWidth: w}, false
	case valueobjects.RelationInfluences:
		return valueobjects.EdgeStyle{Stroke: p.Influences, StrokeWidth: w}, false
	default:
		return valueobjects.EdgeStyle{Stroke: p.Next, StrokeWidth: w + 1}, true
	}
}
