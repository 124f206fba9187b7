package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"jamflow/domain/config"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
	"jamflow/domain/events"
	domainservices "jamflow/domain/services"
	"jamflow/pkg/errors"
)

// DefaultEdgeLabel labels user-drawn edges created without a label.
const DefaultEdgeLabel = "Connection"

// EdgeInput describes an edge drawn directly by the user.
type EdgeInput struct {
	Source   string
	Target   string
	Label    string
	Relation string
}

// EdgeService manages user-drawn edges. It shares the session locks of the
// SessionService it wraps.
type EdgeService struct {
	sessions *SessionService
	styler   *domainservices.EdgeStyler
	cfg      *config.DomainConfig
	logger   *zap.Logger
}

// NewEdgeService creates a new edge service
func NewEdgeService(
	sessions *SessionService,
	styler *domainservices.EdgeStyler,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *EdgeService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EdgeService{
		sessions: sessions,
		styler:   styler,
		cfg:      cfg,
		logger:   logger,
	}
}

// AddEdge connects two existing nodes. With a relation the edge is directed
// and styled like a proposed edge of that relation; without one it is a
// plain undirected connection.
func (s *EdgeService) AddEdge(ctx context.Context, id aggregates.GraphID, in EdgeInput) (entities.Edge, *aggregates.Graph, error) {
	source, err := valueobjects.ParseNodeID(in.Source)
	if err != nil {
		return entities.Edge{}, nil, errors.NewValidationError(err.Error())
	}
	target, err := valueobjects.ParseNodeID(in.Target)
	if err != nil {
		return entities.Edge{}, nil, errors.NewValidationError(err.Error())
	}
	if source == target && !s.cfg.AllowSelfConnections {
		return entities.Edge{}, nil, errors.NewValidationError("self-connections are not allowed")
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = DefaultEdgeLabel
	}

	edge, err := entities.NewEdge(valueobjects.NewManualEdgeID(source, target), source, target, label)
	if err != nil {
		return entities.Edge{}, nil, err
	}
	edge.Style = valueobjects.EdgeStyle{Stroke: s.cfg.Palette.Default, StrokeWidth: s.cfg.DefaultStroke}
	edge.Data.Origin = entities.OriginManual

	if in.Relation != "" {
		rel, ok := valueobjects.ParseRelation(in.Relation)
		if !ok {
			return entities.Edge{}, nil, errors.NewValidationErrorf("unknown relation %q", in.Relation)
		}
		style, animated := s.styler.RelationStyle(rel)
		edge.Style = style
		edge.Animated = animated
		edge.Directed = true
		edge.Data.Relation = rel
	}

	g, err := s.sessions.mutate(ctx, id, func(g *aggregates.Graph) (events.DomainEvent, error) {
		for _, n := range []valueobjects.NodeID{source, target} {
			if !g.HasNode(n) {
				return nil, errors.NewNotFoundError("node " + n.String())
			}
		}
		return events.NewEdgesAdded(id.String(), g.Version(), []entities.Edge{edge}, s.sessions.clock()), nil
	})
	if err != nil {
		return entities.Edge{}, nil, err
	}
	if stored, ok := g.Edge(edge.ID); ok {
		edge = stored
	}

	s.logger.Info("Edge added",
		zap.String("sessionID", id.String()),
		zap.String("edgeID", edge.ID.String()),
		zap.String("source", source.String()),
		zap.String("target", target.String()),
	)
	return edge, g, nil
}

// DeleteEdge removes an edge of any origin.
func (s *EdgeService) DeleteEdge(ctx context.Context, id aggregates.GraphID, edgeID valueobjects.EdgeID) (*aggregates.Graph, error) {
	if edgeID.IsZero() {
		return nil, errors.NewValidationError("edge id cannot be empty")
	}
	return s.sessions.mutate(ctx, id, func(g *aggregates.Graph) (events.DomainEvent, error) {
		return events.NewEdgeRemoved(id.String(), g.Version(), edgeID, s.sessions.clock()), nil
	})
}
