package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamflow/application/queries"
	"jamflow/domain/config"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/validators"
	"jamflow/domain/core/valueobjects"
	"jamflow/domain/events"
	domainservices "jamflow/domain/services"
	"jamflow/infrastructure/persistence/memory"
	"jamflow/pkg/utils"
)

func node(t *testing.T, id, label string, typ valueobjects.ElementType, section string, bpm int) entities.Node {
	t.Helper()
	n, err := entities.NewNode(valueobjects.NodeID(id), entities.NodeData{
		Label: label, Type: typ, Section: section, BPM: valueobjects.BPM(bpm),
	}, valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	return n
}

func edge(t *testing.T, id, source, target string, rel valueobjects.Relation) entities.Edge {
	t.Helper()
	e, err := entities.NewEdge(valueobjects.EdgeID(id), valueobjects.NodeID(source), valueobjects.NodeID(target), string(rel))
	require.NoError(t, err)
	e.Data.Relation = rel
	return e
}

func TestGetGraphStatsHandler(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()
	styler := domainservices.NewEdgeStyler(cfg)
	reducer := aggregates.NewReducer(cfg,
		domainservices.NewEdgeRecalculator(domainservices.NewCompatibilityEngine(cfg), cfg),
		styler, validators.NewNodeValidator(cfg))
	repo := memory.NewGraphRepository(nil)
	now := utils.SystemClock()

	g := aggregates.NewGraph("jam", valueobjects.ModeStructure, now)
	require.NoError(t, repo.Save(ctx, g, 0))

	nodes := []entities.Node{
		node(t, "verse", "Verse", valueobjects.TypeSection, "", 0),
		node(t, "chorus", "Chorus", valueobjects.TypeSection, "", 0),
		node(t, "drums-v", "Drums", valueobjects.TypeDrum, "Verse", 100),
		node(t, "bass-c", "Bass", valueobjects.TypeBassline, "Chorus", 140),
		node(t, "lonely", "Pad", valueobjects.TypeChord, "", 0),
	}
	edges := []entities.Edge{
		edge(t, "e1", "verse", "chorus", valueobjects.RelationNext),
		edge(t, "e2", "verse", "drums-v", valueobjects.RelationHas),
		edge(t, "e3", "chorus", "bass-c", valueobjects.RelationHas),
		edge(t, "e4", "drums-v", "bass-c", valueobjects.RelationBlendsWith),
	}
	next, err := reducer.Reduce(g, events.NewGraphReplaced("jam", g.Version(), valueobjects.ModeStructure, nodes, edges, now))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, next, g.Version()))

	h := NewGetGraphStatsHandler(repo, nil)

	// Act
	stats, err := h.Handle(ctx, queries.GetGraphStatsQuery{SessionID: "jam"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 5, stats.NodeCount)
	assert.Equal(t, 4, stats.EdgeCount)
	assert.Equal(t, 2, stats.ClusterCount)
	assert.InDelta(t, 0.4, stats.Density, 1e-9)
	assert.Equal(t, []string{"Verse", "Chorus"}, stats.Sections)
	assert.Equal(t, 1, stats.ByType["drum"])
	assert.Equal(t, 2, stats.ByType["section"])
	assert.Equal(t, 2, stats.ByRelation["has"])
	assert.Equal(t, 1, stats.DashedEdges)
	assert.Equal(t, 120, stats.AverageBPM)
}

func TestCountClusters_Isolated(t *testing.T) {
	nodes := []entities.Node{
		node(t, "a", "A", valueobjects.TypeSynth, "", 0),
		node(t, "b", "B", valueobjects.TypeSynth, "", 0),
	}

	assert.Equal(t, 2, countClusters(nodes, nil))
	assert.Equal(t, 0, countClusters(nil, nil))
}
