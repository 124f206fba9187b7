package services

import (
	"testing"

	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeRecalculator_IsIdempotent(t *testing.T) {
	// Arrange
	recalculator := NewEdgeRecalculator(NewCompatibilityEngine(nil), nil)
	nodes := []entities.Node{
		element(t, "n1", valueobjects.TypeBassline, "C", 140),
		element(t, "n2", valueobjects.TypeDrum, "", 140),
		element(t, "n3", valueobjects.TypeMelody, "C", 0),
		element(t, "n4", valueobjects.TypeGenre, "", 0),
	}

	// Act
	first := recalculator.Recalculate(nodes)
	second := recalculator.Recalculate(nodes)

	// Assert
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Label, second[i].Label)
	}
}

func TestEdgeRecalculator_SkipsSectionsAndIncompatiblePairs(t *testing.T) {
	recalculator := NewEdgeRecalculator(NewCompatibilityEngine(nil), nil)
	nodes := []entities.Node{
		mustNode(t, "s1", entitiesSection("Verse")),
		element(t, "n1", valueobjects.TypeMelody, "C", 90),
		element(t, "n2", valueobjects.TypeDrum, "F#m", 170),
	}

	edges := recalculator.Recalculate(nodes)

	assert.Empty(t, edges)
}

func TestEdgeRecalculator_StylesByStrength(t *testing.T) {
	// Arrange
	recalculator := NewEdgeRecalculator(NewCompatibilityEngine(nil), nil)
	nodes := []entities.Node{
		element(t, "n1", valueobjects.TypeBassline, "", 140),
		element(t, "n2", valueobjects.TypeDrum, "", 140),
		element(t, "n3", valueobjects.TypeMelody, "", 0),
	}

	// Act
	edges := recalculator.Recalculate(nodes)

	// Assert
	require.Len(t, edges, 3)
	high := edges[0]
	assert.Equal(t, valueobjects.EdgeID("edge-n1-n2"), high.ID)
	assert.Equal(t, valueobjects.StrengthHigh, high.Data.Strength)
	assert.Equal(t, "#10b981", high.Style.Stroke)
	assert.Equal(t, 3.0, high.Style.StrokeWidth)
	assert.True(t, high.Animated)
	assert.Equal(t, entities.OriginAuto, high.Data.Origin)

	low := edges[2]
	assert.Equal(t, valueobjects.EdgeID("edge-n2-n3"), low.ID)
	assert.Equal(t, "#6b7280", low.Style.Stroke)
	assert.Equal(t, 2.0, low.Style.StrokeWidth)
	assert.False(t, low.Animated)
}
