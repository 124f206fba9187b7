package valueobjects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeID_IsUnique(t *testing.T) {
	a, b := NewNodeID(), NewNodeID()

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a.String(), "node-"))
}

func TestParseNodeID(t *testing.T) {
	id, err := ParseNodeID(" node-1 ")
	require.NoError(t, err)
	assert.Equal(t, NodeID("node-1"), id)

	_, err = ParseNodeID("   ")
	assert.Error(t, err)
}

func TestEdgeIDs(t *testing.T) {
	assert.Equal(t, EdgeID("edge-a-b"), AutoEdgeID("a", "b"))

	manual := NewManualEdgeID("a", "b")
	assert.True(t, strings.HasPrefix(manual.String(), "edge-a-b-"))
	assert.NotEqual(t, manual, NewManualEdgeID("a", "b"))
}

func TestGridPosition(t *testing.T) {
	assert.Equal(t, Position{X: 100, Y: 100}, GridPosition(0, 3, 250, 200, 100))
	assert.Equal(t, Position{X: 600, Y: 100}, GridPosition(2, 3, 250, 200, 100))
	assert.Equal(t, Position{X: 100, Y: 300}, GridPosition(3, 3, 250, 200, 100))
}

func TestNewBPM(t *testing.T) {
	bpm, err := NewBPM(140, 400)
	require.NoError(t, err)
	assert.Equal(t, 6, bpm.Delta(134))

	_, err = NewBPM(0, 400)
	assert.Error(t, err)
	_, err = NewBPM(401, 400)
	assert.Error(t, err)
}

func TestParseRelation(t *testing.T) {
	rel, ok := ParseRelation("Blends With")
	assert.True(t, ok)
	assert.Equal(t, RelationBlendsWith, rel)

	_, ok = ParseRelation("orbits")
	assert.False(t, ok)
}
