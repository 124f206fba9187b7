package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/valueobjects"
)

func TestBuildMusicPrompt_Empty(t *testing.T) {
	assert.Equal(t, EmptyGraphPrompt, BuildMusicPrompt(nil))
	assert.Equal(t, EmptyGraphPrompt, BuildMusicPrompt(aggregates.NewGraph("g", valueobjects.ModeDiscovery, now)))
}

func TestBuildMusicPrompt_Discovery(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	id := f.session(t, valueobjects.ModeDiscovery)
	_, _, err := f.sessions.AddNode(ctx, id, NodeInput{Label: "Bass", Type: "bassline", Key: "C", BPM: 140})
	require.NoError(t, err)
	_, g, err := f.sessions.AddNode(ctx, id, NodeInput{Label: "Drums", Type: "drum", BPM: 120, Details: "punchy breakbeat"})
	require.NoError(t, err)

	// Act
	prompt := BuildMusicPrompt(g)

	// Assert
	assert.Equal(t,
		"featuring Bass in C at 140 BPM, punchy breakbeat at 120 BPM. tempo around 130 BPM"+productionSuffix,
		prompt)
}

func TestBuildMusicPrompt_Structure(t *testing.T) {
	// Arrange
	f := newFixture(t)
	id := f.session(t, valueobjects.ModeDiscovery)
	out, err := f.sessions.ProcessTranscript(context.Background(), id,
		"A trap song in the key of A minor at 140 BPM. Intro with piano, verse with drums and bass, chorus calm")
	require.NoError(t, err)
	require.Equal(t, StrategyStructure, out.Strategy)

	// Act
	prompt := BuildMusicPrompt(out.Graph)

	// Assert
	assert.Equal(t,
		"Trap style. Track structure:. Intro with Piano. Verse with Drums, Bass. Chorus with Calm. "+
			"with Calm mood. tempo around 140 BPM"+productionSuffix,
		prompt)
}
