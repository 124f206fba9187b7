package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamflow/application/dispatch"
	"jamflow/application/services"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/valueobjects"
	"jamflow/infrastructure/config"
	"jamflow/infrastructure/di"
	"jamflow/infrastructure/speech"
	pkgerrors "jamflow/pkg/errors"
)

// recordingFeeder remembers what it was fed.
type recordingFeeder struct {
	mu           sync.Mutex
	transcripts  []string
	instructions []string
	err          error
}

func (f *recordingFeeder) ProcessTranscript(ctx context.Context, id aggregates.GraphID, transcript string) (*services.TranscriptOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcripts = append(f.transcripts, transcript)
	if f.err != nil {
		return nil, f.err
	}
	return &services.TranscriptOutcome{Strategy: services.StrategyNone}, nil
}

func (f *recordingFeeder) ApplyInstruction(ctx context.Context, id aggregates.GraphID, instruction string) (*services.BatchOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instructions = append(f.instructions, instruction)
	if f.err != nil {
		return nil, f.err
	}
	return &services.BatchOutcome{Result: dispatch.Result{
		Created: 1,
		Skipped: []dispatch.Diagnostic{{Index: 1, Action: "connectNodes", Reason: "unknown node"}},
	}}, nil
}

func TestListener_FeedsTranscriptsInOrder(t *testing.T) {
	// Arrange
	feeder := &recordingFeeder{}
	var out bytes.Buffer
	source := speech.NewLineSource(strings.NewReader("first idea\n\n  second idea \n"))
	listener := NewListener(source, feeder, "jam", false, &out, nil)

	// Act
	err := listener.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"first idea", "second idea"}, feeder.transcripts)
	assert.Empty(t, feeder.instructions)
	assert.Contains(t, out.String(), "nothing recognised")
}

func TestListener_InstructionMode(t *testing.T) {
	// Arrange
	feeder := &recordingFeeder{}
	var out bytes.Buffer
	source := speech.NewLineSource(strings.NewReader("add a hi-hat\n"))
	listener := NewListener(source, feeder, "jam", true, &out, nil)

	// Act
	err := listener.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"add a hi-hat"}, feeder.instructions)
	assert.Contains(t, out.String(), "applied 1 commands")
	assert.Contains(t, out.String(), "skipped #1 connectNodes: unknown node")
}

func TestListener_ReportsFailuresAndContinues(t *testing.T) {
	feeder := &recordingFeeder{err: pkgerrors.NewUnavailableError("command-inference")}
	var out bytes.Buffer
	source := speech.NewLineSource(strings.NewReader("one\ntwo\n"))
	listener := NewListener(source, feeder, "jam", true, &out, nil)

	require.NoError(t, listener.Run(context.Background()))

	assert.Len(t, feeder.instructions, 2)
	assert.Equal(t, 2, strings.Count(out.String(), "error:"))
}

func TestListener_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	listener := NewListener(speech.NewLineSource(strings.NewReader("")), &recordingFeeder{}, "jam", false, &out, nil)

	assert.NoError(t, listener.Run(ctx))
}

func TestListener_BuildsGraphFromSpeech(t *testing.T) {
	// Arrange
	t.Setenv("JAMFLOW_CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "test")
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	container, cleanup, err := di.InitializeContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	ctx := context.Background()
	require.NoError(t, createIfMissing(ctx, container.Sessions, "live", valueobjects.ModeDiscovery))

	var out bytes.Buffer
	source := speech.NewLineSource(strings.NewReader("Trap bass in C at 140 BPM, drums at 140 BPM, house melody in C\n"))
	listener := NewListener(source, container.Sessions, "live", false, &out, container.Logger)

	// Act
	require.NoError(t, listener.Run(ctx))

	// Assert
	g, err := container.Sessions.Graph(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, 5, g.NodeCount())
	assert.Contains(t, out.String(), "flat parse: 5 nodes")
}

func TestCreateIfMissing_KeepsExistingSession(t *testing.T) {
	t.Setenv("JAMFLOW_CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "test")
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	container, cleanup, err := di.InitializeContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	ctx := context.Background()

	require.NoError(t, createIfMissing(ctx, container.Sessions, "live", valueobjects.ModeStructure))
	require.NoError(t, createIfMissing(ctx, container.Sessions, "live", valueobjects.ModeDiscovery))

	g, err := container.Sessions.Graph(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.ModeStructure, g.Mode())
}

func TestParse_RejectsUnknownFlags(t *testing.T) {
	err := Parse("jamflow-listen", "test", &ListenCmd{}, []string{"--nope"})

	assert.Error(t, err)
}
