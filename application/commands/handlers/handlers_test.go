package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/application/commands/bus"
	"jamflow/application/commands/handlers"
	"jamflow/application/dispatch"
	"jamflow/application/services"
	"jamflow/domain/config"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/validators"
	"jamflow/domain/core/valueobjects"
	"jamflow/domain/parsing"
	domainservices "jamflow/domain/services"
	"jamflow/infrastructure/persistence/memory"
	"jamflow/pkg/errors"
	"jamflow/pkg/utils"
)

func newBus(t *testing.T) (*bus.CommandBus, *services.SessionService) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	styler := domainservices.NewEdgeStyler(cfg)
	recalc := domainservices.NewEdgeRecalculator(domainservices.NewCompatibilityEngine(cfg), cfg)
	validator := validators.NewNodeValidator(cfg)
	sessions := services.NewSessionService(
		memory.NewGraphRepository(nil),
		aggregates.NewReducer(cfg, recalc, styler, validator),
		dispatch.NewDispatcher(cfg, styler, validator, utils.SystemClock, zap.NewNop()),
		parsing.NewFlatParser(cfg, recalc, styler),
		parsing.NewStructureParser(cfg, styler),
		nil, cfg, utils.SystemClock, nil, nil, zap.NewNop(),
	)
	edges := services.NewEdgeService(sessions, styler, cfg, zap.NewNop())

	b := bus.NewCommandBus(bus.LoggingMiddleware(zap.NewNop()))
	require.NoError(t, handlers.Register(b, sessions, edges, zap.NewNop()))
	return b, sessions
}

func TestRegister_RejectsDuplicateRegistration(t *testing.T) {
	b, sessions := newBus(t)

	err := handlers.Register(b, sessions, nil, nil)

	assert.Error(t, err)
}

func TestCommands_SessionLifecycle(t *testing.T) {
	// Arrange
	ctx := context.Background()
	b, sessions := newBus(t)

	// Act
	require.NoError(t, b.Send(ctx, commands.CreateSessionCommand{SessionID: "jam", Mode: "structure"}))
	require.NoError(t, b.Send(ctx, commands.AddNodeCommand{SessionID: "jam", NodeID: "pad", Label: "Pad", Type: "chord"}))
	require.NoError(t, b.Send(ctx, commands.AddNodeCommand{
		SessionID: "jam", NodeID: "kick", Label: "Kick", Type: "drum",
		Position: &commands.Position{X: 10, Y: 20},
	}))
	require.NoError(t, b.Send(ctx, commands.AddEdgeCommand{SessionID: "jam", Source: "kick", Target: "pad", Relation: "supports"}))

	// Assert
	g, err := sessions.Graph(ctx, "jam")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.ModeStructure, g.Mode())
	assert.Equal(t, 2, g.NodeCount())
	require.Len(t, g.Edges(), 1)
	kick, ok := g.Node("kick")
	require.True(t, ok)
	assert.Equal(t, valueobjects.NewPosition(10, 20), kick.Position)

	require.NoError(t, b.Send(ctx, commands.DeleteNodeCommand{SessionID: "jam", NodeID: "kick"}))
	g, err = sessions.Graph(ctx, "jam")
	require.NoError(t, err)
	assert.Empty(t, g.Edges())

	require.NoError(t, b.Send(ctx, commands.DeleteSessionCommand{SessionID: "jam"}))
	_, err = sessions.Graph(ctx, "jam")
	assert.True(t, errors.IsNotFound(err))
}

func TestCommands_Validation(t *testing.T) {
	ctx := context.Background()
	b, _ := newBus(t)
	require.NoError(t, b.Send(ctx, commands.CreateSessionCommand{SessionID: "jam"}))

	tests := []struct {
		name string
		cmd  bus.Command
	}{
		{"missing session", commands.ClearGraphCommand{}},
		{"unknown mode", commands.SetModeCommand{SessionID: "jam", Mode: "chaos"}},
		{"missing label", commands.AddNodeCommand{SessionID: "jam", NodeID: "x", Type: "drum"}},
		{"bpm out of range", commands.AddNodeCommand{SessionID: "jam", NodeID: "x", Label: "X", Type: "drum", BPM: 900}},
		{"unknown type", commands.AddNodeCommand{SessionID: "jam", NodeID: "x", Label: "X", Type: "kazoo-ish"}},
		{"self edge", commands.AddEdgeCommand{SessionID: "jam", Source: "a", Target: "a"}},
		{"no positions", commands.MoveNodesCommand{SessionID: "jam"}},
		{"empty bulk delete", commands.BulkDeleteNodesCommand{SessionID: "jam"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Send(ctx, tt.cmd)

			assert.True(t, errors.IsValidation(err), "got %v", err)
		})
	}
}

func TestCommands_BulkDeleteSkipsUnknownIDs(t *testing.T) {
	// Arrange
	ctx := context.Background()
	b, sessions := newBus(t)
	require.NoError(t, b.Send(ctx, commands.CreateSessionCommand{SessionID: "jam"}))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, b.Send(ctx, commands.AddNodeCommand{SessionID: "jam", NodeID: id, Label: id, Type: "synth"}))
	}

	// Act
	err := b.Send(ctx, commands.BulkDeleteNodesCommand{SessionID: "jam", NodeIDs: []string{"a", "ghost", "c"}})

	// Assert
	require.NoError(t, err)
	g, err := sessions.Graph(ctx, "jam")
	require.NoError(t, err)
	require.Equal(t, 1, g.NodeCount())
	assert.True(t, g.HasNode("b"))
}

func TestCommands_MoveAndModeAndClear(t *testing.T) {
	ctx := context.Background()
	b, sessions := newBus(t)
	require.NoError(t, b.Send(ctx, commands.CreateSessionCommand{SessionID: "jam"}))
	require.NoError(t, b.Send(ctx, commands.AddNodeCommand{SessionID: "jam", NodeID: "a", Label: "Bass", Type: "bassline"}))

	require.NoError(t, b.Send(ctx, commands.MoveNodesCommand{
		SessionID: "jam",
		Positions: map[string]commands.Position{"a": {X: 500, Y: 40}},
	}))
	require.NoError(t, b.Send(ctx, commands.SetModeCommand{SessionID: "jam", Mode: "structure"}))

	g, err := sessions.Graph(ctx, "jam")
	require.NoError(t, err)
	assert.True(t, g.IsPinned("a"))
	assert.Equal(t, valueobjects.ModeStructure, g.Mode())

	require.NoError(t, b.Send(ctx, commands.ClearGraphCommand{SessionID: "jam"}))
	g, err = sessions.Graph(ctx, "jam")
	require.NoError(t, err)
	assert.Zero(t, g.NodeCount())
	assert.Equal(t, valueobjects.ModeStructure, g.Mode())
}
