package queries_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jamflow/application/dispatch"
	"jamflow/application/queries"
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

type env struct {
	repo     *memory.GraphRepository
	sessions *services.SessionService
	engine   *domainservices.CompatibilityEngine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	engine := domainservices.NewCompatibilityEngine(cfg)
	styler := domainservices.NewEdgeStyler(cfg)
	recalc := domainservices.NewEdgeRecalculator(engine, cfg)
	validator := validators.NewNodeValidator(cfg)
	repo := memory.NewGraphRepository(nil)
	sessions := services.NewSessionService(
		repo,
		aggregates.NewReducer(cfg, recalc, styler, validator),
		dispatch.NewDispatcher(cfg, styler, validator, utils.SystemClock, zap.NewNop()),
		parsing.NewFlatParser(cfg, recalc, styler),
		parsing.NewStructureParser(cfg, styler),
		nil, cfg, utils.SystemClock, nil, nil, zap.NewNop(),
	)
	return &env{repo: repo, sessions: sessions, engine: engine}
}

func (e *env) seed(t *testing.T, id aggregates.GraphID) {
	t.Helper()
	ctx := context.Background()
	_, err := e.sessions.CreateSession(ctx, id, valueobjects.ModeDiscovery)
	require.NoError(t, err)
	_, err = e.sessions.ProcessTranscript(ctx, id, "Drums at 120 BPM and a bass in C at 120 BPM")
	require.NoError(t, err)
}

func TestGetGraphHandler(t *testing.T) {
	// Arrange
	e := newEnv(t)
	e.seed(t, "jam")
	h := queries.NewGetGraphHandler(e.repo)

	// Act
	view, err := h.Handle(context.Background(), queries.GetGraphQuery{SessionID: "jam"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "jam", view.SessionID)
	assert.Equal(t, "discovery", view.Mode)
	assert.Equal(t, 2, view.Version)
	assert.Equal(t, len(view.Nodes), view.Metadata.NodeCount)
	assert.Equal(t, len(view.Edges), view.Metadata.EdgeCount)
	assert.NotEmpty(t, view.Metadata.Signature)
	assert.Empty(t, view.Metadata.Pinned)
}

func TestGetGraphHandler_UnknownSession(t *testing.T) {
	h := queries.NewGetGraphHandler(newEnv(t).repo)

	_, err := h.Handle(context.Background(), queries.GetGraphQuery{SessionID: "nope"})

	assert.True(t, errors.IsNotFound(err))
}

func TestGetNodeHandler(t *testing.T) {
	// Arrange
	ctx := context.Background()
	e := newEnv(t)
	_, err := e.sessions.CreateSession(ctx, "jam", valueobjects.ModeDiscovery)
	require.NoError(t, err)
	_, _, err = e.sessions.AddNode(ctx, "jam", services.NodeInput{ID: "kick", Label: "Kick", Type: "drum", BPM: 120})
	require.NoError(t, err)
	_, _, err = e.sessions.AddNode(ctx, "jam", services.NodeInput{ID: "bass", Label: "Bass", Type: "bassline", BPM: 120})
	require.NoError(t, err)
	h := queries.NewGetNodeHandler(e.repo)

	// Act
	got, err := h.Handle(ctx, queries.GetNodeQuery{SessionID: "jam", NodeID: "kick"})
	_, missing := h.Handle(ctx, queries.GetNodeQuery{SessionID: "jam", NodeID: "ghost"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Kick", got.Node.Data.Label)
	assert.False(t, got.Pinned)
	require.Len(t, got.Edges, 1)
	assert.True(t, got.Edges[0].Touches("kick"))
	assert.True(t, errors.IsNotFound(missing))
}

func TestListSessionsHandler_Pages(t *testing.T) {
	// Arrange
	ctx := context.Background()
	e := newEnv(t)
	for _, id := range []aggregates.GraphID{"a", "b", "c"} {
		_, err := e.sessions.CreateSession(ctx, id, valueobjects.ModeDiscovery)
		require.NoError(t, err)
	}
	h := queries.NewListSessionsHandler(e.repo)

	tests := []struct {
		name   string
		query  queries.ListSessionsQuery
		wantN  int
		wantLm int
	}{
		{"default limit", queries.ListSessionsQuery{}, 3, queries.DefaultListLimit},
		{"first page", queries.ListSessionsQuery{Limit: 2}, 2, 2},
		{"second page", queries.ListSessionsQuery{Limit: 2, Offset: 2}, 1, 2},
		{"past the end", queries.ListSessionsQuery{Limit: 2, Offset: 9}, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got, err := h.Handle(ctx, tt.query)

			// Assert
			require.NoError(t, err)
			assert.Len(t, got.Sessions, tt.wantN)
			assert.Equal(t, 3, got.TotalCount)
			assert.Equal(t, tt.wantLm, got.Limit)
		})
	}
}

func TestEvaluatePairHandler(t *testing.T) {
	// Arrange
	ctx := context.Background()
	e := newEnv(t)
	_, err := e.sessions.CreateSession(ctx, "jam", valueobjects.ModeStructure)
	require.NoError(t, err)
	_, _, err = e.sessions.AddNode(ctx, "jam", services.NodeInput{ID: "pad", Label: "Pad", Type: "chord", Key: "Am"})
	require.NoError(t, err)
	_, _, err = e.sessions.AddNode(ctx, "jam", services.NodeInput{ID: "lead", Label: "Lead", Type: "melody", Key: "C"})
	require.NoError(t, err)
	h := queries.NewEvaluatePairHandler(e.repo, e.engine)

	// Act
	got, err := h.Handle(ctx, queries.EvaluatePairQuery{SessionID: "jam", A: "pad", B: "lead"})

	// Assert
	require.NoError(t, err)
	assert.True(t, got.Verdict.Compatible)
	assert.Positive(t, got.Verdict.Score)
	assert.NotEmpty(t, got.Verdict.Reasons)

	_, err = h.Handle(ctx, queries.EvaluatePairQuery{SessionID: "jam", A: "pad", B: "ghost"})
	assert.True(t, errors.IsNotFound(err))
}

func TestQueries_Validate(t *testing.T) {
	assert.True(t, errors.IsValidation(queries.GetGraphQuery{}.Validate()))
	assert.True(t, errors.IsValidation(queries.EvaluatePairQuery{SessionID: "s", A: "x", B: "x"}.Validate()))
	assert.True(t, errors.IsValidation(queries.ListSessionsQuery{Limit: -1}.Validate()))
	assert.NoError(t, queries.GetNodeQuery{SessionID: "s", NodeID: "n"}.Validate())
}
