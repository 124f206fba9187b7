package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jamflow/application/dispatch"
	"jamflow/application/ports"
	"jamflow/domain/config"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/validators"
	"jamflow/domain/core/valueobjects"
	"jamflow/domain/parsing"
	domainservices "jamflow/domain/services"
	"jamflow/infrastructure/persistence/memory"
	"jamflow/pkg/utils"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockInference struct{ mock.Mock }

func (m *mockInference) Infer(ctx context.Context, graph ports.GraphPayload, instruction string) ([]dispatch.Command, error) {
	args := m.Called(ctx, graph, instruction)
	cmds, _ := args.Get(0).([]dispatch.Command)
	return cmds, args.Error(1)
}

type mockRecommender struct{ mock.Mock }

func (m *mockRecommender) Recommend(ctx context.Context, graph ports.GraphPayload) ([]ports.Recommendation, error) {
	args := m.Called(ctx, graph)
	recs, _ := args.Get(0).([]ports.Recommendation)
	return recs, args.Error(1)
}

type mockProducer struct{ mock.Mock }

func (m *mockProducer) Analyze(ctx context.Context, graph ports.GraphPayload, notes string) (*ports.AudioFeedback, error) {
	args := m.Called(ctx, graph, notes)
	fb, _ := args.Get(0).(*ports.AudioFeedback)
	return fb, args.Error(1)
}

func (m *mockProducer) AnalyzeText(ctx context.Context, graph ports.GraphPayload, notes string) (*ports.TextFeedback, error) {
	args := m.Called(ctx, graph, notes)
	fb, _ := args.Get(0).(*ports.TextFeedback)
	return fb, args.Error(1)
}

type mockMusic struct{ mock.Mock }

func (m *mockMusic) Generate(ctx context.Context, prompt string, durationMs int) (*ports.Audio, error) {
	args := m.Called(ctx, prompt, durationMs)
	audio, _ := args.Get(0).(*ports.Audio)
	return audio, args.Error(1)
}

type memoryCache struct {
	items map[string]interface{}
}

func (c *memoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	v, ok := c.items[key]
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.items[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.items, key)
	return nil
}

func (c *memoryCache) DeletePrefix(context.Context, string) error { return nil }

type fixture struct {
	cfg       *config.DomainConfig
	sessions  *SessionService
	edges     *EdgeService
	inference *mockInference
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	styler := domainservices.NewEdgeStyler(cfg)
	recalc := domainservices.NewEdgeRecalculator(domainservices.NewCompatibilityEngine(cfg), cfg)
	validator := validators.NewNodeValidator(cfg)
	inference := &mockInference{}

	sessions := NewSessionService(
		memory.NewGraphRepository(nil),
		aggregates.NewReducer(cfg, recalc, styler, validator),
		dispatch.NewDispatcher(cfg, styler, validator, utils.FixedClock(now), zap.NewNop()),
		parsing.NewFlatParser(cfg, recalc, styler),
		parsing.NewStructureParser(cfg, styler),
		inference,
		cfg,
		utils.FixedClock(now),
		nil,
		nil,
		zap.NewNop(),
	)
	return &fixture{
		cfg:       cfg,
		sessions:  sessions,
		edges:     NewEdgeService(sessions, styler, cfg, zap.NewNop()),
		inference: inference,
	}
}

func (f *fixture) session(t *testing.T, mode valueobjects.GraphMode) aggregates.GraphID {
	t.Helper()
	g, err := f.sessions.CreateSession(context.Background(), "", mode)
	require.NoError(t, err)
	return g.ID()
}
