package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamflow/application/commands"
	"jamflow/application/queries"
	"jamflow/infrastructure/config"
)

func TestInitializeContainer(t *testing.T) {
	// Arrange
	t.Setenv("JAMFLOW_CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "test")
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	// Act
	container, cleanup, err := InitializeContainer(cfg)
	require.NoError(t, err)
	defer cleanup()

	// Assert
	ctx := context.Background()
	require.NoError(t, container.CommandBus.Send(ctx, commands.CreateSessionCommand{SessionID: "s1", Mode: "structure"}))

	result, err := container.QueryBus.Ask(ctx, queries.GetGraphQuery{SessionID: "s1"})
	require.NoError(t, err)
	view, ok := result.(*queries.GraphView)
	require.True(t, ok)
	assert.Equal(t, "structure", view.Mode)
	assert.Empty(t, view.Nodes)

	decision, err := container.RateLimiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.NotNil(t, container.Collector.Handler())
}
