package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "jamflow/pkg/errors"
)

type pingCommand struct {
	Target string
}

func (c pingCommand) Validate() error {
	if c.Target == "" {
		return errors.New("target is required")
	}
	return nil
}

type spanRecorder struct {
	names []string
}

func (r *spanRecorder) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	r.names = append(r.names, name)
	return fn(ctx)
}

func TestCommandBus_Send(t *testing.T) {
	// Arrange
	var order []string
	mark := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
				order = append(order, name)
				return next.Handle(ctx, cmd)
			})
		}
	}
	tracer := &spanRecorder{}
	b := NewCommandBus(mark("outer"), TracingMiddleware(tracer), mark("inner"))

	var got string
	require.NoError(t, b.Register(pingCommand{}, HandlerFor(func(ctx context.Context, c pingCommand) error {
		got = c.Target
		return nil
	})))

	// Act
	err := b.Send(context.Background(), pingCommand{Target: "bass"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "bass", got)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, []string{"command.pingCommand"}, tracer.names)
}

func TestCommandBus_Errors(t *testing.T) {
	b := NewCommandBus()
	require.NoError(t, b.Register(pingCommand{}, HandlerFor(func(ctx context.Context, c pingCommand) error {
		if c.Target == "missing" {
			return pkgerrors.NewNotFoundError("node missing")
		}
		return errors.New("boom")
	})))

	t.Run("duplicate registration", func(t *testing.T) {
		assert.Error(t, b.Register(pingCommand{}, HandlerFor(func(context.Context, pingCommand) error { return nil })))
	})

	t.Run("invalid command becomes validation error", func(t *testing.T) {
		err := b.Send(context.Background(), pingCommand{})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("app errors pass through", func(t *testing.T) {
		err := b.Send(context.Background(), pingCommand{Target: "missing"})
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("plain errors are wrapped", func(t *testing.T) {
		err := b.Send(context.Background(), pingCommand{Target: "x"})
		assert.ErrorIs(t, err, ErrExecutionFailed)
	})

	t.Run("unregistered command", func(t *testing.T) {
		err := NewCommandBus().Send(context.Background(), pingCommand{Target: "x"})
		assert.ErrorIs(t, err, ErrHandlerNotFound)
	})
}
