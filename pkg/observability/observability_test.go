package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsEngineMetrics(t *testing.T) {
	// Arrange
	c := NewCollector("jamflow")

	// Act
	c.ObserveTranscript("structure")
	c.ObserveTranscript("structure")
	c.ObserveBatch(3, 1)
	c.ObserveRestyle()
	c.ObserveCache(true)
	c.ObserveCache(false)
	c.ObserveCache(false)
	c.ObserveCollaborator("music_generation", "external")
	c.SetBreakerState("music_generation", 2)
	c.RecordHTTP(http.MethodGet, "/api/v1/sessions/{id}/graph", http.StatusNotFound, 5*time.Millisecond)
	c.StartTimer("command", "AddNodeCommand").Stop()

	// Assert
	assert.Equal(t, 2.0, testutil.ToFloat64(c.TranscriptsParsed.WithLabelValues("structure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.BatchCommands.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BatchCommands.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Restyles))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.CacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CollaboratorCalls.WithLabelValues("music_generation", "external")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.BreakerState.WithLabelValues("music_generation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/sessions/{id}/graph", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.Durations))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("jamflow")
	c.ObserveRestyle()
	rec := httptest.NewRecorder()

	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jamflow_edge_restyles_total 1")
}

func TestTracer_DisabledRunsUntraced(t *testing.T) {
	sentinel := errors.New("parse failed")
	tracers := map[string]*Tracer{
		"nil":      nil,
		"disabled": NewTracer("jamflow", false),
		// enabled but without a segment in ctx
		"no segment": NewTracer("jamflow", true),
	}

	for name, tracer := range tracers {
		t.Run(name, func(t *testing.T) {
			calls := 0
			err := tracer.TraceFunction(context.Background(), "parse", func(context.Context) error {
				calls++
				return sentinel
			})

			assert.ErrorIs(t, err, sentinel)
			assert.Equal(t, 1, calls)
			tracer.AddAnnotation(context.Background(), "session", "jam")
			tracer.AddMetadata(context.Background(), "nodes", 3)
		})
	}
}

func TestTracer_MiddlewarePassThroughWhenDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()

	NewTracer("jamflow", false).Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.False(t, NewTracer("jamflow", false).Enabled())
	assert.True(t, NewTracer("jamflow", true).Enabled())
}
