package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jamflow/pkg/errors"
	"jamflow/pkg/ratelimit"
	"jamflow/pkg/utils"
)

type recordedRequest struct {
	method, route string
	status        int
}

type fakeHTTPMetrics struct {
	requests []recordedRequest
}

func (m *fakeHTTPMetrics) RecordHTTP(method, route string, status int, _ time.Duration) {
	m.requests = append(m.requests, recordedRequest{method, route, status})
}

func TestLogger_LogsRoutePatternAndLevel(t *testing.T) {
	// Arrange
	core, logs := observer.New(zapcore.DebugLevel)
	r := chi.NewRouter()
	r.Use(Logger(zap.New(core)))
	r.Get("/sessions/{sessionID}/graph", func(w http.ResponseWriter, r *http.Request) {})
	r.Post("/sessions/{sessionID}/music", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	// Act
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/jam/graph", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/sessions/jam/music", nil))

	// Assert
	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/sessions/{sessionID}/graph", entries[0].ContextMap()["route"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusBadGateway, entries[1].ContextMap()["status"])
}

func TestMetrics_RecordsByRoute(t *testing.T) {
	metrics := &fakeHTTPMetrics{}
	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Delete("/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/sessions/a", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, metrics.requests, 2)
	assert.Equal(t, recordedRequest{http.MethodDelete, "/sessions/{sessionID}", http.StatusNoContent}, metrics.requests[0])
	assert.Equal(t, http.StatusNotFound, metrics.requests[1].status)
}

func TestRateLimit_KeysByClientAndSession(t *testing.T) {
	// Arrange
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewSlidingWindowLimiter(1, time.Minute, utils.FixedClock(now))
	r := chi.NewRouter()
	r.With(RateLimit(limiter, errors.NewErrorHandler(zap.NewNop(), false), zap.NewNop())).
		Post("/sessions/{sessionID}/instructions", func(w http.ResponseWriter, r *http.Request) {})
	send := func(session string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sessions/"+session+"/instructions", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		r.ServeHTTP(rec, req)
		return rec
	}

	// Act
	first := send("a")
	second := send("a")
	other := send("b")

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "RATE_LIMIT")
	assert.Equal(t, http.StatusOK, other.Code)
}
