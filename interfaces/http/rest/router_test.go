package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamflow/infrastructure/config"
	"jamflow/infrastructure/di"
	"jamflow/interfaces/http/rest"
)

// fakeCollaborators stands in for the backend services.
func fakeCollaborators(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/graph/update", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"commands":[{"action":"createNode","params":{"id":"hat","label":"Hi-hat","type":"drum","bpm":"120"}}]}`))
	})
	mux.HandleFunc("/api/v1/recommendations/generate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recommendations":[{"instrument_id":"tabla","instrument_name":"Tabla","culture":"Indian","genre":"Classical","type":"drum","reason":"Adds syncopation"}]}`))
	})
	mux.HandleFunc("/api/v1/producer/analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("X-Feedback-Text", "Push the kick forward.")
		_, _ = w.Write(bytes.Repeat([]byte{0x1}, 300))
	})
	mux.HandleFunc("/api/v1/music/generate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(bytes.Repeat([]byte{0x2}, 500))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type api struct {
	t       *testing.T
	handler http.Handler
}

func newAPI(t *testing.T, mutate func(*config.Config)) *api {
	t.Helper()
	t.Setenv("JAMFLOW_CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "test")
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Collaborators.BaseURL = fakeCollaborators(t).URL
	if mutate != nil {
		mutate(cfg)
	}

	container, cleanup, err := di.InitializeContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	router := rest.NewRouter(rest.Dependencies{
		Config:      cfg,
		CommandBus:  container.CommandBus,
		QueryBus:    container.QueryBus,
		Sessions:    container.Sessions,
		Assist:      container.Assist,
		RateLimiter: container.RateLimiter,
		Collector:   container.Collector,
		Breakers:    container.Collaborators,
		Logger:      container.Logger,
	})
	return &api{t: t, handler: router.Setup()}
}

func (a *api) do(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func graphOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	if g, ok := body["graph"].(map[string]interface{}); ok {
		return g
	}
	return body
}

func TestRouter_SessionLifecycle(t *testing.T) {
	a := newAPI(t, nil)

	// create
	rec := a.do(http.MethodPost, "/api/v1/sessions", `{"session_id":"jam","mode":"structure"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "jam", decode(t, rec)["id"])

	// duplicate
	rec = a.do(http.MethodPost, "/api/v1/sessions", `{"session_id":"jam"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// nodes
	rec = a.do(http.MethodPost, "/api/v1/sessions/jam/nodes", `{"id":"pad","label":"Pad","type":"chord","key":"Am"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPost, "/api/v1/sessions/jam/nodes", `{"label":"Lead","type":"melody","key":"C"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	leadID := decode(t, rec)["id"].(string)
	assert.True(t, strings.HasPrefix(leadID, "node-"))

	// edge
	rec = a.do(http.MethodPost, "/api/v1/sessions/jam/edges", `{"source":"pad","target":"`+leadID+`","relation":"supports"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	graph := graphOf(t, decode(t, rec))
	require.Len(t, graph["edges"], 1)

	// compatibility
	rec = a.do(http.MethodGet, "/api/v1/sessions/jam/compatibility?a=pad&b="+leadID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode(t, rec), "verdict")

	// stats
	rec = a.do(http.MethodGet, "/api/v1/sessions/jam/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// delete node cascades
	rec = a.do(http.MethodDelete, "/api/v1/sessions/jam/nodes/pad", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	graph = decode(t, rec)
	assert.Len(t, graph["nodes"], 1)
	assert.Empty(t, graph["edges"])

	// list
	rec = a.do(http.MethodGet, "/api/v1/sessions?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total_count"])

	// delete session
	rec = a.do(http.MethodDelete, "/api/v1/sessions/jam", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(http.MethodGet, "/api/v1/sessions/jam/graph", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["type"])
}

func TestRouter_ProcessTranscript(t *testing.T) {
	// Arrange
	a := newAPI(t, nil)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/sessions", `{"session_id":"s"}`).Code)

	// Act
	rec := a.do(http.MethodPost, "/api/v1/sessions/s/transcript",
		`{"transcript":"Trap bass in C at 140 BPM, drums at 140 BPM, house melody in C"}`)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "flat", body["strategy"])
	assert.Len(t, graphOf(t, body)["nodes"], 5)
}

func TestRouter_ApplyCommands(t *testing.T) {
	a := newAPI(t, nil)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/sessions", `{"session_id":"s"}`).Code)

	rec := a.do(http.MethodPost, "/api/v1/sessions/s/commands", `[
		{"action":"createNode","params":{"id":"kick","label":"Kick","type":"drum"}},
		{"action":"deleteById","params":{"id":"ghost"}}
	]`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	result := body["result"].(map[string]interface{})
	assert.EqualValues(t, 1, result["created"])
	assert.Len(t, result["skipped"], 1)
	assert.EqualValues(t, 1, body["applied"])

	rec = a.do(http.MethodPost, "/api/v1/sessions/s/commands", `{"commands": 12}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_InstructionsAreRateLimited(t *testing.T) {
	// Arrange
	a := newAPI(t, func(cfg *config.Config) { cfg.RateLimit.Requests = 1 })
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/sessions", `{"session_id":"s"}`).Code)

	// Act
	first := a.do(http.MethodPost, "/api/v1/sessions/s/instructions", `{"instruction":"add a hi-hat"}`)
	second := a.do(http.MethodPost, "/api/v1/sessions/s/instructions", `{"instruction":"again"}`)

	// Assert
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Len(t, graphOf(t, decode(t, first))["nodes"], 1)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMIT", decode(t, second)["type"])
}

func TestRouter_Validation(t *testing.T) {
	a := newAPI(t, nil)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/sessions", `{"session_id":"s"}`).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"node without label", http.MethodPost, "/api/v1/sessions/s/nodes", `{"type":"drum"}`},
		{"unknown node type", http.MethodPost, "/api/v1/sessions/s/nodes", `{"label":"X","type":"kazoo"}`},
		{"malformed json", http.MethodPost, "/api/v1/sessions/s/nodes", `{"label":`},
		{"bad mode", http.MethodPut, "/api/v1/sessions/s/mode", `{"mode":"jazz"}`},
		{"empty instruction", http.MethodPost, "/api/v1/sessions/s/instructions", `{"instruction":""}`},
		{"music too long", http.MethodPost, "/api/v1/sessions/s/music", `{"duration_ms":500000}`},
		{"bad limit", http.MethodGet, "/api/v1/sessions?limit=x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt.method, tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "VALIDATION", decode(t, rec)["type"])
		})
	}
}

func TestRouter_AssistEndpoints(t *testing.T) {
	a := newAPI(t, nil)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/sessions", `{"session_id":"s"}`).Code)

	t.Run("producer rejects an empty graph", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/v1/sessions/s/producer", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	require.Equal(t, http.StatusCreated,
		a.do(http.MethodPost, "/api/v1/sessions/s/nodes", `{"id":"kick","label":"Kick","type":"drum","bpm":120}`).Code)

	t.Run("recommendations", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/v1/sessions/s/recommendations", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, decode(t, rec)["recommendations"], 1)
	})

	t.Run("producer audio", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/v1/sessions/s/producer", `{"context":"punchier"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, "Push the kick forward.", rec.Header().Get("X-Feedback-Text"))
		assert.Equal(t, 300, rec.Body.Len())
	})

	t.Run("music", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/v1/sessions/s/music", `{}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "10000", rec.Header().Get("X-Duration-Ms"))
		assert.NotEmpty(t, rec.Header().Get("X-Music-Prompt"))
		assert.Equal(t, 500, rec.Body.Len())
	})
}

func TestRouter_Probes(t *testing.T) {
	a := newAPI(t, nil)

	rec := a.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ready", body["status"])
	assert.Len(t, body["collaborators"], 4)

	rec = a.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jamflow_http_requests_total")

	rec = a.do(http.MethodGet, "/api/v1/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
