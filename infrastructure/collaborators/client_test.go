package collaborators

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamflow/application/dispatch"
	"jamflow/application/ports"
	"jamflow/pkg/errors"
)

type recordedMetrics struct {
	calls    map[string]int
	breakers map[string]int
}

func (m *recordedMetrics) ObserveCollaborator(name, outcome string) {
	m.calls[name+":"+outcome]++
}

func (m *recordedMetrics) SetBreakerState(name string, state int) {
	m.breakers[name] = state
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordedMetrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	metrics := &recordedMetrics{calls: map[string]int{}, breakers: map[string]int{}}
	c := NewClient(Settings{
		BaseURL:                    srv.URL + "/",
		Timeout:                    time.Second,
		BreakerOpenTimeout:         time.Minute,
		BreakerConsecutiveFailures: 3,
	}, metrics, nil)
	return c, metrics
}

func audioBytes(n int) []byte {
	return []byte(strings.Repeat("a", n))
}

func TestCommandInferenceClient_Infer(t *testing.T) {
	// Arrange
	var got inferenceRequest
	c, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/graph/update", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"commands":[
			{"action":"createNode","params":{"id":"kick","label":"Kick","type":"drum"}},
			{"action":"connectNodes","params":{"source":"kick","target":"bass"}},
			{"action":"teleport","params":{}}
		]}`))
	})
	client := NewCommandInferenceClient(c, time.Second)

	// Act
	cmds, err := client.Infer(context.Background(), ports.GraphPayload{}, "add a kick")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "add a kick", got.Instruction)
	require.Len(t, cmds, 3)
	assert.Equal(t, dispatch.CreateNode{ID: "kick", Label: "Kick", Type: "drum"}, cmds[0])
	assert.IsType(t, dispatch.ConnectNodes{}, cmds[1])
	assert.IsType(t, dispatch.Unrecognized{}, cmds[2])
	assert.Equal(t, 1, metrics.calls[NameInference+":ok"])
}

func TestCommandInferenceClient_MalformedEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"commands": "nope"}`))
	})

	_, err := NewCommandInferenceClient(c, 0).Infer(context.Background(), ports.GraphPayload{}, "x")

	assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))
}

func TestRecommendationClient_Recommend(t *testing.T) {
	// Arrange
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "nodes")
		assert.Contains(t, body, "edges")
		_, _ = w.Write([]byte(`{"recommendations":[{"instrument_id":"kora","instrument_name":"Kora","culture":"West African","genre":"Griot","type":"melody","reason":"Bright plucked counterpoint"}]}`))
	})

	// Act
	recs, err := NewRecommendationClient(c, 0).Recommend(context.Background(), ports.GraphPayload{})

	// Assert
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Kora", recs[0].InstrumentName)
	assert.Equal(t, "West African", recs[0].Culture)
}

func TestProducerClient_Analyze(t *testing.T) {
	t.Run("audio with feedback header", func(t *testing.T) {
		// Arrange
		var ctxField interface{}
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			ctxField = body["context"]
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Header().Set(FeedbackTextHeader, "Tighten the low end.")
			_, _ = w.Write(audioBytes(256))
		})

		// Act
		fb, err := NewProducerClient(c, 0, 100).Analyze(context.Background(), ports.GraphPayload{}, "darker")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "darker", ctxField)
		assert.Equal(t, "Tighten the low end.", fb.Text)
		assert.Equal(t, "audio/mpeg", fb.ContentType)
		assert.Len(t, fb.Data, 256)
	})

	t.Run("audio too small", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(FeedbackTextHeader, "Nice.")
			_, _ = w.Write(audioBytes(99))
		})

		_, err := NewProducerClient(c, 0, 100).Analyze(context.Background(), ports.GraphPayload{}, "")

		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrorTypeExternal, appErr.Type)
		assert.Equal(t, "Nice.", appErr.Details["feedback_text"])
	})

	t.Run("text only with null context", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/producer/analyze-text", r.URL.Path)
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Nil(t, body["context"])
			_, _ = w.Write([]byte(`{"feedback_text":"Add a bridge.","audio_available":false}`))
		})

		fb, err := NewProducerClient(c, 0, 100).AnalyzeText(context.Background(), ports.GraphPayload{}, "")

		require.NoError(t, err)
		assert.Equal(t, "Add a bridge.", fb.Text)
		assert.False(t, fb.AudioAvailable)
	})
}

func TestMusicClient_Generate(t *testing.T) {
	// Arrange
	var got musicRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write(audioBytes(1024))
	})

	// Act
	audio, err := NewMusicClient(c, 0, 100).Generate(context.Background(), "lofi", 5000)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, musicRequest{Prompt: "lofi", DurationMs: 5000}, got)
	assert.Len(t, audio.Data, 1024)
	assert.NotEmpty(t, audio.ContentType)
}

func TestClient_ErrorMapping(t *testing.T) {
	t.Run("client error keeps detail", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"instruction is empty"}`))
		})

		_, err := NewMusicClient(c, 0, 100).Generate(context.Background(), "", 1000)

		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrorTypeExternal, appErr.Type)
		assert.Equal(t, 400, appErr.Details["status"])
		assert.Equal(t, "instruction is empty", appErr.Details["detail"])
	})

	t.Run("content policy refusal is blocked", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail":"prompt names a copyrighted artist"}`))
		})

		_, err := NewMusicClient(c, 0, 100).Generate(context.Background(), "sounds like x", 1000)

		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrorTypeBlocked, appErr.Type)
		assert.Contains(t, appErr.Message, "copyrighted artist")
		assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
		assert.Equal(t, gobreaker.StateClosed, c.BreakerState(NameMusic))
	})

	t.Run("timeout", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})

		_, err := NewMusicClient(c, 20*time.Millisecond, 100).Generate(context.Background(), "x", 1000)

		assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout), "got %v", err)
	})
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	// Arrange
	var hits atomic.Int32
	c, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	music := NewMusicClient(c, 0, 100)
	ctx := context.Background()

	// Act
	for i := 0; i < 3; i++ {
		_, err := music.Generate(ctx, "x", 1000)
		require.True(t, errors.IsType(err, errors.ErrorTypeExternal))
	}
	_, err := music.Generate(ctx, "x", 1000)

	// Assert
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnavailable), "got %v", err)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState(NameMusic))
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState(NameRecommendations))
	assert.Equal(t, 2, metrics.breakers[NameMusic])
	assert.Equal(t, 3, metrics.calls[NameMusic+":external"])
	assert.Equal(t, 1, metrics.calls[NameMusic+":unavailable"])
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	music := NewMusicClient(c, 0, 100)

	for i := 0; i < 5; i++ {
		_, _ = music.Generate(context.Background(), "x", 1000)
	}

	assert.Equal(t, gobreaker.StateClosed, c.BreakerState(NameMusic))
}
