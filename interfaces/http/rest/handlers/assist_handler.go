package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"jamflow/application/ports"
	"jamflow/application/services"
	"jamflow/domain/core/aggregates"
	"jamflow/pkg/errors"
)

// Response headers of the audio endpoints.
const (
	HeaderFeedbackText = "X-Feedback-Text"
	HeaderMusicPrompt  = "X-Music-Prompt"
	HeaderDurationMs   = "X-Duration-Ms"
)

// Assistant fronts the recommendation, producer and music collaborators.
type Assistant interface {
	Recommend(ctx context.Context, id aggregates.GraphID) ([]ports.Recommendation, error)
	ProducerFeedback(ctx context.Context, id aggregates.GraphID, notes string) (*ports.AudioFeedback, error)
	ProducerFeedbackText(ctx context.Context, id aggregates.GraphID, notes string) (*ports.TextFeedback, error)
	GenerateMusic(ctx context.Context, id aggregates.GraphID, prompt string, durationMs int) (*services.GeneratedMusic, error)
}

// AssistHandler handles the collaborator-backed endpoints.
type AssistHandler struct {
	base
	assist Assistant
}

// NewAssistHandler creates a new assist handler
func NewAssistHandler(assist Assistant, errorHandler *errors.ErrorHandler, logger *zap.Logger) *AssistHandler {
	return &AssistHandler{
		base:   newBase(nil, nil, errorHandler, logger),
		assist: assist,
	}
}

// ProducerRequest is the body of the producer endpoints.
type ProducerRequest struct {
	Context string `json:"context,omitempty" validate:"max=2000"`
}

// MusicRequest is the body of POST /sessions/{id}/music. An empty prompt is
// derived from the graph; a zero duration uses the default.
type MusicRequest struct {
	Prompt     string `json:"prompt,omitempty" validate:"max=2000"`
	DurationMs int    `json:"duration_ms,omitempty"`
}

// RecommendationsResponse lists suggested instruments.
type RecommendationsResponse struct {
	Recommendations []ports.Recommendation `json:"recommendations"`
}

// Recommend handles POST /sessions/{sessionID}/recommendations
func (h *AssistHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	recs, err := h.assist.Recommend(r.Context(), aggregates.GraphID(sessionID(r)))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if recs == nil {
		recs = []ports.Recommendation{}
	}
	h.respondJSON(w, http.StatusOK, RecommendationsResponse{Recommendations: recs})
}

// ProducerFeedback handles POST /sessions/{sessionID}/producer. The reply
// is the spoken feedback; its transcript travels in X-Feedback-Text.
func (h *AssistHandler) ProducerFeedback(w http.ResponseWriter, r *http.Request) {
	var req ProducerRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	fb, err := h.assist.ProducerFeedback(r.Context(), aggregates.GraphID(sessionID(r)), req.Context)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set(HeaderFeedbackText, headerSafe(fb.Text))
	h.respondAudio(w, &fb.Audio)
}

// ProducerFeedbackText handles POST /sessions/{sessionID}/producer/text
func (h *AssistHandler) ProducerFeedbackText(w http.ResponseWriter, r *http.Request) {
	var req ProducerRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	fb, err := h.assist.ProducerFeedbackText(r.Context(), aggregates.GraphID(sessionID(r)), req.Context)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, fb)
}

// GenerateMusic handles POST /sessions/{sessionID}/music
func (h *AssistHandler) GenerateMusic(w http.ResponseWriter, r *http.Request) {
	var req MusicRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	music, err := h.assist.GenerateMusic(r.Context(), aggregates.GraphID(sessionID(r)), req.Prompt, req.DurationMs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set(HeaderMusicPrompt, headerSafe(music.Prompt))
	w.Header().Set(HeaderDurationMs, strconv.Itoa(music.DurationMs))
	h.respondAudio(w, music.Audio)
}

func (h *AssistHandler) respondAudio(w http.ResponseWriter, audio *ports.Audio) {
	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio.Data); err != nil {
		h.logger.Warn("Failed to write audio response", zap.Error(err))
	}
}

// headerSafe flattens text onto one line so it can travel in a header.
func headerSafe(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
