package ports

import (
	"context"

	"jamflow/application/dispatch"
)

// CommandInference turns a natural-language instruction into graph commands.
type CommandInference interface {
	Infer(ctx context.Context, graph GraphPayload, instruction string) ([]dispatch.Command, error)
}

// Recommendation is an instrument suggested for the current graph.
type Recommendation struct {
	InstrumentID   string `json:"instrument_id"`
	InstrumentName string `json:"instrument_name"`
	Culture        string `json:"culture"`
	Genre          string `json:"genre"`
	Type           string `json:"type"`
	Reason         string `json:"reason"`
}

// RecommendationProvider suggests instruments for a graph.
type RecommendationProvider interface {
	Recommend(ctx context.Context, graph GraphPayload) ([]Recommendation, error)
}

// Audio is an encoded audio clip.
type Audio struct {
	Data        []byte
	ContentType string
}

// AudioFeedback is spoken producer feedback plus its transcript.
type AudioFeedback struct {
	Audio
	Text string
}

// TextFeedback is producer feedback without audio.
type TextFeedback struct {
	Text           string `json:"feedback_text"`
	AudioAvailable bool   `json:"audio_available"`
}

// ProducerFeedback critiques a graph.
type ProducerFeedback interface {
	Analyze(ctx context.Context, graph GraphPayload, notes string) (*AudioFeedback, error)
	AnalyzeText(ctx context.Context, graph GraphPayload, notes string) (*TextFeedback, error)
}

// MusicGenerator renders a prompt to audio.
type MusicGenerator interface {
	Generate(ctx context.Context, prompt string, durationMs int) (*Audio, error)
}
