package collaborators

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jamflow/application/ports"
	"jamflow/pkg/errors"
)

// FeedbackTextHeader carries the transcript of spoken producer feedback.
const FeedbackTextHeader = "X-Feedback-Text"

// ProducerClient asks the producer service for feedback on a graph.
type ProducerClient struct {
	client        *Client
	timeout       time.Duration
	minAudioBytes int
}

// NewProducerClient creates the client.
func NewProducerClient(client *Client, timeout time.Duration, minAudioBytes int) *ProducerClient {
	return &ProducerClient{client: client, timeout: timeout, minAudioBytes: minAudioBytes}
}

type producerRequest struct {
	ports.GraphPayload
	Context *string `json:"context"`
}

func newProducerRequest(graph ports.GraphPayload, notes string) producerRequest {
	req := producerRequest{GraphPayload: graph}
	if notes != "" {
		req.Context = &notes
	}
	return req
}

// Analyze implements ports.ProducerFeedback. A reply whose audio is missing
// or too small to play is an error; the feedback text travels in its
// details.
func (c *ProducerClient) Analyze(ctx context.Context, graph ports.GraphPayload, notes string) (*ports.AudioFeedback, error) {
	resp, err := c.client.post(ctx, NameProducer, "/api/v1/producer/analyze", c.timeout, newProducerRequest(graph, notes))
	if err != nil {
		return nil, err
	}

	text := resp.header.Get(FeedbackTextHeader)
	if len(resp.body) < c.minAudioBytes {
		return nil, errors.NewExternalError(NameProducer,
			fmt.Errorf("audio payload of %d bytes is too small", len(resp.body))).
			WithDetail("feedback_text", text)
	}
	return &ports.AudioFeedback{
		Audio: ports.Audio{Data: resp.body, ContentType: contentType(resp.header)},
		Text:  text,
	}, nil
}

// AnalyzeText implements ports.ProducerFeedback.
func (c *ProducerClient) AnalyzeText(ctx context.Context, graph ports.GraphPayload, notes string) (*ports.TextFeedback, error) {
	resp, err := c.client.post(ctx, NameProducer, "/api/v1/producer/analyze-text", c.timeout, newProducerRequest(graph, notes))
	if err != nil {
		return nil, err
	}

	var out ports.TextFeedback
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, errors.NewExternalError(NameProducer, err)
	}
	return &out, nil
}
