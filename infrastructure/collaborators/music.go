package collaborators

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"jamflow/application/ports"
	"jamflow/pkg/errors"
)

// MusicClient asks the music service to render a prompt.
type MusicClient struct {
	client        *Client
	timeout       time.Duration
	minAudioBytes int
}

// NewMusicClient creates the client.
func NewMusicClient(client *Client, timeout time.Duration, minAudioBytes int) *MusicClient {
	return &MusicClient{client: client, timeout: timeout, minAudioBytes: minAudioBytes}
}

type musicRequest struct {
	Prompt     string `json:"prompt"`
	DurationMs int    `json:"duration_ms"`
}

// Generate implements ports.MusicGenerator.
func (c *MusicClient) Generate(ctx context.Context, prompt string, durationMs int) (*ports.Audio, error) {
	resp, err := c.client.post(ctx, NameMusic, "/api/v1/music/generate", c.timeout, musicRequest{
		Prompt:     prompt,
		DurationMs: durationMs,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.body) < c.minAudioBytes {
		return nil, errors.NewExternalError(NameMusic,
			fmt.Errorf("audio payload of %d bytes is too small", len(resp.body)))
	}
	return &ports.Audio{Data: resp.body, ContentType: contentType(resp.header)}, nil
}

func contentType(h http.Header) string {
	if ct := h.Get("Content-Type"); ct != "" {
		return ct
	}
	return "audio/mpeg"
}
