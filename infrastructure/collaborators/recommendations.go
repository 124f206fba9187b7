package collaborators

import (
	"context"
	"encoding/json"
	"time"

	"jamflow/application/ports"
	"jamflow/pkg/errors"
)

// RecommendationClient asks the recommendation service for instruments.
type RecommendationClient struct {
	client  *Client
	timeout time.Duration
}

// NewRecommendationClient creates the client.
func NewRecommendationClient(client *Client, timeout time.Duration) *RecommendationClient {
	return &RecommendationClient{client: client, timeout: timeout}
}

// Recommend implements ports.RecommendationProvider.
func (c *RecommendationClient) Recommend(ctx context.Context, graph ports.GraphPayload) ([]ports.Recommendation, error) {
	resp, err := c.client.post(ctx, NameRecommendations, "/api/v1/recommendations/generate", c.timeout, graph)
	if err != nil {
		return nil, err
	}

	var out struct {
		Recommendations []ports.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, errors.NewExternalError(NameRecommendations, err)
	}
	if out.Recommendations == nil {
		out.Recommendations = []ports.Recommendation{}
	}
	return out.Recommendations, nil
}
