package collaborators

import (
	"context"
	"time"

	"jamflow/application/dispatch"
	"jamflow/application/ports"
	"jamflow/pkg/errors"
)

// CommandInferenceClient asks the inference service for graph commands.
type CommandInferenceClient struct {
	client  *Client
	timeout time.Duration
}

// NewCommandInferenceClient creates the client.
func NewCommandInferenceClient(client *Client, timeout time.Duration) *CommandInferenceClient {
	return &CommandInferenceClient{client: client, timeout: timeout}
}

type inferenceRequest struct {
	CurrentGraph ports.GraphPayload `json:"current_graph"`
	Instruction  string             `json:"instruction"`
}

// Infer implements ports.CommandInference.
func (c *CommandInferenceClient) Infer(ctx context.Context, graph ports.GraphPayload, instruction string) ([]dispatch.Command, error) {
	resp, err := c.client.post(ctx, NameInference, "/api/v1/graph/update", c.timeout, inferenceRequest{
		CurrentGraph: graph,
		Instruction:  instruction,
	})
	if err != nil {
		return nil, err
	}

	commands, err := dispatch.DecodeBatch(resp.body)
	if err != nil {
		return nil, errors.NewExternalError(NameInference, err)
	}
	return commands, nil
}
