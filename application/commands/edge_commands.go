package commands

import (
	"jamflow/pkg/utils"
)

// AddEdgeCommand draws a user edge between two existing nodes.
type AddEdgeCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	Source    string `json:"source" validate:"required"`
	Target    string `json:"target" validate:"required,nefield=Source"`
	Label     string `json:"label" validate:"max=200"`
	Relation  string `json:"relation" validate:"max=32"`
}

// Validate validates the command
func (c AddEdgeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteEdgeCommand removes one edge.
type DeleteEdgeCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	EdgeID    string `json:"edge_id" validate:"required"`
}

// Validate validates the command
func (c DeleteEdgeCommand) Validate() error {
	return utils.ValidateStruct(c)
}
