package commands

import (
	"jamflow/pkg/utils"
)

// Position is an explicit canvas placement.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AddNodeCommand adds one musical element to a session.
type AddNodeCommand struct {
	SessionID string    `json:"session_id" validate:"required"`
	NodeID    string    `json:"node_id" validate:"required,max=128"`
	Label     string    `json:"label" validate:"required,max=200"`
	Type      string    `json:"type" validate:"required"`
	Key       string    `json:"key" validate:"max=16"`
	BPM       int       `json:"bpm" validate:"gte=0,lte=400"`
	Section   string    `json:"section" validate:"max=64"`
	Details   string    `json:"details" validate:"max=2000"`
	Position  *Position `json:"position"`
}

// Validate validates the command
func (c AddNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// UpdateNodeCommand replaces the data record of a node. The type must match
// the stored one.
type UpdateNodeCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	NodeID    string `json:"node_id" validate:"required"`
	Label     string `json:"label" validate:"required,max=200"`
	Type      string `json:"type" validate:"required"`
	Key       string `json:"key" validate:"max=16"`
	BPM       int    `json:"bpm" validate:"gte=0,lte=400"`
	Section   string `json:"section" validate:"max=64"`
	Details   string `json:"details" validate:"max=2000"`
}

// Validate validates the command
func (c UpdateNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteNodeCommand removes a node and every edge touching it.
type DeleteNodeCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	NodeID    string `json:"node_id" validate:"required"`
}

// Validate validates the command
func (c DeleteNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// BulkDeleteNodesCommand removes several nodes in one batch. Unknown ids are
// skipped rather than failing the batch.
type BulkDeleteNodesCommand struct {
	SessionID string   `json:"session_id" validate:"required"`
	NodeIDs   []string `json:"node_ids" validate:"required,min=1,max=100,dive,required"`
}

// Validate validates the command
func (c BulkDeleteNodesCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// MoveNodesCommand records dragged node positions.
type MoveNodesCommand struct {
	SessionID string              `json:"session_id" validate:"required"`
	Positions map[string]Position `json:"positions" validate:"required,min=1,dive,keys,required,endkeys"`
}

// Validate validates the command
func (c MoveNodesCommand) Validate() error {
	return utils.ValidateStruct(c)
}
