package commands

import (
	"jamflow/pkg/utils"
)

// CreateSessionCommand starts an empty session graph.
type CreateSessionCommand struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
	Mode      string `json:"mode" validate:"omitempty,oneof=discovery structure"`
}

// Validate validates the command
func (c CreateSessionCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteSessionCommand drops a session and its graph.
type DeleteSessionCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Validate validates the command
func (c DeleteSessionCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SetModeCommand switches a session between discovery and structure mode.
type SetModeCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	Mode      string `json:"mode" validate:"required,oneof=discovery structure"`
}

// Validate validates the command
func (c SetModeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ClearGraphCommand removes every node and edge of a session.
type ClearGraphCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Validate validates the command
func (c ClearGraphCommand) Validate() error {
	return utils.ValidateStruct(c)
}
