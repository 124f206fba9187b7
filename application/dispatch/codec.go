package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"jamflow/pkg/utils"
)

// WireCommand is the JSON shape of a command.
type WireCommand struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// FlexInt accepts a JSON number, a numeric string or null.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	*f = FlexInt(v)
	return nil
}

// DecodeBatch decodes a command list. It accepts a bare array or an object
// with a "commands" field. Only a malformed envelope is an error; a bad entry
// becomes an Unrecognized command.
func DecodeBatch(data []byte) ([]Command, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty command payload")
	}

	var entries []json.RawMessage
	if trimmed[0] == '{' {
		var envelope struct {
			Commands []json.RawMessage `json:"commands"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("decode command envelope: %w", err)
		}
		entries = envelope.Commands
	} else if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("decode command list: %w", err)
	}

	commands := make([]Command, 0, len(entries))
	for _, raw := range entries {
		commands = append(commands, DecodeCommand(raw))
	}
	return commands, nil
}

// DecodeCommand decodes a single entry.
func DecodeCommand(raw json.RawMessage) Command {
	var wire WireCommand
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Unrecognized{Reason: "malformed command: " + err.Error()}
	}
	if len(wire.Params) == 0 || string(wire.Params) == "null" {
		wire.Params = json.RawMessage("{}")
	}

	var cmd Command
	var err error
	switch wire.Action {
	case ActionCreateNode:
		var c CreateNode
		err = decodeParams(wire.Params, &c)
		cmd = c
	case ActionConnectNodes:
		var c ConnectNodes
		err = decodeParams(wire.Params, &c)
		cmd = c
	case ActionDeleteByID:
		var c DeleteByID
		err = decodeParams(wire.Params, &c)
		cmd = c
	default:
		return Unrecognized{RawAction: wire.Action, Reason: fmt.Sprintf("unknown action %q", wire.Action)}
	}
	if err != nil {
		return Unrecognized{RawAction: wire.Action, Reason: err.Error()}
	}
	return cmd
}

func decodeParams(raw json.RawMessage, into interface{}) error {
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return utils.ValidateStruct(into)
}

// EncodeCommand renders a command in wire form.
func EncodeCommand(cmd Command) (WireCommand, error) {
	if u, ok := cmd.(Unrecognized); ok {
		return WireCommand{}, fmt.Errorf("cannot encode unrecognized command: %s", u.Reason)
	}
	params, err := json.Marshal(cmd)
	if err != nil {
		return WireCommand{}, err
	}
	return WireCommand{Action: cmd.Action(), Params: params}, nil
}
