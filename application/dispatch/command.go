// Package dispatch applies batches of graph commands produced by an external
// command source (typically the command-inference collaborator).
package dispatch

// Wire action names.
const (
	ActionCreateNode   = "createNode"
	ActionConnectNodes = "connectNodes"
	ActionDeleteByID   = "deleteById"
)

// Command is one entry of a batch. The set of implementations is closed.
type Command interface {
	Action() string
	command()
}

// Position is an explicit placement for a created node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CreateNode stages a new node.
type CreateNode struct {
	ID       string    `json:"id" validate:"required"`
	Label    string    `json:"label" validate:"required"`
	Type     string    `json:"type" validate:"required"`
	Position *Position `json:"position,omitempty"`
	Key      string    `json:"key,omitempty"`
	BPM      FlexInt   `json:"bpm,omitempty"`
	Section  string    `json:"section,omitempty"`
}

// ConnectNodes stages a directed edge.
type ConnectNodes struct {
	Source   string `json:"source" validate:"required"`
	Target   string `json:"target" validate:"required"`
	Relation string `json:"relation,omitempty"`
	Label    string `json:"label,omitempty"`
}

// DeleteByID removes a node (with its edges) or, failing that, an edge.
type DeleteByID struct {
	ID string `json:"id" validate:"required"`
}

// Unrecognized stands in for an entry that could not be decoded, so the
// batch keeps its indices and the entry is reported as skipped.
type Unrecognized struct {
	RawAction string
	Reason    string
}

func (CreateNode) Action() string   { return ActionCreateNode }
func (ConnectNodes) Action() string { return ActionConnectNodes }
func (DeleteByID) Action() string   { return ActionDeleteByID }
func (u Unrecognized) Action() string {
	if u.RawAction == "" {
		return "unknown"
	}
	return u.RawAction
}

func (CreateNode) command()   {}
func (ConnectNodes) command() {}
func (DeleteByID) command()   {}
func (Unrecognized) command() {}
