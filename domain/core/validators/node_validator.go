package validators

import (
	"unicode/utf8"

	"jamflow/domain/config"
	"jamflow/domain/core/entities"
	"jamflow/pkg/errors"
)

// NodeValidator checks node records against the configured limits. Shape
// rules (non-empty label, known type, key vocabulary) live on the entity.
type NodeValidator struct {
	cfg *config.DomainConfig
}

// NewNodeValidator creates a validator; nil falls back to the defaults.
func NewNodeValidator(cfg *config.DomainConfig) *NodeValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &NodeValidator{cfg: cfg}
}

// ValidateData validates a node data record.
func (v *NodeValidator) ValidateData(data entities.NodeData) error {
	if n := utf8.RuneCountInString(data.Label); n > v.cfg.MaxLabelLength {
		return errors.NewValidationErrorf("label exceeds maximum length of %d characters", v.cfg.MaxLabelLength)
	}
	if n := utf8.RuneCountInString(data.Section); n > v.cfg.MaxSectionLength {
		return errors.NewValidationErrorf("section exceeds maximum length of %d characters", v.cfg.MaxSectionLength)
	}
	if data.BPM.Int() > v.cfg.MaxBPM {
		return errors.NewValidationErrorf("bpm %d exceeds maximum of %d", data.BPM, v.cfg.MaxBPM)
	}
	if data.BPM < 0 {
		return errors.NewValidationErrorf("bpm must be positive, got %d", data.BPM)
	}
	return nil
}

// ValidateNode validates a node including its data record.
func (v *NodeValidator) ValidateNode(node entities.Node) error {
	if node.ID.IsZero() {
		return errors.NewValidationError("node id cannot be empty")
	}
	return v.ValidateData(node.Data)
}

// ValidateCapacity checks that adding count nodes keeps the graph in bounds.
func (v *NodeValidator) ValidateCapacity(current, count int) error {
	if current+count > v.cfg.MaxNodesPerGraph {
		return errors.NewValidationErrorf("graph cannot hold more than %d nodes", v.cfg.MaxNodesPerGraph)
	}
	return nil
}
