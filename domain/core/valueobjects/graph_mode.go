package valueobjects

import (
	"fmt"
	"strings"
)

// GraphMode selects how edges are maintained.
type GraphMode string

const (
	// ModeDiscovery derives edges from pairwise compatibility.
	ModeDiscovery GraphMode = "discovery"
	// ModeStructure keeps the edges supplied by the structure parser or an
	// external command source.
	ModeStructure GraphMode = "structure"
)

// ParseGraphMode parses a mode name.
func ParseGraphMode(raw string) (GraphMode, error) {
	switch m := GraphMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeDiscovery, ModeStructure:
		return m, nil
	default:
		return "", fmt.Errorf("unknown graph mode %q", raw)
	}
}

func (m GraphMode) String() string {
	return string(m)
}
