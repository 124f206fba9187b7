package valueobjects

import (
	"fmt"
	"strings"
)

// Strength grades a relationship for presentation.
type Strength string

const (
	StrengthLow    Strength = "low"
	StrengthMedium Strength = "medium"
	StrengthHigh   Strength = "high"
)

func (s Strength) rank() int {
	switch s {
	case StrengthHigh:
		return 2
	case StrengthMedium:
		return 1
	default:
		return 0
	}
}

// Raise returns the stronger of s and other.
func (s Strength) Raise(other Strength) Strength {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// Relation is a structural relation tag carried by directed edges.
type Relation string

const (
	RelationNext       Relation = "next"
	RelationHas        Relation = "has"
	RelationBlendsWith Relation = "blends-with"
	RelationSupports   Relation = "supports"
	RelationInfluences Relation = "influences"
)

// Relations lists the known relation tags.
var Relations = []Relation{RelationNext, RelationHas, RelationBlendsWith, RelationSupports, RelationInfluences}

// ParseRelation accepts the hyphenated and spaced spellings of a relation.
// Unknown values are returned as-is with ok=false.
func ParseRelation(raw string) (Relation, bool) {
	r := Relation(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "-"))
	for _, known := range Relations {
		if r == known {
			return r, true
		}
	}
	return r, false
}

// EdgeStyle carries presentation hints for an edge.
type EdgeStyle struct {
	Stroke          string  `json:"stroke,omitempty"`
	StrokeWidth     float64 `json:"strokeWidth,omitempty"`
	StrokeDasharray string  `json:"strokeDasharray,omitempty"`
	Opacity         float64 `json:"opacity,omitempty"`
}

// IsDashed reports whether the style has a dash pattern.
func (s EdgeStyle) IsDashed() bool {
	return s.StrokeDasharray != ""
}

func (s EdgeStyle) String() string {
	return fmt.Sprintf("stroke=%s width=%g dash=%q opacity=%g", s.Stroke, s.StrokeWidth, s.StrokeDasharray, s.Opacity)
}
