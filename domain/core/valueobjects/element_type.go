package valueobjects

import (
	"fmt"
	"strings"
)

// ElementType is the kind of musical element a node represents.
type ElementType string

const (
	TypeBassline ElementType = "bassline"
	TypeDrum     ElementType = "drum"
	TypeMelody   ElementType = "melody"
	TypeGenre    ElementType = "genre"
	TypeChord    ElementType = "chord"
	TypeVocal    ElementType = "vocal"
	TypeFX       ElementType = "fx"
	TypeSynth    ElementType = "synth"
	TypeSection  ElementType = "section"
)

// ElementTypes lists every valid type in declaration order.
var ElementTypes = []ElementType{
	TypeBassline, TypeDrum, TypeMelody, TypeGenre, TypeChord,
	TypeVocal, TypeFX, TypeSynth, TypeSection,
}

// ParseElementType parses a type name, case-insensitively.
func ParseElementType(raw string) (ElementType, error) {
	t := ElementType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown element type %q", raw)
	}
	return t, nil
}

// IsValid reports whether t is one of the known types.
func (t ElementType) IsValid() bool {
	for _, known := range ElementTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsRhythmic reports whether t belongs to the rhythm section.
func (t ElementType) IsRhythmic() bool {
	return t == TypeDrum || t == TypeBassline
}

// IsHarmonic reports whether t carries harmony.
func (t ElementType) IsHarmonic() bool {
	return t == TypeMelody || t == TypeChord || t == TypeSynth
}

// IsMelodic reports whether a song key applies to t.
func (t ElementType) IsMelodic() bool {
	return t.IsHarmonic() || t == TypeBassline
}

func (t ElementType) String() string {
	return string(t)
}
