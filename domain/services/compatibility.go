package services

import (
	"fmt"
	"strings"

	"jamflow/domain/config"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
)

const (
	relationshipLayered    = "layered with"
	relationshipBlends     = "blends with"
	relationshipInfluences = "influences"
	relationshipRelates    = "relates to"
)

// Verdict is the outcome of comparing two musical elements.
type Verdict struct {
	Compatible   bool                  `json:"compatible"`
	Reason       string                `json:"reason"`
	Reasons      []string              `json:"reasons"`
	Strength     valueobjects.Strength `json:"strength"`
	Score        int                   `json:"score"`
	Relationship string                `json:"relationship"`
}

// CompatibilityEngine scores pairs of musical elements. Every rule is
// evaluated in a fixed order and contributes to a running score; the pair is
// compatible when the score ends up positive. Strength only ever rises.
type CompatibilityEngine struct {
	weights config.CompatibilityWeights
}

// NewCompatibilityEngine creates an engine using the configured weights.
func NewCompatibilityEngine(cfg *config.DomainConfig) *CompatibilityEngine {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &CompatibilityEngine{weights: cfg.Compatibility}
}

// Evaluate compares a and b. It has no side effects and always returns a
// verdict.
func (e *CompatibilityEngine) Evaluate(a, b entities.Node) Verdict {
	if a.IsSection() || b.IsSection() {
		return Verdict{
			Reason:       "section nodes are structural",
			Strength:     valueobjects.StrengthLow,
			Relationship: relationshipRelates,
		}
	}

	w := e.weights
	da, db := a.Data, b.Data
	v := Verdict{Strength: valueobjects.StrengthLow}
	add := func(reason string, score int, strength valueobjects.Strength) {
		v.Reasons = append(v.Reasons, reason)
		v.Score += score
		v.Strength = v.Strength.Raise(strength)
	}

	if !da.Key.IsZero() && !db.Key.IsZero() {
		if valueobjects.AreRelated(da.Key, db.Key) {
			add(fmt.Sprintf("Keys: %s ↔ %s", da.Key, db.Key), w.KeyMatch, valueobjects.StrengthHigh)
		} else {
			add(fmt.Sprintf("Keys clash: %s vs %s", da.Key, db.Key), w.KeyClash, valueobjects.StrengthLow)
		}
	}

	if !da.BPM.IsZero() && !db.BPM.IsZero() {
		switch delta := da.BPM.Delta(db.BPM); {
		case delta == 0:
			add(fmt.Sprintf("Perfect tempo: %d BPM", da.BPM), w.TempoExact, valueobjects.StrengthHigh)
		case delta <= w.CloseTempoBPM:
			add(fmt.Sprintf("Close tempo: %d↔%d BPM (Δ%d)", da.BPM, db.BPM, delta), w.TempoClose, valueobjects.StrengthMedium)
		case delta <= w.NearTempoBPM:
			add(fmt.Sprintf("Tempo diff: %d BPM", delta), w.TempoNear, valueobjects.StrengthLow)
		default:
			add(fmt.Sprintf("Tempo clash: %d BPM apart", delta), w.TempoClash, valueobjects.StrengthLow)
		}
	}

	rhythm := da.Type.IsRhythmic() && db.Type.IsRhythmic()
	harmonic := da.Type.IsHarmonic() && db.Type.IsHarmonic()
	genre := da.Type == valueobjects.TypeGenre || db.Type == valueobjects.TypeGenre

	if rhythm {
		add("Rhythm section pair", w.RhythmPair, valueobjects.StrengthHigh)
	}
	if harmonic {
		add("Harmonic elements", w.Harmonic, valueobjects.StrengthMedium)
	}
	if genre {
		add("Genre context", w.Genre, valueobjects.StrengthMedium)
	}
	if da.Type == valueobjects.TypeFX || db.Type == valueobjects.TypeFX {
		add("Effect processing", w.Effect, valueobjects.StrengthLow)
	}
	if da.Type == valueobjects.TypeVocal || db.Type == valueobjects.TypeVocal {
		add("Vocal arrangement", w.Vocal, valueobjects.StrengthMedium)
	}
	if (da.Type == valueobjects.TypeBassline && db.Type == valueobjects.TypeMelody) ||
		(da.Type == valueobjects.TypeMelody && db.Type == valueobjects.TypeBassline) {
		add("Bass-melody relationship", w.BassMelody, valueobjects.StrengthLow)
	}

	if len(v.Reasons) == 0 {
		add("Generic compatibility", w.Generic, valueobjects.StrengthLow)
	}

	switch {
	case rhythm:
		v.Relationship = relationshipLayered
	case harmonic:
		v.Relationship = relationshipBlends
	case genre:
		v.Relationship = relationshipInfluences
	default:
		v.Relationship = relationshipRelates
	}

	v.Compatible = v.Score > 0
	v.Reason = fmt.Sprintf("%s\nScore: %d\n%s", v.Relationship, v.Score, strings.Join(v.Reasons, "\n"))
	return v
}
