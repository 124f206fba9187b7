package parsing

import (
	"fmt"
	"regexp"
	"strings"

	"jamflow/domain/config"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
	"jamflow/domain/services"
)

// flatRule recognises one element type.
type flatRule struct {
	typ      valueobjects.ElementType
	table    []synonym
	withKey  bool
	withBPM  bool
	compiled *regexp.Regexp
}

var flatRules = []*flatRule{
	{typ: valueobjects.TypeBassline, withKey: true, withBPM: true, table: []synonym{
		{"Sub Bass", []string{"sub bass", "sub-bass"}},
		{"Bass Guitar", []string{"bass guitar"}},
		{"Bassline", []string{"bassline", "basslines", "bass line"}},
		{"Bass", []string{"bass"}},
		{"808", []string{"808", "808s"}},
	}},
	{typ: valueobjects.TypeDrum, withBPM: true, table: []synonym{
		{"Drum Loop", []string{"drum loop"}},
		{"Drum Pattern", []string{"drum pattern"}},
		{"Drums", []string{"drums", "drum"}},
		{"Beat", []string{"beat", "beats"}},
		{"Kick", []string{"kick", "kicks"}},
		{"Snare", []string{"snare", "snares"}},
		{"Hi-Hat", []string{"hi-hat", "hi-hats", "hi hat", "hi hats", "hihat", "hihats"}},
	}},
	{typ: valueobjects.TypeMelody, withKey: true, withBPM: true, table: []synonym{
		{"Melody", []string{"melody", "melodies"}},
		{"Lead", []string{"lead"}},
		{"Piano", []string{"piano"}},
		{"Keys", []string{"keys"}},
	}},
	{typ: valueobjects.TypeGenre, table: genreTable},
	{typ: valueobjects.TypeChord, withKey: true, withBPM: true, table: []synonym{
		{"Chords", []string{"chord progression", "chords", "chord"}},
	}},
	{typ: valueobjects.TypeVocal, table: []synonym{
		{"Vocals", []string{"vocals", "vocal"}},
		{"Voice", []string{"voice"}},
		{"Singing", []string{"singing"}},
		{"Rap", []string{"rap"}},
		{"Lyrics", []string{"lyrics"}},
	}},
	{typ: valueobjects.TypeFX, table: []synonym{
		{"FX", []string{"fx", "sfx"}},
		{"Effects", []string{"effects", "effect"}},
		{"Reverb", []string{"reverb"}},
		{"Delay", []string{"delay"}},
		{"Filter", []string{"filter"}},
	}},
	{typ: valueobjects.TypeSynth, withKey: true, withBPM: true, table: []synonym{
		{"Synth", []string{"synthesizer", "synths", "synth"}},
		{"Pad", []string{"pads", "pad"}},
		{"Arpeggio", []string{"arpeggio", "arp"}},
	}},
}

func init() {
	for _, rule := range flatRules {
		pattern := `(?i)\b(` + alternation(rule.table) + `)\b`
		if rule.withKey {
			pattern += `(?:\s+in\s+(the\s+key\s+of\s+)?` + keyToken + keyEnd + `)?`
		}
		if rule.withBPM {
			pattern += `(?:\s*(?:at\s+)?(\d{2,3})\s*bpm\b)?`
		}
		rule.compiled = regexp.MustCompile(pattern)
	}
}

// fallbackVocabulary is scanned by substring when no pattern matches.
var fallbackVocabulary = []string{
	"bass", "drum", "melody", "chord", "vocal", "synth", "beat", "trap", "house",
	"techno", "hip hop", "dnb", "dubstep", "kick", "snare", "hi-hat", "pad",
	"lead", "arpeggio", "reverb", "delay", "filter",
}

// FlatParser builds a discovery graph: a flat list of elements joined by
// compatibility edges.
type FlatParser struct {
	cfg          *config.DomainConfig
	recalculator *services.EdgeRecalculator
	styler       *services.EdgeStyler
}

// NewFlatParser creates a flat parser.
func NewFlatParser(cfg *config.DomainConfig, recalculator *services.EdgeRecalculator, styler *services.EdgeStyler) *FlatParser {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &FlatParser{cfg: cfg, recalculator: recalculator, styler: styler}
}

type mention struct {
	typ   valueobjects.ElementType
	label string
	key   valueobjects.Key
	bpm   valueobjects.BPM
}

// Parse recognises elements in transcript. Mentions are grouped by type and
// label; a later mention supplies a key or tempo the first one lacked.
func (p *FlatParser) Parse(transcript string) Result {
	if strings.TrimSpace(transcript) == "" {
		return emptyResult()
	}

	mentions := p.scan(transcript)
	if len(mentions) == 0 {
		mentions = p.fallback(transcript)
	}
	if len(mentions) == 0 {
		return emptyResult()
	}

	layout := p.cfg.Layout
	nodes := make([]entities.Node, 0, len(mentions))
	for i, m := range mentions {
		node, err := entities.NewNode(
			valueobjects.NodeID(fmt.Sprintf("node-%d", i+1)),
			entities.NodeData{Label: m.label, Type: m.typ, Key: m.key, BPM: m.bpm},
			valueobjects.GridPosition(i, layout.GridColumns, layout.GridSpacingX, layout.GridSpacingY, layout.GridOffset),
		)
		if err != nil {
			continue
		}
		nodes = append(nodes, node)
	}

	edges := p.recalculator.Recalculate(nodes)
	return Result{Nodes: nodes, Edges: p.styler.Restyle(edges, nodes)}
}

func (p *FlatParser) scan(transcript string) []mention {
	var out []mention
	seen := make(map[string]int)

	for _, rule := range flatRules {
		for _, idx := range rule.compiled.FindAllStringSubmatchIndex(transcript, -1) {
			groups := submatches(transcript, idx)
			m := mention{typ: rule.typ, label: canonical(rule.table, groups[1])}

			next := 2
			if rule.withKey {
				if key, ok := acceptKey(groups[next+1], groups[next] != ""); ok {
					m.key = key
				}
				next += 2
			}
			if rule.withBPM && groups[next] != "" {
				if bpm, err := valueobjects.NewBPM(atoi(groups[next]), p.cfg.MaxBPM); err == nil {
					m.bpm = bpm
				}
			}

			dedup := string(m.typ) + "|" + strings.ToLower(m.label)
			if at, ok := seen[dedup]; ok {
				if out[at].key.IsZero() {
					out[at].key = m.key
				}
				if out[at].bpm.IsZero() {
					out[at].bpm = m.bpm
				}
				continue
			}
			seen[dedup] = len(out)
			out = append(out, m)
		}
	}
	return out
}

func (p *FlatParser) fallback(transcript string) []mention {
	lower := strings.ToLower(transcript)
	var out []mention
	for _, word := range fallbackVocabulary {
		if len(out) >= p.cfg.MaxFallbackNodes {
			break
		}
		if !strings.Contains(lower, word) {
			continue
		}
		label := titleCase(word)
		if word == "dnb" {
			label = "DnB"
		}
		out = append(out, mention{typ: fallbackType(word), label: label})
	}
	return out
}

// fallbackType types a fallback word the same way the keyword rules type it;
// "lead" and unknown words are melody.
func fallbackType(word string) valueobjects.ElementType {
	has := func(parts ...string) bool {
		for _, part := range parts {
			if strings.Contains(word, part) {
				return true
			}
		}
		return false
	}
	switch {
	case has("bass"):
		return valueobjects.TypeBassline
	case has("drum", "beat", "kick", "snare", "hi-hat"):
		return valueobjects.TypeDrum
	case has("chord"):
		return valueobjects.TypeChord
	case has("vocal"):
		return valueobjects.TypeVocal
	case has("synth", "pad", "arpeggio"):
		return valueobjects.TypeSynth
	case has("trap", "house", "techno", "hip hop", "dnb", "dubstep"):
		return valueobjects.TypeGenre
	case has("reverb", "delay", "filter"):
		return valueobjects.TypeFX
	default:
		return valueobjects.TypeMelody
	}
}

// submatches expands a submatch index slice into strings, "" for groups that
// did not participate.
func submatches(s string, idx []int) []string {
	out := make([]string, len(idx)/2)
	for i := range out {
		if idx[2*i] >= 0 {
			out[i] = s[idx[2*i]:idx[2*i+1]]
		}
	}
	return out
}
