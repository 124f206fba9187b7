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

var sectionTable = []synonym{
	{"Intro", []string{"intro", "intros"}},
	{"Verse", []string{"verse", "verses"}},
	{"Pre-Chorus", []string{"pre-chorus", "prechorus", "pre chorus", "pre-choruses", "prechoruses"}},
	{"Chorus", []string{"chorus", "choruses"}},
	{"Bridge", []string{"bridge", "bridges"}},
	{"Outro", []string{"outro", "outros"}},
	{"Drop", []string{"drop", "drops"}},
	{"Breakdown", []string{"breakdown", "breakdowns"}},
	{"Hook", []string{"hook", "hooks"}},
}

var instrumentTable = []synonym{
	{"Bass", []string{"bass", "bassline", "basslines"}},
	{"Drums", []string{"drums", "drum"}},
	{"Guitar", []string{"guitar", "guitars"}},
	{"Piano", []string{"piano", "pianos"}},
	{"Synth", []string{"synth", "synths"}},
	{"Vocals", []string{"vocals", "vocal"}},
	{"Pad", []string{"pad", "pads"}},
	{"Lead", []string{"lead", "leads"}},
	{"Strings", []string{"strings"}},
	{"Brass", []string{"brass"}},
	{"Percussion", []string{"percussion"}},
	{"Hi-Hat", []string{"hi-hat", "hi-hats", "hi hat", "hi hats", "hihat", "hihats"}},
	{"Kick", []string{"kick", "kicks"}},
	{"Snare", []string{"snare", "snares"}},
	{"808", []string{"808", "808s"}},
}

var instrumentTypes = map[string]valueobjects.ElementType{
	"Bass":       valueobjects.TypeBassline,
	"808":        valueobjects.TypeBassline,
	"Drums":      valueobjects.TypeDrum,
	"Percussion": valueobjects.TypeDrum,
	"Hi-Hat":     valueobjects.TypeDrum,
	"Kick":       valueobjects.TypeDrum,
	"Snare":      valueobjects.TypeDrum,
	"Synth":      valueobjects.TypeSynth,
	"Pad":        valueobjects.TypeSynth,
	"Vocals":     valueobjects.TypeVocal,
}

var moodWords = []string{
	"energetic", "calm", "dark", "bright", "mellow", "aggressive", "uplifting",
	"melancholic", "happy", "sad", "intense", "chill", "dramatic", "ambient", "driving",
}

var (
	detectPattern     = regexp.MustCompile(`(?i)\b(intro|verse|chorus|bridge|outro|pre-?chorus|drop|breakdown|hook|section|part)(?:e?s)?\b`)
	sectionPattern    = regexp.MustCompile(`(?i)\b(` + alternation(sectionTable) + `)\b`)
	instrumentPattern = regexp.MustCompile(`(?i)\b(` + alternation(instrumentTable) + `)\b`)
	moodPattern       = regexp.MustCompile(`(?i)\b(` + strings.Join(moodWords, "|") + `)\b`)
)

// StructureParser builds a song-structure graph: ordered section containers
// with the instruments and moods heard in each.
type StructureParser struct {
	cfg    *config.DomainConfig
	styler *services.EdgeStyler
}

// NewStructureParser creates a structure parser.
func NewStructureParser(cfg *config.DomainConfig, styler *services.EdgeStyler) *StructureParser {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &StructureParser{cfg: cfg, styler: styler}
}

// Detect reports whether the transcript talks about song sections.
func (p *StructureParser) Detect(transcript string) bool {
	return detectPattern.MatchString(transcript)
}

type segment struct {
	name string
	text string
}

// segments splits the transcript at each section keyword. Text before the
// first keyword belongs to no section.
func segments(transcript string) []segment {
	matches := sectionPattern.FindAllStringSubmatchIndex(transcript, -1)
	out := make([]segment, 0, len(matches))
	counts := make(map[string]int)
	for i, m := range matches {
		end := len(transcript)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		name := canonical(sectionTable, transcript[m[2]:m[3]])
		counts[name]++
		if counts[name] > 1 {
			name = fmt.Sprintf("%s %d", name, counts[name])
		}
		out = append(out, segment{name: name, text: transcript[m[1]:end]})
	}
	return out
}

// builder accumulates the structure graph.
type builder struct {
	cfg      *config.DomainConfig
	nodes    []entities.Node
	edges    []entities.Edge
	sections []entities.Node
	children []entities.Node
	nextInst int
	nextMood int
}

// Parse builds the structure graph. A transcript without section keywords
// yields an empty result.
func (p *StructureParser) Parse(transcript string) Result {
	if strings.TrimSpace(transcript) == "" {
		return emptyResult()
	}
	segs := segments(transcript)
	if len(segs) == 0 {
		return emptyResult()
	}

	b := &builder{cfg: p.cfg}
	for i, seg := range segs {
		b.addSection(i, seg)
	}
	b.linkSections()
	b.linkAcrossSections()
	b.addSongLevel(transcript, len(segs))

	return Result{Nodes: b.nodes, Edges: p.styler.Restyle(b.edges, b.nodes)}
}

func (b *builder) add(id string, data entities.NodeData, pos valueobjects.Position) (entities.Node, bool) {
	node, err := entities.NewNode(valueobjects.NodeID(id), data, pos)
	if err != nil {
		return entities.Node{}, false
	}
	b.nodes = append(b.nodes, node)
	return node, true
}

func (b *builder) addSection(i int, seg segment) {
	layout := b.cfg.Layout
	sx := float64(i) * layout.SectionSpacingX

	section, ok := b.add(fmt.Sprintf("section-%d", i+1),
		entities.NodeData{Label: seg.name, Type: valueobjects.TypeSection, IsSection: true},
		valueobjects.NewPosition(sx, layout.SectionY))
	if !ok {
		return
	}
	b.sections = append(b.sections, section)

	for k, label := range uniqueMatches(instrumentPattern, instrumentTable, seg.text) {
		b.nextInst++
		typ, known := instrumentTypes[label]
		if !known {
			typ = valueobjects.TypeMelody
		}
		child, ok := b.add(fmt.Sprintf("inst-%d", b.nextInst),
			entities.NodeData{Label: label, Type: typ, Section: seg.name},
			valueobjects.NewPosition(sx-50+float64(k)*layout.ChildSpacingX, layout.InstrumentY))
		if ok {
			b.children = append(b.children, child)
			b.edges = append(b.edges, b.hasEdge(section, child, b.cfg.Palette.Instrument))
		}
	}

	for k, label := range uniqueMatches(moodPattern, nil, seg.text) {
		b.nextMood++
		child, ok := b.add(fmt.Sprintf("mood-%d", b.nextMood),
			entities.NodeData{Label: label, Type: valueobjects.TypeGenre, Section: seg.name},
			valueobjects.NewPosition(sx-50+float64(k)*layout.ChildSpacingX, layout.MoodY))
		if ok {
			b.children = append(b.children, child)
			b.edges = append(b.edges, b.hasEdge(section, child, b.cfg.Palette.Mood))
		}
	}
}

// uniqueMatches returns the canonical labels found in text, first
// occurrence order.
func uniqueMatches(pattern *regexp.Regexp, table []synonym, text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		label := canonical(table, m[1])
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}

func (b *builder) hasEdge(section, child entities.Node, stroke string) entities.Edge {
	return entities.Edge{
		ID:       valueobjects.EdgeID(fmt.Sprintf("edge-%s-%s", section.ID, child.ID)),
		Source:   section.ID,
		Target:   child.ID,
		Label:    string(valueobjects.RelationHas),
		Directed: true,
		Style:    valueobjects.EdgeStyle{Stroke: stroke, StrokeWidth: b.cfg.DefaultStroke},
		Data:     structureData(valueobjects.RelationHas, entities.EmphasisNormal),
	}
}

func (b *builder) linkSections() {
	for i := 0; i+1 < len(b.sections); i++ {
		from, to := b.sections[i], b.sections[i+1]
		b.edges = append(b.edges, entities.Edge{
			ID:       valueobjects.EdgeID(fmt.Sprintf("edge-%s-next", from.ID)),
			Source:   from.ID,
			Target:   to.ID,
			Label:    string(valueobjects.RelationNext),
			Directed: true,
			Animated: true,
			Style:    valueobjects.EdgeStyle{Stroke: b.cfg.Palette.Sequence, StrokeWidth: 4},
			Data:     structureData(valueobjects.RelationNext, entities.EmphasisNormal),
		})
	}
}

// linkAcrossSections chains consecutive children of the same class that sit
// in different sections.
func (b *builder) linkAcrossSections() {
	var order []string
	byClass := make(map[string][]entities.Node)
	for _, child := range b.children {
		class := child.EquivalenceClass()
		if _, ok := byClass[class]; !ok {
			order = append(order, class)
		}
		byClass[class] = append(byClass[class], child)
	}

	for _, class := range order {
		members := byClass[class]
		for i := 0; i+1 < len(members); i++ {
			a, c := members[i], members[i+1]
			if a.Data.Section == c.Data.Section {
				continue
			}
			kind, rel, stroke := "inst", valueobjects.RelationBlendsWith, b.cfg.Palette.Default
			if a.Data.Type == valueobjects.TypeGenre {
				kind, rel, stroke = "mood", valueobjects.RelationInfluences, b.cfg.Palette.Mood
			}
			b.edges = append(b.edges, entities.Edge{
				ID:     valueobjects.EdgeID(fmt.Sprintf("edge-cross-%s-%s-%s", kind, a.ID, c.ID)),
				Source: a.ID,
				Target: c.ID,
				Label:  string(rel),
				Style:  valueobjects.EdgeStyle{Stroke: stroke, StrokeWidth: b.cfg.DefaultStroke},
				Data:   structureData(rel, entities.EmphasisNormal),
			})
		}
	}
}

func (b *builder) addSongLevel(transcript string, sectionCount int) {
	layout := b.cfg.Layout
	totalWidth := float64(sectionCount) * layout.SectionSpacingX
	palette := b.cfg.Palette

	if genres := findGenres(transcript); len(genres) > 0 {
		genre, ok := b.add("song-genre",
			entities.NodeData{Label: genres[0], Type: valueobjects.TypeGenre},
			valueobjects.NewPosition(totalWidth/2-100, -150))
		if ok {
			for _, section := range b.sections {
				b.edges = append(b.edges, b.songEdge(genre, section, valueobjects.RelationInfluences, palette.Influences, 0.5))
			}
		}
	}

	if key, found := songKey(transcript); found {
		node, ok := b.add("song-key",
			entities.NodeData{Label: "Key: " + key.String(), Type: valueobjects.TypeChord, Key: key},
			valueobjects.NewPosition(-200, layout.SectionY))
		if ok {
			for _, child := range b.children {
				if child.Data.Type.IsMelodic() {
					b.edges = append(b.edges, b.songEdge(node, child, valueobjects.RelationBlendsWith, palette.Instrument, 0.4))
				}
			}
		}
	}

	if bpm, found := songBPM(transcript, b.cfg.MaxBPM); found {
		node, ok := b.add("song-bpm",
			entities.NodeData{Label: fmt.Sprintf("%d BPM", bpm.Int()), Type: valueobjects.TypeDrum, BPM: bpm},
			valueobjects.NewPosition(totalWidth+100, layout.SectionY))
		if ok {
			for _, child := range b.children {
				if child.Data.Type.IsRhythmic() {
					b.edges = append(b.edges, b.songEdge(node, child, valueobjects.RelationSupports, palette.Tempo, 0.4))
				}
			}
		}
	}
}

func (b *builder) songEdge(from, to entities.Node, rel valueobjects.Relation, stroke string, opacity float64) entities.Edge {
	return entities.Edge{
		ID:     valueobjects.EdgeID(fmt.Sprintf("edge-%s-%s", from.ID, to.ID)),
		Source: from.ID,
		Target: to.ID,
		Label:  string(rel),
		Style: valueobjects.EdgeStyle{
			Stroke:          stroke,
			StrokeWidth:     1.5,
			StrokeDasharray: b.cfg.LowEmphasisDash,
			Opacity:         opacity,
		},
		Data: structureData(rel, entities.EmphasisLow),
	}
}

func structureData(rel valueobjects.Relation, emphasis entities.Emphasis) entities.EdgeData {
	return entities.EdgeData{Relation: rel, Origin: entities.OriginStructure, Emphasis: emphasis}
}
