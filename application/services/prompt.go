package services

import (
	"fmt"
	"strings"

	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
)

// EmptyGraphPrompt is the music prompt for a graph without nodes.
const EmptyGraphPrompt = "Create ambient background music"

const productionSuffix = ". High-quality production with clear separation between elements."

// BuildMusicPrompt describes a graph as a text prompt for music generation.
// A structured graph is described section by section following its next
// links; otherwise the instruments are listed with their key and tempo.
func BuildMusicPrompt(g *aggregates.Graph) string {
	if g == nil || g.NodeCount() == 0 {
		return EmptyGraphPrompt
	}
	nodes := g.Nodes()
	edges := g.Edges()
	index := entities.IndexNodes(nodes)

	var sections, instruments []entities.Node
	var genres, moods []string
	for _, n := range nodes {
		switch {
		case n.IsSection():
			sections = append(sections, n)
		case n.Data.Type == valueobjects.TypeGenre && n.Data.Section != "":
			moods = append(moods, n.Data.Label)
		case n.Data.Type == valueobjects.TypeGenre:
			genres = append(genres, n.Data.Label)
		case isSongLevel(n):
		default:
			instruments = append(instruments, n)
		}
	}

	next := map[valueobjects.NodeID]valueobjects.NodeID{}
	incoming := map[valueobjects.NodeID]bool{}
	children := map[valueobjects.NodeID][]entities.Node{}
	for _, e := range edges {
		src, okS := index[e.Source]
		dst, okT := index[e.Target]
		if !okS || !okT || !src.IsSection() {
			continue
		}
		switch e.Data.Relation {
		case valueobjects.RelationNext:
			if dst.IsSection() {
				if _, taken := next[src.ID]; !taken {
					next[src.ID] = dst.ID
				}
				incoming[dst.ID] = true
			}
		case valueobjects.RelationHas:
			children[src.ID] = append(children[src.ID], dst)
		}
	}

	var parts []string
	if len(genres) > 0 {
		parts = append(parts, strings.Join(genres, ", ")+" style")
	}

	switch {
	case len(next) > 0:
		parts = append(parts, "Track structure:")
		for _, sec := range sectionFlow(sections, next, incoming, index) {
			desc := describe(sec)
			var with []string
			for _, child := range children[sec.ID] {
				with = append(with, describe(child))
			}
			if len(with) > 0 {
				desc += " with " + strings.Join(with, ", ")
			}
			parts = append(parts, desc)
		}
	case len(instruments) > 0:
		descs := make([]string, 0, len(instruments))
		for _, n := range instruments {
			desc := describe(n)
			if !n.Data.Key.IsZero() {
				desc += " in " + n.Data.Key.String()
			}
			if !n.Data.BPM.IsZero() {
				desc += fmt.Sprintf(" at %d BPM", n.Data.BPM.Int())
			}
			descs = append(descs, desc)
		}
		parts = append(parts, "featuring "+strings.Join(descs, ", "))
	}

	if len(moods) > 0 {
		parts = append(parts, "with "+strings.Join(moods, ", ")+" mood")
	}

	total, count := 0, 0
	for _, n := range nodes {
		if !n.Data.BPM.IsZero() {
			total += n.Data.BPM.Int()
			count++
		}
	}
	if count > 0 {
		parts = append(parts, fmt.Sprintf("tempo around %d BPM", total/count))
	}

	return strings.Join(parts, ". ") + productionSuffix
}

// sectionFlow orders sections from the first one without an incoming next
// link, following next links until the chain ends or loops.
func sectionFlow(
	sections []entities.Node,
	next map[valueobjects.NodeID]valueobjects.NodeID,
	incoming map[valueobjects.NodeID]bool,
	index map[valueobjects.NodeID]entities.Node,
) []entities.Node {
	var start *entities.Node
	for i := range sections {
		if !incoming[sections[i].ID] {
			start = &sections[i]
			break
		}
	}
	if start == nil {
		return nil
	}

	flow := []entities.Node{*start}
	visited := map[valueobjects.NodeID]bool{start.ID: true}
	for cur := start.ID; ; {
		id, ok := next[cur]
		if !ok || visited[id] {
			break
		}
		visited[id] = true
		flow = append(flow, index[id])
		cur = id
	}
	return flow
}

func describe(n entities.Node) string {
	if n.Data.Details != "" {
		return n.Data.Details
	}
	return n.Data.Label
}

// isSongLevel reports whether n is a song-wide key or tempo marker.
func isSongLevel(n entities.Node) bool {
	return strings.HasPrefix(n.ID.String(), "song-")
}
