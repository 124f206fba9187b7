package dispatch

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"jamflow/domain/config"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/validators"
	"jamflow/domain/core/valueobjects"
	"jamflow/domain/services"
	"jamflow/pkg/utils"
)

// State is the snapshot a batch is validated against.
type State struct {
	Nodes []entities.Node
	Edges []entities.Edge
}

// Mutator receives the net changes of a batch once validation is complete.
// Each method is called at most once per batch and only with a non-empty
// slice, in the order RemoveNodes, RemoveEdges, AddNodes, ReplaceNodes,
// AddEdges. Removals only name nodes and edges of the input State, and
// additions never reference a removed node.
type Mutator interface {
	AddNodes(nodes []entities.Node)
	ReplaceNodes(nodes []entities.Node)
	AddEdges(edges []entities.Edge)
	RemoveNodes(ids []valueobjects.NodeID)
	RemoveEdges(ids []valueobjects.EdgeID)
}

// Diagnostic explains why a command was skipped.
type Diagnostic struct {
	Index  int    `json:"index"`
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// Result summarises an applied batch.
type Result struct {
	Created      int          `json:"created"`
	Replaced     int          `json:"replaced"`
	Connected    int          `json:"connected"`
	DeletedNodes int          `json:"deleted_nodes"`
	DeletedEdges int          `json:"deleted_edges"`
	Skipped      []Diagnostic `json:"skipped"`
}

// Applied is the number of commands that took effect.
func (r Result) Applied() int {
	return r.Created + r.Replaced + r.Connected + r.DeletedNodes + r.DeletedEdges
}

// typeAliases maps loose type names a command source may use onto the
// element vocabulary.
var typeAliases = map[string]valueobjects.ElementType{
	"bass":       valueobjects.TypeBassline,
	"drums":      valueobjects.TypeDrum,
	"percussion": valueobjects.TypeDrum,
	"chords":     valueobjects.TypeChord,
	"vocals":     valueobjects.TypeVocal,
	"voice":      valueobjects.TypeVocal,
	"effect":     valueobjects.TypeFX,
	"effects":    valueobjects.TypeFX,
	"pad":        valueobjects.TypeSynth,
	"mood":       valueobjects.TypeGenre,
	"instrument": valueobjects.TypeMelody,
}

// Dispatcher validates a batch against a single snapshot and then applies it
// in one go. Invalid commands are skipped; the rest of the batch still
// applies.
type Dispatcher struct {
	layout    config.Layout
	maxEdges  int
	styler    *services.EdgeStyler
	validator *validators.NodeValidator
	clock     utils.Clock
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(
	cfg *config.DomainConfig,
	styler *services.EdgeStyler,
	validator *validators.NodeValidator,
	clock utils.Clock,
	logger *zap.Logger,
) *Dispatcher {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if clock == nil {
		clock = utils.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		layout:    cfg.Layout,
		maxEdges:  cfg.MaxEdgesPerGraph,
		styler:    styler,
		validator: validator,
		clock:     clock,
		logger:    logger,
	}
}

type pair = [2]valueobjects.NodeID

// batch is the validation state of one Apply call.
type batch struct {
	nodes   map[valueobjects.NodeID]entities.Node
	seen    int // nodes ever placed, for grid positions
	live    int // nodes the graph will hold
	deleted map[valueobjects.NodeID]bool
	fresh   map[valueobjects.NodeID]bool // created in this batch

	edgeIDs    map[valueobjects.EdgeID]pair // live edges, for delete and the duplicate guard
	pairs      map[pair]bool
	userEdges  map[valueobjects.EdgeID]bool // live edges counted against the edge limit
	stateEdges map[valueobjects.EdgeID]bool
	usedIDs    map[valueobjects.EdgeID]bool // every id seen or issued, never shrinks
	dropped    map[valueobjects.EdgeID]bool // deleted by a command

	created  []entities.Node
	replaced []entities.Node
	edges    []entities.Edge
	delNodes []valueobjects.NodeID
	delEdges []valueobjects.EdgeID
	result   Result
}

// Apply runs commands against state and flushes the staged changes through
// m. It never fails as a whole; see Result.Skipped for per-command problems.
func (d *Dispatcher) Apply(commands []Command, state State, m Mutator) Result {
	b := &batch{
		nodes:      make(map[valueobjects.NodeID]entities.Node, len(state.Nodes)),
		deleted:    map[valueobjects.NodeID]bool{},
		fresh:      map[valueobjects.NodeID]bool{},
		edgeIDs:    make(map[valueobjects.EdgeID]pair, len(state.Edges)),
		pairs:      make(map[pair]bool, len(state.Edges)),
		userEdges:  map[valueobjects.EdgeID]bool{},
		stateEdges: make(map[valueobjects.EdgeID]bool, len(state.Edges)),
		usedIDs:    make(map[valueobjects.EdgeID]bool, len(state.Edges)),
		dropped:    map[valueobjects.EdgeID]bool{},
		result:     Result{Skipped: []Diagnostic{}},
	}
	for _, n := range state.Nodes {
		b.nodes[n.ID] = n
	}
	b.seen = len(b.nodes)
	b.live = len(b.nodes)
	for _, e := range state.Edges {
		b.edgeIDs[e.ID] = pair{e.Source, e.Target}
		b.pairs[pair{e.Source, e.Target}] = true
		b.stateEdges[e.ID] = true
		b.usedIDs[e.ID] = true
		if e.IsUserDrawn() {
			b.userEdges[e.ID] = true
		}
	}

	for i, cmd := range commands {
		var reason string
		switch c := cmd.(type) {
		case CreateNode:
			reason = d.createNode(b, c)
		case ConnectNodes:
			reason = d.connectNodes(b, c)
		case DeleteByID:
			reason = d.deleteByID(b, c)
		case Unrecognized:
			reason = c.Reason
		default:
			reason = fmt.Sprintf("unsupported command %T", cmd)
		}
		if reason != "" {
			d.skip(b, i, cmd, reason)
		}
	}

	b.flush(m)

	d.logger.Debug("Command batch applied",
		zap.Int("commands", len(commands)),
		zap.Int("applied", b.result.Applied()),
		zap.Int("skipped", len(b.result.Skipped)),
	)
	return b.result
}

// flush hands the net effect of the batch to m. Nodes and edges both added
// and deleted within the batch never reach it.
func (b *batch) flush(m Mutator) {
	var delNodes []valueobjects.NodeID
	for _, id := range b.delNodes {
		if !b.fresh[id] {
			delNodes = append(delNodes, id)
		}
	}
	var delEdges []valueobjects.EdgeID
	for _, id := range b.delEdges {
		if b.stateEdges[id] {
			delEdges = append(delEdges, id)
		}
	}
	var created, replaced []entities.Node
	for _, n := range b.created {
		if !b.deleted[n.ID] {
			created = append(created, b.nodes[n.ID])
		}
	}
	for _, n := range b.replaced {
		if !b.deleted[n.ID] {
			replaced = append(replaced, n)
		}
	}
	var edges []entities.Edge
	for _, e := range b.edges {
		if !b.dropped[e.ID] && !b.deleted[e.Source] && !b.deleted[e.Target] {
			edges = append(edges, e)
		}
	}

	if len(delNodes) > 0 {
		m.RemoveNodes(delNodes)
	}
	if len(delEdges) > 0 {
		m.RemoveEdges(delEdges)
	}
	if len(created) > 0 {
		m.AddNodes(created)
	}
	if len(replaced) > 0 {
		m.ReplaceNodes(replaced)
	}
	if len(edges) > 0 {
		m.AddEdges(edges)
	}
}

func (d *Dispatcher) skip(b *batch, index int, cmd Command, reason string) {
	b.result.Skipped = append(b.result.Skipped, Diagnostic{Index: index, Action: cmd.Action(), Reason: reason})
	d.logger.Warn("Skipping graph command",
		zap.Int("index", index),
		zap.String("action", cmd.Action()),
		zap.String("reason", reason),
	)
}

func (d *Dispatcher) createNode(b *batch, c CreateNode) string {
	id, err := valueobjects.ParseNodeID(c.ID)
	if err != nil {
		return err.Error()
	}
	_, exists := b.nodes[id]
	replacing := exists && b.deleted[id]
	if exists && !replacing {
		return fmt.Sprintf("node %q already exists", id)
	}

	typ, err := resolveType(c.Type)
	if err != nil {
		return err.Error()
	}
	data := entities.NodeData{
		Label:   c.Label,
		Type:    typ,
		Key:     valueobjects.Key(c.Key),
		BPM:     valueobjects.BPM(c.BPM),
		Section: c.Section,
	}

	var position valueobjects.Position
	switch {
	case c.Position != nil:
		position = valueobjects.NewPosition(c.Position.X, c.Position.Y)
	case replacing:
		position = b.nodes[id].Position
	default:
		position = valueobjects.GridPosition(b.seen, d.layout.GridColumns, d.layout.GridSpacingX, d.layout.GridSpacingY, d.layout.GridOffset)
	}

	node, err := entities.NewNode(id, data, position)
	if err != nil {
		return err.Error()
	}
	if err := d.validator.ValidateNode(node); err != nil {
		return err.Error()
	}

	if err := d.validator.ValidateCapacity(b.live, 1); err != nil {
		return err.Error()
	}

	if replacing && b.nodes[id].Data.Type != node.Data.Type {
		b.forgetEdges(id)
	}
	b.nodes[id] = node
	b.live++
	if replacing {
		delete(b.deleted, id)
		b.delNodes = removeID(b.delNodes, id)
		b.result.DeletedNodes--
		b.result.Replaced++
		if !b.fresh[id] {
			b.replaced = append(b.replaced, node)
		}
		return ""
	}
	b.seen++
	b.fresh[id] = true
	b.created = append(b.created, node)
	b.result.Created++
	return ""
}

func resolveType(raw string) (valueobjects.ElementType, error) {
	if t, err := valueobjects.ParseElementType(raw); err == nil {
		return t, nil
	}
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown node type %q", raw)
}

func removeID(ids []valueobjects.NodeID, id valueobjects.NodeID) []valueobjects.NodeID {
	out := ids[:0:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func (d *Dispatcher) connectNodes(b *batch, c ConnectNodes) string {
	source := valueobjects.NodeID(strings.TrimSpace(c.Source))
	target := valueobjects.NodeID(strings.TrimSpace(c.Target))
	for _, id := range []valueobjects.NodeID{source, target} {
		if _, ok := b.nodes[id]; !ok {
			return fmt.Sprintf("node %q not found", id)
		}
		if b.deleted[id] {
			return fmt.Sprintf("node %q is deleted earlier in this batch", id)
		}
	}
	if source == target {
		return "cannot connect a node to itself"
	}
	p := pair{source, target}
	if b.pairs[p] {
		return fmt.Sprintf("edge from %q to %q already exists", source, target)
	}
	if len(b.userEdges) >= d.maxEdges {
		return fmt.Sprintf("graph cannot hold more than %d edges", d.maxEdges)
	}

	raw := strings.TrimSpace(c.Relation)
	if raw == "" {
		raw = string(valueobjects.RelationNext)
	}
	relation, known := valueobjects.ParseRelation(raw)
	if relation == "plays-in" {
		relation, known = valueobjects.RelationHas, true
	}
	if !known {
		relation = valueobjects.RelationNext
	}
	style, animated := d.styler.RelationStyle(relation)

	label := strings.TrimSpace(c.Label)
	if label == "" {
		label = raw
	}

	edge := entities.Edge{
		ID:       b.edgeID(source, target, d.clock().UnixMilli()),
		Source:   source,
		Target:   target,
		Label:    label,
		Directed: true,
		Animated: animated,
		Style:    style,
		Data: entities.EdgeData{
			Relation: relation,
			Origin:   entities.OriginExternal,
			Emphasis: entities.EmphasisNormal,
		},
	}
	b.pairs[p] = true
	b.edgeIDs[edge.ID] = p
	b.userEdges[edge.ID] = true
	b.usedIDs[edge.ID] = true
	b.edges = append(b.edges, edge)
	b.result.Connected++
	return ""
}

func (d *Dispatcher) deleteByID(b *batch, c DeleteByID) string {
	raw := strings.TrimSpace(c.ID)
	nodeID := valueobjects.NodeID(raw)
	if _, ok := b.nodes[nodeID]; ok {
		if b.deleted[nodeID] {
			return fmt.Sprintf("node %q is already deleted", nodeID)
		}
		b.deleted[nodeID] = true
		b.live--
		b.delNodes = append(b.delNodes, nodeID)
		b.result.DeletedNodes++
		return ""
	}

	edgeID := valueobjects.EdgeID(raw)
	p, ok := b.edgeIDs[edgeID]
	if !ok {
		return fmt.Sprintf("no node or edge with id %q", raw)
	}
	delete(b.edgeIDs, edgeID)
	delete(b.pairs, p)
	delete(b.userEdges, edgeID)
	b.dropped[edgeID] = true
	b.delEdges = append(b.delEdges, edgeID)
	b.result.DeletedEdges++
	return ""
}

// forgetEdges drops the edges touching id. A node replaced with a different
// type loses its edges when the batch lands, including ones staged earlier in
// this batch.
func (b *batch) forgetEdges(id valueobjects.NodeID) {
	for edgeID, p := range b.edgeIDs {
		if p[0] == id || p[1] == id {
			delete(b.edgeIDs, edgeID)
			delete(b.pairs, p)
			delete(b.userEdges, edgeID)
			if !b.stateEdges[edgeID] {
				b.dropped[edgeID] = true
			}
		}
	}
}

// edgeID issues edge-{source}-{target}-{unix_ms}, suffixed with a counter
// when that id was already seen in the graph or issued in this batch.
func (b *batch) edgeID(source, target valueobjects.NodeID, ms int64) valueobjects.EdgeID {
	base := fmt.Sprintf("edge-%s-%s-%d", source, target, ms)
	id := valueobjects.EdgeID(base)
	for n := 1; b.usedIDs[id]; n++ {
		id = valueobjects.EdgeID(fmt.Sprintf("%s-%d", base, n))
	}
	return id
}
