package aggregates

import (
	"jamflow/domain/config"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/validators"
	"jamflow/domain/core/valueobjects"
	"jamflow/domain/events"
	"jamflow/domain/services"
	"jamflow/domain/versioning"
	pkgerrors "jamflow/pkg/errors"
)

// Reducer computes the next graph snapshot from the current one and an
// event. It never mutates its input.
type Reducer struct {
	cfg          *config.DomainConfig
	recalculator *services.EdgeRecalculator
	styler       *services.EdgeStyler
	validator    *validators.NodeValidator
}

// NewReducer creates a reducer.
func NewReducer(
	cfg *config.DomainConfig,
	recalculator *services.EdgeRecalculator,
	styler *services.EdgeStyler,
	validator *validators.NodeValidator,
) *Reducer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Reducer{cfg: cfg, recalculator: recalculator, styler: styler, validator: validator}
}

// change tracks what an event touched so finish knows which derived state to
// rebuild.
type change struct {
	nodes    bool
	newEdges map[valueobjects.EdgeID]bool
}

// Reduce applies e to g and returns the new snapshot with its version bumped.
func (r *Reducer) Reduce(g *Graph, e events.DomainEvent) (*Graph, error) {
	if g == nil {
		return nil, pkgerrors.NewValidationError("graph is required")
	}
	if v := e.GetVersion(); v != 0 && v != g.version {
		return nil, pkgerrors.NewConflictError("graph was modified concurrently").
			WithDetail("expected_version", v).
			WithDetail("actual_version", g.version)
	}

	next := g.clone()
	ch := change{newEdges: map[valueobjects.EdgeID]bool{}}

	var err error
	switch ev := e.(type) {
	case events.NodesAdded:
		err = r.addNodes(next, ev.Nodes, &ch)
	case events.NodeUpdated:
		err = r.updateNode(next, ev.NodeID, ev.Data, &ch)
	case events.NodeRemoved:
		if next.nodeIndex(ev.NodeID) < 0 {
			return nil, pkgerrors.NewNotFoundError("node " + ev.NodeID.String())
		}
		r.removeNode(next, ev.NodeID, &ch)
	case events.NodesMoved:
		err = r.moveNodes(next, ev.Positions)
	case events.EdgesAdded:
		err = r.addEdges(next, ev.Edges, &ch)
	case events.EdgeRemoved:
		if !r.removeEdge(next, ev.EdgeID) {
			return nil, pkgerrors.NewNotFoundError("edge " + ev.EdgeID.String())
		}
	case events.GraphReplaced:
		err = r.replace(next, ev, &ch)
	case events.ModeChanged:
		if _, perr := valueobjects.ParseGraphMode(string(ev.Mode)); perr != nil {
			return nil, pkgerrors.NewValidationError(perr.Error())
		}
		if next.mode != ev.Mode {
			next.mode = ev.Mode
			ch.nodes = ev.Mode == valueobjects.ModeDiscovery
		}
	case events.GraphCleared:
		next.nodes = []entities.Node{}
		next.autoEdges = []entities.Edge{}
		next.manualEdges = []entities.Edge{}
		next.pinned = map[valueobjects.NodeID]valueobjects.Position{}
		ch.nodes = true
	case *events.BatchApplied:
		err = r.applyBatch(next, ev, &ch)
	default:
		return nil, pkgerrors.NewValidationErrorf("unsupported event type %s", e.GetEventType())
	}
	if err != nil {
		return nil, err
	}

	r.finish(next, ch)
	next.version = g.version + 1
	if ts := e.GetTimestamp(); !ts.IsZero() {
		next.updatedAt = ts
	}
	return next, nil
}

func (r *Reducer) addNodes(g *Graph, nodes []entities.Node, ch *change) error {
	if err := r.validator.ValidateCapacity(len(g.nodes), len(nodes)); err != nil {
		return err
	}
	for _, n := range nodes {
		if err := r.validator.ValidateNode(n); err != nil {
			return err
		}
		if g.nodeIndex(n.ID) >= 0 {
			return pkgerrors.NewConflictError("node " + n.ID.String() + " already exists")
		}
		g.nodes = append(g.nodes, n)
	}
	ch.nodes = ch.nodes || len(nodes) > 0
	return nil
}

func (r *Reducer) updateNode(g *Graph, id valueobjects.NodeID, data entities.NodeData, ch *change) error {
	i := g.nodeIndex(id)
	if i < 0 {
		return pkgerrors.NewNotFoundError("node " + id.String())
	}
	updated, err := g.nodes[i].WithData(data)
	if err != nil {
		return err
	}
	if err := r.validator.ValidateData(updated.Data); err != nil {
		return err
	}
	g.nodes[i] = updated
	ch.nodes = true
	return nil
}

// removeNode drops the node and cascades to every edge touching it.
func (r *Reducer) removeNode(g *Graph, id valueobjects.NodeID, ch *change) {
	i := g.nodeIndex(id)
	if i < 0 {
		return
	}
	g.nodes = append(g.nodes[:i:i], g.nodes[i+1:]...)
	g.autoEdges = withoutTouching(g.autoEdges, id)
	g.manualEdges = withoutTouching(g.manualEdges, id)
	delete(g.pinned, id)
	ch.nodes = true
}

func withoutTouching(edges []entities.Edge, id valueobjects.NodeID) []entities.Edge {
	out := make([]entities.Edge, 0, len(edges))
	for _, e := range edges {
		if !e.Touches(id) {
			out = append(out, e)
		}
	}
	return out
}

// moveNodes updates positions and pins them. Nothing derived changes.
func (r *Reducer) moveNodes(g *Graph, positions map[valueobjects.NodeID]valueobjects.Position) error {
	for id := range positions {
		if g.nodeIndex(id) < 0 {
			return pkgerrors.NewNotFoundError("node " + id.String())
		}
	}
	for i, n := range g.nodes {
		if p, ok := positions[n.ID]; ok {
			g.nodes[i] = n.WithPosition(p)
			g.pinned[n.ID] = p
		}
	}
	return nil
}

func (r *Reducer) addEdges(g *Graph, edges []entities.Edge, ch *change) error {
	// derived edges are rebuilt from the nodes and are not capped
	if len(g.manualEdges)+len(edges) > r.cfg.MaxEdgesPerGraph {
		return pkgerrors.NewValidationErrorf("graph cannot hold more than %d edges", r.cfg.MaxEdgesPerGraph)
	}
	for _, e := range edges {
		if e.ID.IsZero() {
			return pkgerrors.NewValidationError("edge id cannot be empty")
		}
		if g.nodeIndex(e.Source) < 0 || g.nodeIndex(e.Target) < 0 {
			return pkgerrors.NewValidationErrorf("edge %s references a missing node", e.ID)
		}
		if e.Source == e.Target && !r.cfg.AllowSelfConnections {
			return pkgerrors.NewValidationError("self-connections are not allowed")
		}
		if _, exists := g.Edge(e.ID); exists {
			return pkgerrors.NewConflictError("edge " + e.ID.String() + " already exists")
		}
		if !r.cfg.AllowDuplicateEdges && hasPair(g.manualEdges, e.Source, e.Target) {
			return pkgerrors.NewConflictError("nodes are already connected").
				WithDetail("source", e.Source).WithDetail("target", e.Target)
		}
		g.manualEdges = append(g.manualEdges, e)
		ch.newEdges[e.ID] = true
	}
	return nil
}

func hasPair(edges []entities.Edge, source, target valueobjects.NodeID) bool {
	for _, e := range edges {
		if e.Connects(source, target) {
			return true
		}
	}
	return false
}

func (r *Reducer) removeEdge(g *Graph, id valueobjects.EdgeID) bool {
	for _, set := range []*[]entities.Edge{&g.manualEdges, &g.autoEdges} {
		for i, e := range *set {
			if e.ID == id {
				*set = append((*set)[:i:i], (*set)[i+1:]...)
				return true
			}
		}
	}
	return false
}

// replace installs a parse result. Manual edges are dropped since they refer
// to the previous node set. A dragged node keeps its position when the new
// graph has a node with the same id, type and label.
func (r *Reducer) replace(g *Graph, ev events.GraphReplaced, ch *change) error {
	mode := ev.Mode
	if mode == "" {
		mode = g.mode
	}
	if _, err := valueobjects.ParseGraphMode(string(mode)); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	if err := r.validator.ValidateCapacity(0, len(ev.Nodes)); err != nil {
		return err
	}

	pinned := map[valueobjects.NodeID]valueobjects.Position{}
	nodes := make([]entities.Node, 0, len(ev.Nodes))
	seen := map[valueobjects.NodeID]bool{}
	for _, n := range ev.Nodes {
		if err := r.validator.ValidateNode(n); err != nil {
			return err
		}
		if seen[n.ID] {
			return pkgerrors.NewConflictError("duplicate node " + n.ID.String())
		}
		seen[n.ID] = true
		if old, ok := g.Node(n.ID); ok && g.IsPinned(n.ID) &&
			old.Data.Type == n.Data.Type && old.Data.Label == n.Data.Label {
			n = n.WithPosition(old.Position)
			pinned[n.ID] = old.Position
		}
		nodes = append(nodes, n)
	}

	g.mode = mode
	g.nodes = nodes
	g.pinned = pinned
	g.manualEdges = []entities.Edge{}
	g.autoEdges = append([]entities.Edge{}, ev.Edges...)
	for _, e := range ev.Edges {
		ch.newEdges[e.ID] = true
	}
	ch.nodes = mode == valueobjects.ModeDiscovery
	return nil
}

// applyBatch lands a dispatcher batch: removals first, then additions and
// replacements, so a pair freed by a deleted edge can be reconnected and
// freed capacity can be reused in the same batch. Edge removals are lenient
// because a node removal may already have cascaded to them.
func (r *Reducer) applyBatch(g *Graph, b *events.BatchApplied, ch *change) error {
	for _, id := range b.RemovedNodes {
		r.removeNode(g, id, ch)
	}
	for _, id := range b.RemovedEdges {
		r.removeEdge(g, id)
	}
	if err := r.addNodes(g, b.AddedNodes, ch); err != nil {
		return err
	}
	for _, n := range b.ReplacedNodes {
		if err := r.replaceNode(g, n, ch); err != nil {
			return err
		}
	}
	return r.addEdges(g, b.AddedEdges, ch)
}

// replaceNode swaps a node for a new record under the same id. Edges survive
// when the type is unchanged; a different type makes it a different element,
// so its edges go with the old one.
func (r *Reducer) replaceNode(g *Graph, n entities.Node, ch *change) error {
	i := g.nodeIndex(n.ID)
	if i < 0 {
		return pkgerrors.NewNotFoundError("node " + n.ID.String())
	}
	if err := r.validator.ValidateNode(n); err != nil {
		return err
	}
	if g.nodes[i].Data.Type != n.Data.Type {
		g.autoEdges = withoutTouching(g.autoEdges, n.ID)
		g.manualEdges = withoutTouching(g.manualEdges, n.ID)
		delete(g.pinned, n.ID)
	}
	g.nodes[i] = n
	ch.nodes = true
	return nil
}

// finish rebuilds derived state. Discovery graphs get fresh auto edges when
// their nodes change. Styles are recomputed wholesale only when the
// structural signature moved; otherwise only new edges are styled.
func (r *Reducer) finish(g *Graph, ch change) {
	if ch.nodes && g.mode == valueobjects.ModeDiscovery {
		g.autoEdges = r.recalculator.Recalculate(g.nodes)
		for _, e := range g.autoEdges {
			ch.newEdges[e.ID] = true
		}
	}

	signature := versioning.StructuralSignature(g.nodes)
	if signature != g.signature {
		g.signature = signature
		g.styleGeneration++
		g.autoEdges = r.styler.Restyle(g.autoEdges, g.nodes)
		g.manualEdges = r.styler.Restyle(g.manualEdges, g.nodes)
		return
	}
	if len(ch.newEdges) == 0 {
		return
	}
	ctx := services.NewStyleContext(g.nodes)
	for _, set := range [][]entities.Edge{g.autoEdges, g.manualEdges} {
		for i, e := range set {
			if ch.newEdges[e.ID] {
				set[i].Style = r.styler.Style(ctx, e)
			}
		}
	}
}
