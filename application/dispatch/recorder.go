package dispatch

import (
	"time"

	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
	"jamflow/domain/events"
)

// Recorder is a Mutator that collects a batch into a single BatchApplied
// event for the reducer.
type Recorder struct {
	event *events.BatchApplied
}

// NewRecorder creates a recorder for the graph at the given version.
func NewRecorder(graphID string, version int, timestamp time.Time) *Recorder {
	return &Recorder{event: events.NewBatchApplied(graphID, version, timestamp)}
}

func (r *Recorder) AddNodes(nodes []entities.Node) {
	r.event.AddedNodes = append(r.event.AddedNodes, nodes...)
}

func (r *Recorder) ReplaceNodes(nodes []entities.Node) {
	r.event.ReplacedNodes = append(r.event.ReplacedNodes, nodes...)
}

func (r *Recorder) AddEdges(edges []entities.Edge) {
	r.event.AddedEdges = append(r.event.AddedEdges, edges...)
}

func (r *Recorder) RemoveNodes(ids []valueobjects.NodeID) {
	r.event.RemovedNodes = append(r.event.RemovedNodes, ids...)
}

func (r *Recorder) RemoveEdges(ids []valueobjects.EdgeID) {
	r.event.RemovedEdges = append(r.event.RemovedEdges, ids...)
}

// Event returns the recorded batch.
func (r *Recorder) Event() *events.BatchApplied {
	return r.event
}
