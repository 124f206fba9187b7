// Package cli holds the jamflow command line: a listener that feeds
// recognised speech into a session, and the kong commands around it.
package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"jamflow/application/ports"
	"jamflow/application/services"
	"jamflow/domain/core/aggregates"
)

// Feeder is the part of the session service the listener drives.
type Feeder interface {
	ProcessTranscript(ctx context.Context, id aggregates.GraphID, transcript string) (*services.TranscriptOutcome, error)
	ApplyInstruction(ctx context.Context, id aggregates.GraphID, instruction string) (*services.BatchOutcome, error)
}

// doner is implemented by sources that finish on their own, like stdin.
type doner interface {
	Done() <-chan struct{}
}

// Listener applies each final transcript from a speech source to one
// session. Results are handled one at a time in arrival order.
type Listener struct {
	source       ports.SpeechSource
	feeder       Feeder
	sessionID    aggregates.GraphID
	instructions bool
	out          io.Writer
	logger       *zap.Logger
}

// NewListener creates a listener. With instructions set, every line is an
// edit instruction for the command inference collaborator instead of a
// transcript for the local parsers.
func NewListener(source ports.SpeechSource, feeder Feeder, sessionID string, instructions bool, out io.Writer, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		source:       source,
		feeder:       feeder,
		sessionID:    aggregates.GraphID(sessionID),
		instructions: instructions,
		out:          out,
		logger:       logger,
	}
}

// Run blocks until ctx is cancelled or the source runs dry.
func (l *Listener) Run(ctx context.Context) error {
	results := make(chan ports.Transcript, 16)
	failures := make(chan error, 4)

	l.source.OnResult(func(t ports.Transcript) {
		if !t.Final {
			return
		}
		select {
		case results <- t:
		case <-ctx.Done():
		}
	})
	l.source.OnError(func(err error) {
		select {
		case failures <- err:
		default:
			l.logger.Warn("Dropped speech error", zap.Error(err))
		}
	})

	if err := l.source.Start(ctx); err != nil {
		return fmt.Errorf("starting speech source: %w", err)
	}
	defer func() { _ = l.source.Stop() }()

	var done <-chan struct{}
	if d, ok := l.source.(doner); ok {
		done = d.Done()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-results:
			l.handle(ctx, t.Text)
		case err := <-failures:
			color.New(color.FgRed).Fprintf(l.out, "speech error: %v\n", err)
		case <-done:
			// drain anything delivered before the source finished
			for {
				select {
				case t := <-results:
					l.handle(ctx, t.Text)
				case err := <-failures:
					color.New(color.FgRed).Fprintf(l.out, "speech error: %v\n", err)
				default:
					return nil
				}
			}
		}
	}
}

func (l *Listener) handle(ctx context.Context, text string) {
	color.New(color.FgCyan).Fprintf(l.out, "> %s\n", text)

	if l.instructions {
		outcome, err := l.feeder.ApplyInstruction(ctx, l.sessionID, text)
		if err != nil {
			l.report(err)
			return
		}
		r := outcome.Result
		color.New(color.FgGreen).Fprintf(l.out, "applied %d commands (created %d, connected %d, deleted %d), skipped %d\n",
			r.Applied(), r.Created+r.Replaced, r.Connected, r.DeletedNodes+r.DeletedEdges, len(r.Skipped))
		for _, d := range r.Skipped {
			color.New(color.FgYellow).Fprintf(l.out, "  skipped #%d %s: %s\n", d.Index, d.Action, d.Reason)
		}
		l.printGraph(outcome.Graph)
		return
	}

	outcome, err := l.feeder.ProcessTranscript(ctx, l.sessionID, text)
	if err != nil {
		l.report(err)
		return
	}
	if outcome.Strategy == services.StrategyNone {
		color.New(color.FgYellow).Fprintln(l.out, "nothing recognised")
		return
	}
	color.New(color.FgGreen).Fprintf(l.out, "%s parse: %d nodes, %d edges\n",
		outcome.Strategy, outcome.Graph.NodeCount(), len(outcome.Graph.Edges()))
	l.printGraph(outcome.Graph)
}

func (l *Listener) report(err error) {
	l.logger.Debug("Transcript failed", zap.String("sessionID", l.sessionID.String()), zap.Error(err))
	color.New(color.FgRed).Fprintf(l.out, "error: %v\n", err)
}

func (l *Listener) printGraph(g *aggregates.Graph) {
	if g == nil {
		return
	}
	nodes := g.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	for _, n := range nodes {
		fmt.Fprintf(l.out, "  %-18s %-10s", n.ID, n.Data.Type)
		if n.Data.Key != "" {
			fmt.Fprintf(l.out, " key=%s", n.Data.Key)
		}
		if n.Data.BPM > 0 {
			fmt.Fprintf(l.out, " bpm=%d", n.Data.BPM)
		}
		if n.Data.Section != "" {
			fmt.Fprintf(l.out, " section=%s", n.Data.Section)
		}
		fmt.Fprintln(l.out)
	}
}
