package services

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"jamflow/application/dispatch"
	"jamflow/application/ports"
	"jamflow/domain/config"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"
	"jamflow/domain/events"
	"jamflow/domain/parsing"
	"jamflow/pkg/errors"
	"jamflow/pkg/observability"
	"jamflow/pkg/utils"
)

// Parse strategies reported by ProcessTranscript.
const (
	StrategyFlat      = "flat"
	StrategyStructure = "structure"
	StrategyNone      = "none"
)

// EngineMetrics receives engine-level counters. Nil disables them.
type EngineMetrics interface {
	ObserveTranscript(strategy string)
	ObserveBatch(applied, skipped int)
	ObserveRestyle()
}

// TranscriptOutcome is the result of processing one transcript.
type TranscriptOutcome struct {
	Strategy string
	Graph    *aggregates.Graph
}

// BatchOutcome is the result of applying a command batch.
type BatchOutcome struct {
	Result dispatch.Result
	Graph  *aggregates.Graph
}

// NodeInput describes a node added directly by the user.
type NodeInput struct {
	ID       string
	Label    string
	Type     string
	Key      string
	BPM      int
	Section  string
	Details  string
	Position *valueobjects.Position
}

// SessionService owns the graph of every session. Mutations of one session
// are serialised, and the lock is held across command inference so a new
// instruction waits until the previous batch has been applied.
type SessionService struct {
	repo       ports.GraphRepository
	reducer    *aggregates.Reducer
	dispatcher *dispatch.Dispatcher
	flat       *parsing.FlatParser
	structure  *parsing.StructureParser
	inference  ports.CommandInference
	cfg        *config.DomainConfig
	clock      utils.Clock
	metrics    EngineMetrics
	tracer     *observability.Tracer
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[aggregates.GraphID]*sync.Mutex
}

// NewSessionService creates a session service
func NewSessionService(
	repo ports.GraphRepository,
	reducer *aggregates.Reducer,
	dispatcher *dispatch.Dispatcher,
	flat *parsing.FlatParser,
	structure *parsing.StructureParser,
	inference ports.CommandInference,
	cfg *config.DomainConfig,
	clock utils.Clock,
	metrics EngineMetrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *SessionService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if clock == nil {
		clock = utils.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repo:       repo,
		reducer:    reducer,
		dispatcher: dispatcher,
		flat:       flat,
		structure:  structure,
		inference:  inference,
		cfg:        cfg,
		clock:      clock,
		metrics:    metrics,
		tracer:     tracer,
		logger:     logger,
		locks:      make(map[aggregates.GraphID]*sync.Mutex),
	}
}

func (s *SessionService) lock(id aggregates.GraphID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// CreateSession starts an empty graph.
func (s *SessionService) CreateSession(ctx context.Context, id aggregates.GraphID, mode valueobjects.GraphMode) (*aggregates.Graph, error) {
	if id == "" {
		id = aggregates.NewGraphID()
	}
	if mode == "" {
		mode = valueobjects.ModeDiscovery
	}
	g := aggregates.NewGraph(id, mode, s.clock())
	if err := s.repo.Save(ctx, g, 0); err != nil {
		return nil, err
	}
	s.logger.Info("Session created", zap.String("sessionID", id.String()), zap.String("mode", mode.String()))
	return g, nil
}

// Graph returns the current snapshot of a session.
func (s *SessionService) Graph(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error) {
	return s.repo.GetByID(ctx, id)
}

// DeleteSession drops a session and its graph.
func (s *SessionService) DeleteSession(ctx context.Context, id aggregates.GraphID) error {
	unlock := s.lock(id)
	err := s.repo.Delete(ctx, id)
	unlock()
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()

	s.logger.Info("Session deleted", zap.String("sessionID", id.String()))
	return nil
}

// ProcessTranscript parses a transcript and replaces the session graph with
// the result. Transcripts that describe song sections are parsed
// structurally, anything else as a flat element list. A transcript that
// yields no nodes leaves the graph unchanged.
func (s *SessionService) ProcessTranscript(ctx context.Context, id aggregates.GraphID, transcript string) (*TranscriptOutcome, error) {
	if n := utf8.RuneCountInString(transcript); n > s.cfg.MaxTranscriptLength {
		return nil, errors.NewValidationErrorf("transcript exceeds maximum length of %d characters", s.cfg.MaxTranscriptLength)
	}

	strategy, result := s.parse(transcript)
	if s.metrics != nil {
		s.metrics.ObserveTranscript(strategy)
	}
	s.tracer.AddAnnotation(ctx, "parse_strategy", strategy)

	if result.IsEmpty() {
		g, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &TranscriptOutcome{Strategy: StrategyNone, Graph: g}, nil
	}

	mode := valueobjects.ModeDiscovery
	if strategy == StrategyStructure {
		mode = valueobjects.ModeStructure
	}

	g, err := s.mutate(ctx, id, func(g *aggregates.Graph) (events.DomainEvent, error) {
		return events.NewGraphReplaced(id.String(), g.Version(), mode, result.Nodes, result.Edges, s.clock()), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transcript processed",
		zap.String("sessionID", id.String()),
		zap.String("strategy", strategy),
		zap.Int("nodes", len(result.Nodes)),
		zap.Int("edges", len(result.Edges)),
	)
	return &TranscriptOutcome{Strategy: strategy, Graph: g}, nil
}

func (s *SessionService) parse(transcript string) (string, parsing.Result) {
	if strings.TrimSpace(transcript) == "" {
		return StrategyNone, parsing.Result{}
	}
	if s.structure.Detect(transcript) {
		if result := s.structure.Parse(transcript); result.SectionCount() > 0 {
			return StrategyStructure, result
		}
	}
	result := s.flat.Parse(transcript)
	if result.IsEmpty() {
		return StrategyNone, result
	}
	return StrategyFlat, result
}

// ApplyInstruction asks command inference for a batch of graph commands and
// applies it. Inference failures leave the graph unchanged.
func (s *SessionService) ApplyInstruction(ctx context.Context, id aggregates.GraphID, instruction string) (*BatchOutcome, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, errors.NewValidationError("instruction cannot be empty")
	}
	if s.inference == nil {
		return nil, errors.NewUnavailableError("command inference")
	}

	unlock := s.lock(id)
	defer unlock()

	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inferCtx := ctx
	if s.cfg.InstructionTimeout > 0 {
		var cancel context.CancelFunc
		inferCtx, cancel = context.WithTimeout(ctx, s.cfg.InstructionTimeout)
		defer cancel()
	}

	var commands []dispatch.Command
	err = s.tracer.TraceFunction(inferCtx, "command_inference", func(ctx context.Context) error {
		var inferErr error
		commands, inferErr = s.inference.Infer(ctx, ports.NewGraphPayload(g), instruction)
		return inferErr
	})
	if err != nil {
		s.logger.Warn("Command inference failed",
			zap.String("sessionID", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return s.applyLocked(ctx, g, commands)
}

// ApplyCommands applies a batch of already decoded commands.
func (s *SessionService) ApplyCommands(ctx context.Context, id aggregates.GraphID, commands []dispatch.Command) (*BatchOutcome, error) {
	unlock := s.lock(id)
	defer unlock()

	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyLocked(ctx, g, commands)
}

func (s *SessionService) applyLocked(ctx context.Context, g *aggregates.Graph, commands []dispatch.Command) (*BatchOutcome, error) {
	recorder := dispatch.NewRecorder(g.ID().String(), g.Version(), s.clock())
	result := s.dispatcher.Apply(commands, dispatch.State{Nodes: g.Nodes(), Edges: g.Edges()}, recorder)
	if s.metrics != nil {
		s.metrics.ObserveBatch(result.Applied(), len(result.Skipped))
	}

	batch := recorder.Event()
	if batch.IsEmpty() {
		return &BatchOutcome{Result: result, Graph: g}, nil
	}

	next, err := s.commit(ctx, g, batch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Command batch applied",
		zap.String("sessionID", g.ID().String()),
		zap.Int("applied", result.Applied()),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("version", next.Version()),
	)
	return &BatchOutcome{Result: result, Graph: next}, nil
}

// SetMode switches the session between discovery and structure mode.
func (s *SessionService) SetMode(ctx context.Context, id aggregates.GraphID, mode valueobjects.GraphMode) (*aggregates.Graph, error) {
	return s.mutate(ctx, id, func(g *aggregates.Graph) (events.DomainEvent, error) {
		if g.Mode() == mode {
			return nil, nil
		}
		return events.NewModeChanged(id.String(), g.Version(), mode, s.clock()), nil
	})
}

// Clear removes every node and edge, keeping the mode.
func (s *SessionService) Clear(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error) {
	return s.mutate(ctx, id, func(g *aggregates.Graph) (events.DomainEvent, error) {
		return events.NewGraphCleared(id.String(), g.Version(), s.clock()), nil
	})
}

// AddNode adds a single node. Without an id one is generated; without a
// position the node is placed on the next grid cell.
func (s *SessionService) AddNode(ctx context.Context, id aggregates.GraphID, in NodeInput) (entities.Node, *aggregates.Graph, error) {
	var node entities.Node
	g, err := s.mutate(ctx, id, func(g *aggregates.Graph) (events.DomainEvent, error) {
		nodeID := valueobjects.NewNodeID()
		if in.ID != "" {
			parsed, err := valueobjects.ParseNodeID(in.ID)
			if err != nil {
				return nil, errors.NewValidationError(err.Error())
			}
			nodeID = parsed
		}
		elementType, err := valueobjects.ParseElementType(in.Type)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}

		pos := valueobjects.GridPosition(g.NodeCount(), s.cfg.Layout.GridColumns,
			s.cfg.Layout.GridSpacingX, s.cfg.Layout.GridSpacingY, s.cfg.Layout.GridOffset)
		if in.Position != nil {
			pos = *in.Position
		}

		node, err = entities.NewNode(nodeID, entities.NodeData{
			Label:   in.Label,
			Type:    elementType,
			Key:     valueobjects.Key(in.Key),
			BPM:     valueobjects.BPM(in.BPM),
			Section: in.Section,
			Details: in.Details,
		}, pos)
		if err != nil {
			return nil, err
		}
		return events.NewNodesAdded(id.String(), g.Version(), []entities.Node{node}, s.clock()), nil
	})
	if err != nil {
		return entities.Node{}, nil, err
	}
	if stored, ok := g.Node(node.ID); ok {
		node = stored
	}
	return node, g, nil
}

// UpdateNode replaces a node's data record. The type cannot change.
func (s *SessionService) UpdateNode(ctx context.Context, id aggregates.GraphID, nodeID valueobjects.NodeID, data entities.NodeData) (*aggregates.Graph, error) {
	return s.mutate(ctx, id, func(g *aggregates.Graph) (events.DomainEvent, error) {
		return events.NewNodeUpdated(id.String(), g.Version(), nodeID, data, s.clock()), nil
	})
}

// DeleteNode removes a node together with every edge touching it.
func (s *SessionService) DeleteNode(ctx context.Context, id aggregates.GraphID, nodeID valueobjects.NodeID) (*aggregates.Graph, error) {
	return s.mutate(ctx, id, func(g *aggregates.Graph) (events.DomainEvent, error) {
		return events.NewNodeRemoved(id.String(), g.Version(), nodeID, s.clock()), nil
	})
}

// MoveNodes records dragged positions. Edges are neither recalculated nor
// restyled.
func (s *SessionService) MoveNodes(ctx context.Context, id aggregates.GraphID, positions map[valueobjects.NodeID]valueobjects.Position) (*aggregates.Graph, error) {
	if len(positions) == 0 {
		return nil, errors.NewValidationError("positions cannot be empty")
	}
	return s.mutate(ctx, id, func(g *aggregates.Graph) (events.DomainEvent, error) {
		return events.NewNodesMoved(id.String(), g.Version(), positions, s.clock()), nil
	})
}

// mutate loads a session under its lock, reduces the event built by fn and
// stores the result. A nil event leaves the graph untouched.
func (s *SessionService) mutate(
	ctx context.Context,
	id aggregates.GraphID,
	fn func(g *aggregates.Graph) (events.DomainEvent, error),
) (*aggregates.Graph, error) {
	unlock := s.lock(id)
	defer unlock()

	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := fn(g)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return g, nil
	}
	return s.commit(ctx, g, event)
}

func (s *SessionService) commit(ctx context.Context, g *aggregates.Graph, event events.DomainEvent) (*aggregates.Graph, error) {
	next, err := s.reducer.Reduce(g, event)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, next, g.Version()); err != nil {
		return nil, err
	}
	if s.metrics != nil && next.StyleGeneration() > g.StyleGeneration() {
		s.metrics.ObserveRestyle()
	}

	s.logger.Debug("Graph updated",
		zap.String("sessionID", g.ID().String()),
		zap.String("event", event.GetEventType()),
		zap.Int("version", next.Version()),
		zap.Int("nodes", next.NodeCount()),
	)
	return next, nil
}
