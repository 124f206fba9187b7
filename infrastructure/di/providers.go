package di

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"jamflow/application/commands/bus"
	commandhandlers "jamflow/application/commands/handlers"
	"jamflow/application/dispatch"
	"jamflow/application/ports"
	"jamflow/application/queries"
	querybus "jamflow/application/queries/bus"
	queryhandlers "jamflow/application/queries/handlers"
	"jamflow/application/services"
	domainconfig "jamflow/domain/config"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/validators"
	"jamflow/domain/parsing"
	domainservices "jamflow/domain/services"
	"jamflow/infrastructure/collaborators"
	"jamflow/infrastructure/config"
	"jamflow/infrastructure/persistence/memory"
	"jamflow/pkg/observability"
	"jamflow/pkg/ratelimit"
	"jamflow/pkg/utils"
)

// ServiceName labels metrics and trace segments.
const ServiceName = "jamflow"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", ServiceName), zap.String("environment", cfg.Environment)), nil
}

// ProvideDomainConfig selects the engine tunables for the environment.
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	dc := domainconfig.LoadDomainConfig(cfg.Environment)
	if err := dc.Validate(); err != nil {
		return nil, err
	}
	return dc, nil
}

// ProvideClock returns the wall clock.
func ProvideClock() utils.Clock {
	return utils.SystemClock
}

// ProvideCollector creates the Prometheus collector.
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(ServiceName)
}

// ProvideTracer creates the X-Ray tracer; it is a no-op unless enabled.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(ServiceName, cfg.EnableTracing)
}

// ProvideGraphRepository creates the session store.
func ProvideGraphRepository(logger *zap.Logger) *memory.GraphRepository {
	return memory.NewGraphRepository(logger.Named("repository"))
}

// ProvideCache creates the recommendation cache. The cleanup stops its
// sweeper.
func ProvideCache(cfg *config.Config, clock utils.Clock) (*InMemoryCache, func()) {
	cache := NewInMemoryCache(clock, cfg.CacheSweepInterval)
	return cache, cache.Close
}

// ProvideCompatibilityEngine creates the compatibility engine.
func ProvideCompatibilityEngine(dc *domainconfig.DomainConfig) *domainservices.CompatibilityEngine {
	return domainservices.NewCompatibilityEngine(dc)
}

// ProvideEdgeRecalculator creates the discovery-mode edge recalculator.
func ProvideEdgeRecalculator(engine *domainservices.CompatibilityEngine, dc *domainconfig.DomainConfig) *domainservices.EdgeRecalculator {
	return domainservices.NewEdgeRecalculator(engine, dc)
}

// ProvideEdgeStyler creates the edge styler.
func ProvideEdgeStyler(dc *domainconfig.DomainConfig) *domainservices.EdgeStyler {
	return domainservices.NewEdgeStyler(dc)
}

// ProvideNodeValidator creates the node validator.
func ProvideNodeValidator(dc *domainconfig.DomainConfig) *validators.NodeValidator {
	return validators.NewNodeValidator(dc)
}

// ProvideReducer creates the snapshot reducer.
func ProvideReducer(
	dc *domainconfig.DomainConfig,
	recalculator *domainservices.EdgeRecalculator,
	styler *domainservices.EdgeStyler,
	validator *validators.NodeValidator,
) *aggregates.Reducer {
	return aggregates.NewReducer(dc, recalculator, styler, validator)
}

// ProvideDispatcher creates the command dispatcher.
func ProvideDispatcher(
	dc *domainconfig.DomainConfig,
	styler *domainservices.EdgeStyler,
	validator *validators.NodeValidator,
	clock utils.Clock,
	logger *zap.Logger,
) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(dc, styler, validator, clock, logger.Named("dispatch"))
}

// ProvideFlatParser creates the discovery-mode transcript parser.
func ProvideFlatParser(
	dc *domainconfig.DomainConfig,
	recalculator *domainservices.EdgeRecalculator,
	styler *domainservices.EdgeStyler,
) *parsing.FlatParser {
	return parsing.NewFlatParser(dc, recalculator, styler)
}

// ProvideStructureParser creates the structure-mode transcript parser.
func ProvideStructureParser(dc *domainconfig.DomainConfig, styler *domainservices.EdgeStyler) *parsing.StructureParser {
	return parsing.NewStructureParser(dc, styler)
}

// ProvideCollaboratorClient creates the shared collaborator transport.
func ProvideCollaboratorClient(cfg *config.Config, collector *observability.Collector, logger *zap.Logger) *collaborators.Client {
	c := cfg.Collaborators
	return collaborators.NewClient(collaborators.Settings{
		BaseURL:                    c.BaseURL,
		Timeout:                    c.Timeout,
		MusicTimeout:               c.MusicTimeout,
		Tracing:                    cfg.EnableTracing,
		BreakerMaxRequests:         c.Breaker.MaxRequests,
		BreakerInterval:            c.Breaker.Interval,
		BreakerOpenTimeout:         c.Breaker.OpenTimeout,
		BreakerConsecutiveFailures: c.Breaker.ConsecutiveFailures,
	}, collector, logger.Named("collaborators"))
}

// ProvideCommandInference creates the command-inference client.
func ProvideCommandInference(client *collaborators.Client, cfg *config.Config) ports.CommandInference {
	return collaborators.NewCommandInferenceClient(client, cfg.Collaborators.Timeout)
}

// ProvideRecommendationProvider creates the recommendations client.
func ProvideRecommendationProvider(client *collaborators.Client, cfg *config.Config) ports.RecommendationProvider {
	return collaborators.NewRecommendationClient(client, cfg.Collaborators.Timeout)
}

// ProvideProducerFeedback creates the producer feedback client.
func ProvideProducerFeedback(client *collaborators.Client, cfg *config.Config, dc *domainconfig.DomainConfig) ports.ProducerFeedback {
	return collaborators.NewProducerClient(client, cfg.Collaborators.Timeout, dc.MinAudioBytes)
}

// ProvideMusicGenerator creates the music generation client.
func ProvideMusicGenerator(client *collaborators.Client, cfg *config.Config, dc *domainconfig.DomainConfig) ports.MusicGenerator {
	return collaborators.NewMusicClient(client, cfg.Collaborators.MusicTimeout, dc.MinAudioBytes)
}

// ProvideSessionService creates the session service.
func ProvideSessionService(
	repo ports.GraphRepository,
	reducer *aggregates.Reducer,
	dispatcher *dispatch.Dispatcher,
	flat *parsing.FlatParser,
	structure *parsing.StructureParser,
	inference ports.CommandInference,
	dc *domainconfig.DomainConfig,
	clock utils.Clock,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.SessionService {
	return services.NewSessionService(repo, reducer, dispatcher, flat, structure, inference,
		dc, clock, collector, tracer, logger.Named("sessions"))
}

// ProvideEdgeService creates the edge service.
func ProvideEdgeService(
	sessions *services.SessionService,
	styler *domainservices.EdgeStyler,
	dc *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.EdgeService {
	return services.NewEdgeService(sessions, styler, dc, logger.Named("edges"))
}

// ProvideAssistService creates the assist service.
func ProvideAssistService(
	sessions *services.SessionService,
	recommendations ports.RecommendationProvider,
	producer ports.ProducerFeedback,
	music ports.MusicGenerator,
	cache ports.Cache,
	dc *domainconfig.DomainConfig,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.AssistService {
	return services.NewAssistService(sessions, recommendations, producer, music, cache,
		dc, collector, tracer, logger.Named("assist"))
}

// busMetrics adapts the collector to the bus Metrics interfaces, whose
// timers are interfaces rather than the collector's concrete type.
type busMetrics struct {
	collector *observability.Collector
}

func (m busMetrics) StartTimer(metric, label string) bus.Timer {
	return m.collector.StartTimer(metric, label)
}

func (m busMetrics) Increment(metric, label string) {
	m.collector.Increment(metric, label)
}

type queryMetrics struct {
	busMetrics
}

func (m queryMetrics) StartTimer(metric, label string) querybus.Timer {
	return m.collector.StartTimer(metric, label)
}

// ProvideCommandBus creates a command bus with every command registered.
func ProvideCommandBus(
	sessions *services.SessionService,
	edges *services.EdgeService,
	collector *observability.Collector,
	tracer *observability.Tracer,
	cfg *config.Config,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	middlewares := []bus.Middleware{bus.LoggingMiddleware(logger.Named("commands"))}
	if cfg.EnableTracing {
		middlewares = append(middlewares, bus.TracingMiddleware(tracer))
	}
	if cfg.EnableMetrics {
		middlewares = append(middlewares, bus.MetricsMiddleware(busMetrics{collector: collector}))
	}
	commandBus := bus.NewCommandBus(middlewares...)

	if err := commandhandlers.Register(commandBus, sessions, edges, logger); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with every query registered.
func ProvideQueryBus(
	repo ports.GraphRepository,
	engine *domainservices.CompatibilityEngine,
	collector *observability.Collector,
	tracer *observability.Tracer,
	cfg *config.Config,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	if cfg.EnableTracing {
		queryBus.Use(querybus.TracingMiddleware(tracer))
	}
	if cfg.EnableMetrics {
		queryBus.Use(querybus.NewMetricsMiddleware(queryMetrics{busMetrics{collector: collector}}).Wrap)
	}

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.GetGraphQuery{}, querybus.HandlerFor(queries.NewGetGraphHandler(repo).Handle)},
		{queries.GetNodeQuery{}, querybus.HandlerFor(queries.NewGetNodeHandler(repo).Handle)},
		{queries.ListSessionsQuery{}, querybus.HandlerFor(queries.NewListSessionsHandler(repo).Handle)},
		{queries.EvaluatePairQuery{}, querybus.HandlerFor(queries.NewEvaluatePairHandler(repo, engine).Handle)},
		{queries.GetGraphStatsQuery{}, querybus.HandlerFor(queryhandlers.NewGetGraphStatsHandler(repo, logger.Named("queries")).Handle)},
	}
	for _, r := range registrations {
		if err := queryBus.Register(r.query, r.handler); err != nil {
			return nil, err
		}
	}
	return queryBus, nil
}

// ProvideRateLimiter creates the instruction rate limiter. The cleanup
// stops its sweeper.
func ProvideRateLimiter(cfg *config.Config, clock utils.Clock) (*ratelimit.SlidingWindowLimiter, func()) {
	limiter := ratelimit.NewSlidingWindowLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, clock)
	if cfg.RateLimit.Window <= 0 {
		return limiter, func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	go limiter.RunSweeper(ctx, cfg.RateLimit.Window)
	return limiter, cancel
}
