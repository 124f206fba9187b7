package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"jamflow/application/ports"
	"jamflow/domain/config"
	"jamflow/domain/core/aggregates"
	"jamflow/pkg/errors"
	"jamflow/pkg/observability"
)

// CacheMetrics counts recommendation cache lookups. Nil disables it.
type CacheMetrics interface {
	ObserveCache(hit bool)
}

// GeneratedMusic is a rendered clip and the prompt it was rendered from.
type GeneratedMusic struct {
	Audio      *ports.Audio
	Prompt     string
	DurationMs int
}

// AssistService fronts the recommendation, producer feedback and music
// generation collaborators for a session graph.
type AssistService struct {
	sessions        *SessionService
	recommendations ports.RecommendationProvider
	producer        ports.ProducerFeedback
	music           ports.MusicGenerator
	cache           ports.Cache
	cfg             *config.DomainConfig
	metrics         CacheMetrics
	tracer          *observability.Tracer
	logger          *zap.Logger
}

// NewAssistService creates an assist service
func NewAssistService(
	sessions *SessionService,
	recommendations ports.RecommendationProvider,
	producer ports.ProducerFeedback,
	music ports.MusicGenerator,
	cache ports.Cache,
	cfg *config.DomainConfig,
	metrics CacheMetrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *AssistService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistService{
		sessions:        sessions,
		recommendations: recommendations,
		producer:        producer,
		music:           music,
		cache:           cache,
		cfg:             cfg,
		metrics:         metrics,
		tracer:          tracer,
		logger:          logger,
	}
}

// RecommendationCacheKey is the cache key of the recommendations for a
// graph with the given content checksum.
func RecommendationCacheKey(id aggregates.GraphID, checksum string) string {
	return "recommendations:" + id.String() + ":" + checksum
}

// Recommend returns instrument suggestions for the session graph. Results
// are cached per graph content, so an unchanged graph is answered without
// calling the provider.
func (s *AssistService) Recommend(ctx context.Context, id aggregates.GraphID) ([]ports.Recommendation, error) {
	if s.recommendations == nil {
		return nil, errors.NewUnavailableError("recommendations")
	}
	g, err := s.sessions.Graph(ctx, id)
	if err != nil {
		return nil, err
	}
	checksum, err := g.Checksum()
	if err != nil {
		return nil, errors.Wrap(err, "failed to checksum graph")
	}
	key := RecommendationCacheKey(id, checksum)

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			if recs, ok := cached.([]ports.Recommendation); ok {
				s.observeCache(true)
				return recs, nil
			}
		}
		s.observeCache(false)
	}

	var recs []ports.Recommendation
	err = s.tracer.TraceFunction(ctx, "recommendations", func(ctx context.Context) error {
		var callErr error
		recs, callErr = s.recommendations.Recommend(ctx, ports.NewGraphPayload(g))
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []ports.Recommendation{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, recs, s.cfg.RecommendationTTL); err != nil {
			s.logger.Warn("Failed to cache recommendations", zap.String("sessionID", id.String()), zap.Error(err))
		}
	}
	return recs, nil
}

func (s *AssistService) observeCache(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCache(hit)
	}
}

// ProducerFeedback asks for spoken feedback on the session graph.
func (s *AssistService) ProducerFeedback(ctx context.Context, id aggregates.GraphID, notes string) (*ports.AudioFeedback, error) {
	if s.producer == nil {
		return nil, errors.NewUnavailableError("producer feedback")
	}
	payload, err := s.feedbackPayload(ctx, id)
	if err != nil {
		return nil, err
	}

	var fb *ports.AudioFeedback
	err = s.tracer.TraceFunction(ctx, "producer_feedback", func(ctx context.Context) error {
		var callErr error
		fb, callErr = s.producer.Analyze(ctx, payload, strings.TrimSpace(notes))
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// ProducerFeedbackText asks for written feedback on the session graph.
func (s *AssistService) ProducerFeedbackText(ctx context.Context, id aggregates.GraphID, notes string) (*ports.TextFeedback, error) {
	if s.producer == nil {
		return nil, errors.NewUnavailableError("producer feedback")
	}
	payload, err := s.feedbackPayload(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.producer.AnalyzeText(ctx, payload, strings.TrimSpace(notes))
}

func (s *AssistService) feedbackPayload(ctx context.Context, id aggregates.GraphID) (ports.GraphPayload, error) {
	g, err := s.sessions.Graph(ctx, id)
	if err != nil {
		return ports.GraphPayload{}, err
	}
	payload := ports.NewGraphPayload(g)
	if payload.IsEmpty() {
		return ports.GraphPayload{}, errors.NewValidationError("graph is empty, add some elements first")
	}
	return payload, nil
}

// GenerateMusic renders the session as audio. An empty prompt is built from
// the graph; a zero duration uses the configured default.
func (s *AssistService) GenerateMusic(ctx context.Context, id aggregates.GraphID, prompt string, durationMs int) (*GeneratedMusic, error) {
	if durationMs == 0 {
		durationMs = s.cfg.DefaultDurationMs
	}
	if durationMs < s.cfg.MinDurationMs || durationMs > s.cfg.MaxDurationMs {
		return nil, errors.NewValidationErrorf("duration must be between %d and %d ms, got %d",
			s.cfg.MinDurationMs, s.cfg.MaxDurationMs, durationMs).
			WithDetail("duration_ms", durationMs)
	}
	if s.music == nil {
		return nil, errors.NewUnavailableError("music generation")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		g, err := s.sessions.Graph(ctx, id)
		if err != nil {
			return nil, err
		}
		prompt = BuildMusicPrompt(g)
	}

	var audio *ports.Audio
	err := s.tracer.TraceFunction(ctx, "music_generation", func(ctx context.Context) error {
		var callErr error
		audio, callErr = s.music.Generate(ctx, prompt, durationMs)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Music generated",
		zap.String("sessionID", id.String()),
		zap.Int("durationMs", durationMs),
		zap.Int("bytes", len(audio.Data)),
	)
	return &GeneratedMusic{Audio: audio, Prompt: prompt, DurationMs: durationMs}, nil
}
