// Package rest exposes jam sessions over HTTP.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"jamflow/application/commands/bus"
	querybus "jamflow/application/queries/bus"
	"jamflow/infrastructure/collaborators"
	"jamflow/infrastructure/config"
	"jamflow/interfaces/http/rest/handlers"
	"jamflow/interfaces/http/rest/middleware"
	"jamflow/pkg/errors"
	"jamflow/pkg/observability"
	"jamflow/pkg/ratelimit"
)

// Breakers reports collaborator circuit breaker states.
type Breakers interface {
	BreakerState(name string) gobreaker.State
}

// Dependencies are the collaborators of the router.
type Dependencies struct {
	Config      *config.Config
	CommandBus  *bus.CommandBus
	QueryBus    *querybus.QueryBus
	Sessions    handlers.SessionEngine
	Assist      handlers.Assistant
	RateLimiter *ratelimit.SlidingWindowLimiter
	Collector   *observability.Collector
	Tracer      *observability.Tracer
	Breakers    Breakers
	Logger      *zap.Logger
}

// Router creates and configures the HTTP router
type Router struct {
	deps   Dependencies
	errors *errors.ErrorHandler
	logger *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debug := deps.Config != nil && deps.Config.IsDevelopment()
	return &Router{
		deps:   deps,
		errors: errors.NewErrorHandler(logger.Named("http"), debug),
		logger: logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	cfg := rt.deps.Config
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.deps.Tracer.Middleware)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger.Named("http")))
	if rt.deps.Collector != nil && (cfg == nil || cfg.EnableMetrics) {
		router.Use(middleware.Metrics(rt.deps.Collector))
	}
	if cfg != nil && cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", handlers.HeaderFeedbackText, handlers.HeaderMusicPrompt, handlers.HeaderDurationMs, "Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.deps.Collector != nil {
		router.Handle("/metrics", rt.deps.Collector.Handler())
	}
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	sessionHandler := handlers.NewSessionHandler(rt.deps.CommandBus, rt.deps.QueryBus, rt.deps.Sessions, rt.errors, rt.logger)
	nodeHandler := handlers.NewNodeHandler(rt.deps.CommandBus, rt.deps.QueryBus, rt.errors, rt.logger)
	edgeHandler := handlers.NewEdgeHandler(rt.deps.CommandBus, rt.deps.QueryBus, rt.errors, rt.logger)
	assistHandler := handlers.NewAssistHandler(rt.deps.Assist, rt.errors, rt.logger)

	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", sessionHandler.CreateSession)
		r.Get("/", sessionHandler.ListSessions)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", sessionHandler.DeleteSession)
			r.Get("/graph", sessionHandler.GetGraph)
			r.Get("/stats", sessionHandler.GetStats)
			r.Put("/mode", sessionHandler.SetMode)
			r.Post("/clear", sessionHandler.Clear)
			r.Post("/transcript", sessionHandler.ProcessTranscript)
			r.Post("/commands", sessionHandler.ApplyCommands)
			r.With(rt.instructionLimit()...).Post("/instructions", sessionHandler.ApplyInstruction)

			r.Post("/nodes", nodeHandler.AddNode)
			r.Post("/nodes/bulk-delete", nodeHandler.BulkDeleteNodes)
			r.Get("/nodes/{nodeID}", nodeHandler.GetNode)
			r.Put("/nodes/{nodeID}", nodeHandler.UpdateNode)
			r.Delete("/nodes/{nodeID}", nodeHandler.DeleteNode)
			r.Post("/positions", nodeHandler.MoveNodes)

			r.Post("/edges", edgeHandler.AddEdge)
			r.Delete("/edges/{edgeID}", edgeHandler.DeleteEdge)
			r.Get("/compatibility", edgeHandler.EvaluatePair)

			r.Post("/recommendations", assistHandler.Recommend)
			r.Post("/producer", assistHandler.ProducerFeedback)
			r.Post("/producer/text", assistHandler.ProducerFeedbackText)
			r.Post("/music", assistHandler.GenerateMusic)
		})
	})

	return router
}

func (rt *Router) instructionLimit() []func(http.Handler) http.Handler {
	if rt.deps.RateLimiter == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{
		middleware.RateLimit(rt.deps.RateLimiter, rt.errors, rt.logger),
	}
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports the collaborator breakers. An open breaker
// degrades the service but does not make it unready: local editing still
// works.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	status := "ready"
	breakers := map[string]string{}
	if rt.deps.Breakers != nil {
		for _, name := range []string{
			collaborators.NameInference,
			collaborators.NameRecommendations,
			collaborators.NameProducer,
			collaborators.NameMusic,
		} {
			state := rt.deps.Breakers.BreakerState(name)
			breakers[name] = state.String()
			if state == gobreaker.StateOpen {
				status = "degraded"
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        status,
		"collaborators": breakers,
		"time":          time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
