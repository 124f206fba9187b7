package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Bus metrics, labelled by command or query type
	Operations *prometheus.CounterVec
	Durations  *prometheus.HistogramVec

	// Engine metrics
	TranscriptsParsed *prometheus.CounterVec
	BatchCommands     *prometheus.CounterVec
	Restyles          prometheus.Counter

	// Collaborator metrics
	CollaboratorCalls *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Commands and queries handled, by outcome",
		}, []string{"metric", "type"}),
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Command and query latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"metric", "type"}),
		TranscriptsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_parsed_total",
			Help:      "Transcripts parsed, by strategy",
		}, []string{"strategy"}),
		BatchCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_commands_total",
			Help:      "Dispatched commands, by outcome",
		}, []string{"outcome"}),
		Restyles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edge_restyles_total",
			Help:      "Full edge restyle passes triggered by a structural change",
		}),
		CollaboratorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_calls_total",
			Help:      "Calls to backend collaborators, by outcome",
		}, []string{"collaborator", "outcome"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"collaborator"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}),
	}

	c.registry.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.Operations, c.Durations,
		c.TranscriptsParsed, c.BatchCommands, c.Restyles,
		c.CollaboratorCalls, c.BreakerState,
		c.CacheHits, c.CacheMisses,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTP records one served request.
func (c *Collector) RecordHTTP(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Increment bumps an operation counter.
func (c *Collector) Increment(metric, label string) {
	c.Operations.WithLabelValues(metric, label).Inc()
}

// StartTimer starts an operation timer.
func (c *Collector) StartTimer(metric, label string) *Timer {
	return &Timer{observer: c.Durations.WithLabelValues(metric, label), start: time.Now()}
}

// Timer observes the time since it was started.
type Timer struct {
	observer prometheus.Observer
	start    time.Time
}

// Stop records the elapsed time.
func (t *Timer) Stop() {
	t.observer.Observe(time.Since(t.start).Seconds())
}

// ObserveTranscript counts a parsed transcript by the strategy that handled it.
func (c *Collector) ObserveTranscript(strategy string) {
	c.TranscriptsParsed.WithLabelValues(strategy).Inc()
}

// ObserveBatch counts the applied and skipped commands of one batch.
func (c *Collector) ObserveBatch(applied, skipped int) {
	c.BatchCommands.WithLabelValues("applied").Add(float64(applied))
	c.BatchCommands.WithLabelValues("skipped").Add(float64(skipped))
}

// ObserveRestyle counts a full edge restyle.
func (c *Collector) ObserveRestyle() {
	c.Restyles.Inc()
}

// ObserveCache counts a cache lookup.
func (c *Collector) ObserveCache(hit bool) {
	if hit {
		c.CacheHits.Inc()
		return
	}
	c.CacheMisses.Inc()
}

// ObserveCollaborator counts one collaborator call.
func (c *Collector) ObserveCollaborator(name, outcome string) {
	c.CollaboratorCalls.WithLabelValues(name, outcome).Inc()
}

// SetBreakerState records the state of a collaborator's circuit breaker.
func (c *Collector) SetBreakerState(name string, state int) {
	c.BreakerState.WithLabelValues(name).Set(float64(state))
}
