// Package collaborators holds the HTTP clients of the backend services that
// infer commands, recommend instruments, critique a graph and render music.
package collaborators

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"jamflow/pkg/errors"
)

// Collaborator names, used for breakers, metrics and error messages.
const (
	NameInference       = "command_inference"
	NameRecommendations = "recommendations"
	NameProducer        = "producer_feedback"
	NameMusic           = "music_generation"
)

// Metrics receives per-call outcomes and breaker transitions. Nil disables it.
type Metrics interface {
	ObserveCollaborator(name, outcome string)
	SetBreakerState(name string, state int)
}

// Settings configures a Client.
type Settings struct {
	BaseURL      string
	Timeout      time.Duration
	MusicTimeout time.Duration
	Tracing      bool

	BreakerMaxRequests         uint32
	BreakerInterval            time.Duration
	BreakerOpenTimeout         time.Duration
	BreakerConsecutiveFailures uint32
}

// Client is the shared transport of the collaborator clients. Each
// collaborator has its own circuit breaker so one failing service does not
// cut off the others. Calls are never retried.
type Client struct {
	baseURL  string
	http     *http.Client
	breakers map[string]*gobreaker.CircuitBreaker
	logger   *zap.Logger
	metrics  Metrics
}

// NewClient creates the shared transport.
func NewClient(s Settings, metrics Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{}
	if s.Tracing {
		httpClient = xray.Client(httpClient)
	}

	c := &Client{
		baseURL:  strings.TrimRight(s.BaseURL, "/"),
		http:     httpClient,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		logger:   logger,
		metrics:  metrics,
	}
	for _, name := range []string{NameInference, NameRecommendations, NameProducer, NameMusic} {
		c.breakers[name] = c.newBreaker(name, s)
	}
	return c
}

func (c *Client) newBreaker(name string, s Settings) *gobreaker.CircuitBreaker {
	failures := s.BreakerConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.BreakerMaxRequests,
		Interval:    s.BreakerInterval,
		Timeout:     s.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("collaborator", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if c.metrics != nil {
				c.metrics.SetBreakerState(name, breakerGauge(to))
			}
		},
		// A rejected request is the caller's problem, not the service's.
		IsSuccessful: func(err error) bool {
			var se *statusError
			if stderrors.As(err, &se) {
				return se.status < 500
			}
			return err == nil
		},
	})
}

func breakerGauge(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// statusError is a non-2xx response.
type statusError struct {
	status int
	detail string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.detail)
}

// response is a successful reply.
type response struct {
	body   []byte
	header http.Header
}

// post sends body as JSON to path through the named breaker.
func (c *Client) post(ctx context.Context, name, path string, timeout time.Duration, body interface{}) (*response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode request").WithCause(err)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := c.breakers[name].Execute(func() (interface{}, error) {
		return c.send(ctx, path, payload)
	})
	if err != nil {
		appErr := c.mapError(ctx, name, err)
		c.observe(name, string(appErr.Type))
		c.logger.Warn("Collaborator call failed",
			zap.String("collaborator", name),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, appErr
	}

	c.observe(name, "ok")
	c.logger.Debug("Collaborator call succeeded",
		zap.String("collaborator", name),
		zap.String("path", path),
		zap.Duration("duration", time.Since(start)),
	)
	return out.(*response), nil
}

func (c *Client) send(ctx context.Context, path string, payload []byte) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{status: resp.StatusCode, detail: errorDetail(data)}
	}
	return &response{body: data, header: resp.Header}, nil
}

// errorDetail pulls the "detail" field out of an error body, falling back to
// the raw text.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail interface{} `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != nil {
		if s, ok := parsed.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(parsed.Detail); err == nil {
			return string(b)
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 512 {
		text = text[:512]
	}
	return text
}

func (c *Client) mapError(ctx context.Context, name string, err error) *errors.AppError {
	var se *statusError
	switch {
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NewUnavailableError(name).WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewTimeoutError(name).WithCause(err)
	case stderrors.As(err, &se) && (se.status == http.StatusForbidden || se.status == http.StatusUnavailableForLegalReasons):
		// refused by the collaborator's content policy; the user can rephrase
		return errors.NewBlockedError(fmt.Sprintf("%s refused the request: %s", name, se.detail)).
			WithCause(err).
			WithDetail("status", se.status)
	case stderrors.As(err, &se):
		return errors.NewExternalError(name, err).
			WithDetail("status", se.status).
			WithDetail("detail", se.detail)
	default:
		return errors.NewExternalError(name, err)
	}
}

func (c *Client) observe(name, outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveCollaborator(name, strings.ToLower(outcome))
	}
}

// BreakerState reports the current state of a collaborator's breaker.
func (c *Client) BreakerState(name string) gobreaker.State {
	if b, ok := c.breakers[name]; ok {
		return b.State()
	}
	return gobreaker.StateClosed
}
