package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jamflow/pkg/errors"
	"jamflow/pkg/ratelimit"
)

// RateLimit rejects requests beyond the limiter's budget. Requests are
// keyed by client address and session, so one busy session does not starve
// another.
func RateLimit(limiter *ratelimit.SlidingWindowLimiter, errorHandler *errors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr + "|" + chi.URLParam(r, "sessionID")

			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				errorHandler.Handle(w, r, errors.NewInternalError("rate limiter failed").WithCause(err))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				retry := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				logger.Debug("Rate limit exceeded", zap.String("key", key))
				errorHandler.Handle(w, r, errors.NewRateLimitError(limiter.Limit(), limiter.Window().String()).
					WithDetail("retry_after_seconds", retry))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
