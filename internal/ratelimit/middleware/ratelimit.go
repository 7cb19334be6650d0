// Package middleware throttles anonymous endpoints by client IP.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"sankalp/internal/ratelimit/models"
	"sankalp/internal/ratelimit/store"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
	"sankalp/pkg/requestcontext"
)

type Middleware struct {
	store  store.Store
	limits map[models.Class]models.Limit
	logger *slog.Logger
}

func New(st store.Store, limits map[models.Class]models.Limit, logger *slog.Logger) *Middleware {
	return &Middleware{store: st, limits: limits, logger: logger}
}

// RateLimit rejects requests beyond the class budget with 429. A class
// without a configured limit, or a failing store, lets requests through.
func (m *Middleware) RateLimit(class models.Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit, ok := m.limits[class]
			if !ok || limit.Requests <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			result, err := m.store.Allow(ctx, string(class)+":"+ip, limit.Requests, limit.Window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"class", class,
					"request_id", request.GetRequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", class,
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":             "rate_limit_exceeded",
					"error_description": "Too many requests. Please try again later.",
					"retry_after":       result.RetryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
