// Package middleware holds HTTP middleware that depends on process-level
// platform packages.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/platform/metrics"
)

// RequestLatency observes every request under its chi route pattern so that
// path parameters do not explode label cardinality. Unmatched requests are
// recorded as "unmatched".
func RequestLatency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveRequest(r.Method, route, start)
		})
	}
}
