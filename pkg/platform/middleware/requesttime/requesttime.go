// Package requesttime provides middleware for request-scoped time. All
// transitions within a single request share the same "now", so timestamps
// written by one transition (forwarded_at, decision_at) agree with its audit
// event.
package requesttime

import (
	"net/http"
	"time"

	"sankalp/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
