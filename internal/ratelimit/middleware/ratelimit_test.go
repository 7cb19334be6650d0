package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sankalp/internal/ratelimit/models"
	"sankalp/internal/ratelimit/store"
	"sankalp/pkg/requestcontext"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func serve(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/legal/camps/1/approve", nil)
	req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "", ""))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimitPerClientIP(t *testing.T) {
	m := New(store.NewInMemory(nil), map[models.Class]models.Limit{
		models.ClassLink: {Requests: 2, Window: time.Minute},
	}, discard)
	h := m.RateLimit(models.ClassLink)(ok())

	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1").Code)
	second := serve(h, "10.0.0.1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := serve(h, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.2").Code)
}

func TestUnconfiguredClassPassesThrough(t *testing.T) {
	m := New(store.NewInMemory(nil), nil, discard)
	h := m.RateLimit(models.ClassAuth)(ok())
	for range 5 {
		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1").Code)
	}
}

type brokenStore struct{}

func (brokenStore) Allow(context.Context, string, int, time.Duration) (*models.Result, error) {
	return nil, errors.New("redis down")
}

func TestStoreFailureFailsOpen(t *testing.T) {
	m := New(brokenStore{}, map[models.Class]models.Limit{
		models.ClassAuth: {Requests: 1, Window: time.Minute},
	}, discard)
	assert.Equal(t, http.StatusOK, serve(m.RateLimit(models.ClassAuth)(ok()), "10.0.0.1").Code)
}
