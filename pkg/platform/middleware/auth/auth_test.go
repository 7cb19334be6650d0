package auth

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

	id "sankalp/pkg/domain"
	"sankalp/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) { return s.claims, s.err }

type stubRevocations struct {
	revoked bool
	err     error
}

func (s stubRevocations) IsTokenRevoked(context.Context, string) (bool, error) {
	return s.revoked, s.err
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func run(mw func(http.Handler) http.Handler, header string) (*httptest.ResponseRecorder, id.ActorID, bool) {
	var (
		seen   id.ActorID
		called bool
	)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = requestcontext.ActorID(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr, seen, called
}

func TestRequireAuth(t *testing.T) {
	valid := stubValidator{claims: &JWTClaims{ActorID: 9, JTI: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}}

	t.Run("missing header", func(t *testing.T) {
		rr, _, called := run(RequireAuth(valid, nil, discard), "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("invalid token", func(t *testing.T) {
		rr, _, called := run(RequireAuth(stubValidator{err: errors.New("bad")}, nil, discard), "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("revoked token", func(t *testing.T) {
		rr, _, called := run(RequireAuth(valid, stubRevocations{revoked: true}, discard), "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "revoked")
		assert.False(t, called)
	})

	t.Run("revocation store failure", func(t *testing.T) {
		rr, _, called := run(RequireAuth(valid, stubRevocations{err: errors.New("redis down")}, discard), "Bearer x")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.False(t, called)
	})

	t.Run("valid token sets actor", func(t *testing.T) {
		rr, actor, called := run(RequireAuth(valid, stubRevocations{}, discard), "Bearer x")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, called)
		assert.Equal(t, id.ActorID(9), actor)
	})
}

func TestOptionalAuth(t *testing.T) {
	valid := stubValidator{claims: &JWTClaims{ActorID: 3, JTI: "jti-3"}}

	t.Run("anonymous passes through", func(t *testing.T) {
		_, actor, called := run(OptionalAuth(valid, nil, discard), "")
		assert.True(t, called)
		assert.Zero(t, actor)
	})

	t.Run("present header is validated", func(t *testing.T) {
		rr, _, called := run(OptionalAuth(stubValidator{err: errors.New("bad")}, nil, discard), "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("valid header sets actor", func(t *testing.T) {
		_, actor, _ := run(OptionalAuth(valid, nil, discard), "Bearer x")
		assert.Equal(t, id.ActorID(3), actor)
	})
}
