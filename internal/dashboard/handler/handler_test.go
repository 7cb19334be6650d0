package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"sankalp/internal/dashboard/service"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/testutil"
)

type stubDashboard struct {
	err error
}

func (s stubDashboard) For(_ context.Context, actor *identity.Actor) (*service.Dashboard, error) {
	if s.err != nil {
		return nil, s.err
	}
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return &service.Dashboard{Role: actor.Role, Unread: 3, Panels: map[string]any{"forwarded": []string{}}}, nil
}

func router(svc Service) http.Handler {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestDashboard(t *testing.T) {
	donor := &identity.Actor{ID: 4, Username: "ravi", Role: identity.RoleDonor}

	req := testutil.NewRequest(t, http.MethodGet, "/dashboard")
	rr := testutil.DoRequest(router(stubDashboard{}), req.WithContext(gate.WithActor(req.Context(), donor)))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "role", "Donor")
	testutil.AssertJSONContains(t, rr, "unread", float64(3))

	rr = testutil.DoRequest(router(stubDashboard{}), testutil.NewRequest(t, http.MethodGet, "/dashboard"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	req = testutil.NewRequest(t, http.MethodGet, "/dashboard")
	rr = testutil.DoRequest(router(stubDashboard{err: errors.New("boom")}), req.WithContext(gate.WithActor(req.Context(), donor)))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
