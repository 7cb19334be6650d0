package handler

//go:generate mockgen -source=handler.go -destination=mocks/identity-mocks.go -package=mocks Service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"sankalp/internal/identity/gate"
	"sankalp/internal/identity/handler/mocks"
	"sankalp/internal/identity/models"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/testutil"
)

func newRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(h.RequireActor)
		h.Register(r)
	})
	return r, svc
}

func TestRegisterEndpoint(t *testing.T) {
	testutil.Given(t, "a valid sign-up body", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(&models.Actor{ID: 7, Username: "asha", Role: models.RoleBeneficiary}, nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
			"username": "asha", "email": "asha@example.org", "password": "password1", "role": "Beneficiary",
		})
		rr := testutil.DoRequest(router, req)

		testutil.Then(t, "the created actor is returned", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusCreated)
			body := testutil.UnmarshalResponse[models.ActorView](t, rr)
			assert.Equal(t, id.ActorID(7), body.ID)
			assert.Equal(t, models.RoleBeneficiary, body.Role)
		})
	})

	testutil.Given(t, "a body with unknown fields", func(t *testing.T) {
		router, _ := newRouter(t)
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/auth/register", `{"username":"x","is_admin":true}`)
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, "bad_request")
	})
}

func TestLoginEndpoint(t *testing.T) {
	router, svc := newRouter(t)
	svc.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid username or password"))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{"username": "a", "password": "b"})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	testutil.AssertErrorCode(t, rr, "unauthorized")
}

func TestRequireActor(t *testing.T) {
	testutil.Given(t, "a token whose actor was deleted", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().Resolve(gomock.Any(), id.ActorID(3)).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "actor no longer exists"))

		rr := testutil.DoRequest(router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/auth/me"), 3))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	testutil.Given(t, "a live actor", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().Resolve(gomock.Any(), id.ActorID(3)).
			Return(&models.Actor{ID: 3, Username: "vikram", Role: models.RoleVolunteer}, nil)

		rr := testutil.DoRequest(router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/auth/me"), 3))
		testutil.AssertStatusOK(t, rr)
		body := testutil.UnmarshalResponse[models.ActorView](t, rr)
		assert.Equal(t, "vikram", body.Username)
	})
}

func TestAdminRoutes(t *testing.T) {
	admin := &models.Actor{ID: 1, Username: "root", Role: models.RoleAdmin}

	testutil.When(t, "an admin changes a role", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().Resolve(gomock.Any(), id.ActorID(1)).Return(admin, nil)
		svc.EXPECT().ChangeRole(gomock.Any(), admin, id.ActorID(9), models.RoleSupporter).
			Return(&models.Actor{ID: 9, Role: models.RoleSupporter}, nil)

		req := testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPut, "/admin/actors/9/role", map[string]string{"role": "Supporter"}), 1)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
	})

	testutil.When(t, "the role is not part of the enumeration", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().Resolve(gomock.Any(), id.ActorID(1)).Return(admin, nil)

		req := testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPut, "/admin/actors/9/role", map[string]string{"role": "Overlord"}), 1)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	testutil.When(t, "a non-admin deletes an actor", func(t *testing.T) {
		donor := &models.Actor{ID: 2, Role: models.RoleDonor}
		router, svc := newRouter(t)
		svc.EXPECT().Resolve(gomock.Any(), id.ActorID(2)).Return(donor, nil)
		svc.EXPECT().DeleteActor(gomock.Any(), donor, id.ActorID(9)).
			DoAndReturn(func(_ context.Context, caller *models.Actor, _ id.ActorID) error {
				return gate.Authorize(caller, models.RoleAdmin)
			})

		req := testutil.WithActor(testutil.NewRequest(t, http.MethodDelete, "/admin/actors/9"), 2)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
		testutil.AssertErrorCode(t, rr, "forbidden")
	})
}
