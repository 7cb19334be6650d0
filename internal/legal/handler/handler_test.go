package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sankalp/internal/fanout/fanouttest"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	identitystore "sankalp/internal/identity/store"
	"sankalp/internal/legal/models"
	"sankalp/internal/legal/service"
	"sankalp/internal/legal/store"
	"sankalp/internal/platform/templates"
	"sankalp/pkg/testutil"
)

type fixture struct {
	router    http.Handler
	notified  *fanouttest.Recorder
	volunteer *identity.Actor
	advocate  *identity.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	actors := identitystore.NewInMemory()
	f := &fixture{
		notified:  &fanouttest.Recorder{},
		volunteer: &identity.Actor{Username: "vikram", Email: "vikram@example.org", Role: identity.RoleVolunteer},
		advocate:  &identity.Actor{Username: "meera", Email: "meera@example.org", Role: identity.RoleAdvocate},
	}
	require.NoError(t, actors.Create(t.Context(), f.volunteer))
	require.NoError(t, actors.Create(t.Context(), f.advocate))

	h := New(service.New(store.NewInMemory(), actors, f.notified), templates.MustNew(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(h.Register)
	f.router = r
	return f
}

func (f *fixture) do(req *http.Request, actor *identity.Actor) *httptest.ResponseRecorder {
	if actor != nil {
		req = req.WithContext(gate.WithActor(req.Context(), actor))
	}
	return testutil.DoRequest(f.router, req)
}

func (f *fixture) requestCamp(t *testing.T) *models.Camp {
	t.Helper()
	rr := f.do(testutil.NewJSONRequest(t, http.MethodPost, "/legal/camps", map[string]any{
		"title": "Tenant rights", "description": "Rights of tenants", "location": "Pune",
		"proposed_date": "2025-07-01", "category": "SheRights",
	}), f.volunteer)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[models.Camp](t, rr)
}

func TestApprovalLink(t *testing.T) {
	testutil.Given(t, "a pending camp", func(t *testing.T) {
		f := newFixture(t)
		camp := f.requestCamp(t)
		path := "/legal/camps/" + camp.ID.String() + "/approve"

		testutil.When(t, "the link is opened", func(t *testing.T) {
			rr := f.do(testutil.NewRequest(t, http.MethodGet, path), nil)

			testutil.Then(t, "a confirmation form is shown and nothing changes", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
				assert.Contains(t, rr.Body.String(), `action="`+path+`"`)
			})
		})

		testutil.When(t, "the form is submitted twice without a session", func(t *testing.T) {
			first := f.do(testutil.NewRequest(t, http.MethodPost, path), nil)
			second := f.do(testutil.NewRequest(t, http.MethodPost, path), nil)

			testutil.Then(t, "the first approves and the second reports it", func(t *testing.T) {
				testutil.AssertStatusOK(t, first)
				assert.Contains(t, first.Body.String(), "The camp has been approved.")
				testutil.AssertStatusOK(t, second)
				assert.Contains(t, second.Body.String(), "This camp has already been approved.")
			})
		})
	})

	testutil.Given(t, "an unknown camp id", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(testutil.NewRequest(t, http.MethodPost, "/legal/camps/99/approve"), nil)
		testutil.Then(t, "a not found page is rendered", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusNotFound)
			assert.Contains(t, rr.Body.String(), "legal camp not found")
		})
	})
}

func TestAuthenticatedRoutes(t *testing.T) {
	testutil.Given(t, "an advocate deciding from the dashboard", func(t *testing.T) {
		f := newFixture(t)
		camp := f.requestCamp(t)
		assert.Equal(t, models.CategorySheRights, camp.Category)
		path := "/legal/camps/" + camp.ID.String() + "/decision"

		rr := f.do(testutil.NewJSONRequest(t, http.MethodPost, path, map[string]string{"decision": "Maybe"}), f.advocate)
		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)

		rr = f.do(testutil.NewJSONRequest(t, http.MethodPost, path, map[string]string{"decision": "Rejected"}), f.advocate)
		testutil.Then(t, "the camp is rejected", func(t *testing.T) {
			testutil.AssertStatusOK(t, rr)
			body := testutil.UnmarshalResponse[models.Camp](t, rr)
			assert.Equal(t, models.StatusRejected, body.Status)
		})

		rr = f.do(testutil.NewRequest(t, http.MethodGet, "/legal/camps/"+camp.ID.String()+"/approve"), nil)
		testutil.Then(t, "the link no longer offers approval", func(t *testing.T) {
			assert.Contains(t, rr.Body.String(), "This camp has already been rejected.")
			assert.NotContains(t, rr.Body.String(), "<form")
		})
	})

	testutil.Given(t, "an advocate trying to request a camp", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(testutil.NewJSONRequest(t, http.MethodPost, "/legal/camps", map[string]any{
			"title": "t", "description": "d", "location": "l", "proposed_date": "2025-07-01",
		}), f.advocate)
		testutil.Then(t, "it is forbidden", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
		})
	})

	testutil.Given(t, "a volunteer listing camps", func(t *testing.T) {
		f := newFixture(t)
		f.requestCamp(t)
		rr := f.do(testutil.NewRequest(t, http.MethodGet, "/legal/camps"), f.volunteer)
		testutil.Then(t, "their own request is listed", func(t *testing.T) {
			testutil.AssertStatusOK(t, rr)
			body := testutil.UnmarshalResponse[struct {
				Camps []models.Camp `json:"camps"`
			}](t, rr)
			assert.Len(t, body.Camps, 1)
		})
	})
}
