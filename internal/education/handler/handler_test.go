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

	"sankalp/internal/education/models"
	"sankalp/internal/education/service"
	"sankalp/internal/education/store"
	"sankalp/internal/fanout/fanouttest"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	identitystore "sankalp/internal/identity/store"
	"sankalp/pkg/testutil"
)

type fixture struct {
	router      http.Handler
	notified    *fanouttest.Recorder
	beneficiary *identity.Actor
	volunteer   *identity.Actor
	donor       *identity.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	actors := identitystore.NewInMemory()
	f := &fixture{
		notified:    &fanouttest.Recorder{},
		beneficiary: &identity.Actor{Username: "asha", Role: identity.RoleBeneficiary},
		volunteer:   &identity.Actor{Username: "vikram", Role: identity.RoleVolunteer},
		donor:       &identity.Actor{Username: "priya", Role: identity.RoleDonor, Contact: "+912222222222"},
	}
	for _, a := range []*identity.Actor{f.beneficiary, f.volunteer, f.donor} {
		require.NoError(t, actors.Create(t.Context(), a))
	}

	svc := service.New(store.NewInMemory(), actors, f.notified)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	f.router = r
	return f
}

func (f *fixture) do(req *http.Request, actor *identity.Actor) *httptest.ResponseRecorder {
	if actor != nil {
		req = req.WithContext(gate.WithActor(req.Context(), actor))
	}
	return testutil.DoRequest(f.router, req)
}

func TestEducationRoutes(t *testing.T) {
	testutil.Given(t, "a beneficiary submits a request", func(t *testing.T) {
		f := newFixture(t)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/education/requests", map[string]any{
			"full_name": "Asha", "age": 12, "education_level": "Class 7", "reason": "School fees",
		})
		rr := f.do(req, f.beneficiary)
		testutil.AssertStatus(t, rr, http.StatusCreated)
		created := testutil.UnmarshalResponse[models.Request](t, rr)

		testutil.When(t, "the volunteer forwards it to the donor", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost,
				"/education/requests/"+created.ID.String()+"/forward",
				map[string]any{"donor_id": f.donor.ID, "notes": "verified"})
			rr := f.do(req, f.volunteer)

			testutil.Then(t, "the request is forwarded", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				body := testutil.UnmarshalResponse[models.Request](t, rr)
				assert.Equal(t, models.StatusForwarded, body.Status)
			})
		})

		testutil.When(t, "the donor approves it twice", func(t *testing.T) {
			path := "/education/requests/" + created.ID.String() + "/approve"
			rr := f.do(testutil.NewRequest(t, http.MethodPost, path), f.donor)
			testutil.AssertStatusOK(t, rr)

			rr = f.do(testutil.NewRequest(t, http.MethodPost, path), f.donor)

			testutil.Then(t, "the second attempt conflicts", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusConflict, "invalid_state")
			})
		})

		testutil.When(t, "the donor lists approved requests", func(t *testing.T) {
			rr := f.do(testutil.NewRequest(t, http.MethodGet, "/education/donor/requests?status=Approved"), f.donor)

			testutil.Then(t, "the approved request is listed", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				body := testutil.UnmarshalResponse[struct {
					Requests []models.Request `json:"requests"`
				}](t, rr)
				require.Len(t, body.Requests, 1)
				assert.Equal(t, created.ID, body.Requests[0].ID)
			})
		})
	})

	testutil.Given(t, "an anonymous caller", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(testutil.NewRequest(t, http.MethodGet, "/education/requests/latest"), nil)
		testutil.Then(t, "the request is unauthorized", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusUnauthorized)
			assert.Zero(t, f.notified.Total())
		})
	})

	testutil.Given(t, "a donor tries to submit", func(t *testing.T) {
		f := newFixture(t)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/education/requests", map[string]any{
			"full_name": "x", "education_level": "y", "reason": "z",
		})
		rr := f.do(req, f.donor)
		testutil.Then(t, "the role gate refuses it", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusForbidden)
		})
	})

	testutil.Given(t, "an unknown status filter", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(testutil.NewRequest(t, http.MethodGet, "/education/donor/requests?status=Lost"), f.donor)
		testutil.Then(t, "it is a bad request", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
		})
	})

	testutil.Given(t, "a malformed request id", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(testutil.NewRequest(t, http.MethodPost, "/education/requests/abc/approve"), f.donor)
		testutil.Then(t, "it is a bad request", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
		})
	})
}
