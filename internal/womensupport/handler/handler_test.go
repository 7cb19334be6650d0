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
	"sankalp/internal/platform/templates"
	"sankalp/internal/womensupport/models"
	"sankalp/internal/womensupport/service"
	"sankalp/internal/womensupport/store"
	"sankalp/pkg/testutil"
)

type fixture struct {
	router     http.Handler
	notified   *fanouttest.Recorder
	volunteer  *identity.Actor
	supporterA *identity.Actor
	supporterB *identity.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	actors := identitystore.NewInMemory()
	f := &fixture{
		notified:   &fanouttest.Recorder{},
		volunteer:  &identity.Actor{Username: "vikram", Email: "vikram@example.org", Role: identity.RoleVolunteer},
		supporterA: &identity.Actor{Username: "kavya", Email: "kavya@example.org", Role: identity.RoleSupporter},
		supporterB: &identity.Actor{Username: "lata", Email: "lata@example.org", Role: identity.RoleSupporter},
	}
	for _, a := range []*identity.Actor{f.volunteer, f.supporterA, f.supporterB} {
		require.NoError(t, actors.Create(t.Context(), a))
	}

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

func (f *fixture) requestCampaign(t *testing.T) *models.Campaign {
	t.Helper()
	rr := f.do(testutil.NewJSONRequest(t, http.MethodPost, "/women-support/campaigns", map[string]any{
		"title": "Safety at work", "description": "Workplace safety session", "location": "Nashik",
		"proposed_date": "2025-07-01", "supporter_id": f.supporterA.ID,
	}), f.volunteer)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	f.notified.Reset()
	return testutil.UnmarshalResponse[models.Campaign](t, rr)
}

func TestSupporterApprovalConflict(t *testing.T) {
	testutil.Given(t, "a campaign approved by supporter A", func(t *testing.T) {
		f := newFixture(t)
		c := f.requestCampaign(t)
		path := "/women-support/campaigns/" + c.ID.String() + "/decision"
		rr := f.do(testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{"decision": "Approved"}), f.supporterA)
		testutil.AssertStatusOK(t, rr)
		f.notified.Reset()

		testutil.When(t, "supporter B approves too", func(t *testing.T) {
			rr := f.do(testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{"decision": "Approved"}), f.supporterB)

			testutil.Then(t, "B is told A already approved it", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusConflict, "invalid_state")
				assert.Contains(t, rr.Body.String(), "already approved by kavya")
				assert.Zero(t, f.notified.Total())
			})
		})
	})
}

func TestEmailLinks(t *testing.T) {
	f := newFixture(t)
	c := f.requestCampaign(t)
	base := "/women-support/campaigns/" + c.ID.String()

	t.Run("opening the reject link only asks for confirmation", func(t *testing.T) {
		rr := f.do(testutil.NewRequest(t, http.MethodGet, base+"/reject"), nil)
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), "Reject campaign")
		assert.Zero(t, f.notified.Total())
	})

	t.Run("a signed-in supporter approving becomes supporter of record", func(t *testing.T) {
		rr := f.do(testutil.NewRequest(t, http.MethodPost, base+"/approve"), f.supporterB)
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), "Campaign approved successfully.")
		assert.Equal(t, []string{"vikram@example.org"}, f.notified.EmailAddresses())

		list := f.do(testutil.NewRequest(t, http.MethodGet, "/women-support/campaigns"), f.supporterB)
		body := testutil.UnmarshalResponse[struct {
			Campaigns []models.Campaign `json:"campaigns"`
		}](t, list)
		require.Len(t, body.Campaigns, 1)
	})

	t.Run("later link use is informational", func(t *testing.T) {
		f.notified.Reset()
		rr := f.do(testutil.NewRequest(t, http.MethodPost, base+"/reject"), nil)
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), "Campaign is already approved.")
		assert.NotContains(t, rr.Body.String(), `method="post"`)
		assert.Zero(t, f.notified.Total())
	})

	t.Run("unknown campaign", func(t *testing.T) {
		rr := f.do(testutil.NewRequest(t, http.MethodGet, "/women-support/campaigns/999/approve"), nil)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestCampaignRequestValidation(t *testing.T) {
	f := newFixture(t)
	rr := f.do(testutil.NewJSONRequest(t, http.MethodPost, "/women-support/campaigns", map[string]any{
		"title": "Safety", "description": "d", "location": "l", "proposed_date": "2025-07-01",
		"supporter_id": f.volunteer.ID,
	}), f.volunteer)
	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "validation_error")

	rr = f.do(testutil.NewJSONRequest(t, http.MethodPost, "/women-support/campaigns", map[string]any{}), nil)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}
