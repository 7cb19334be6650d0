package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sankalp/internal/fanout/fanouttest"
	identity "sankalp/internal/identity/models"
	identitystore "sankalp/internal/identity/store"
	"sankalp/internal/womensupport/models"
	"sankalp/internal/womensupport/store"
	dErrors "sankalp/pkg/domain-errors"
	audit "sankalp/pkg/platform/audit"
	"sankalp/pkg/platform/audit/store/memory"
	"sankalp/pkg/requestcontext"
)

type WomenSupportServiceSuite struct {
	suite.Suite
	ctx       context.Context
	actors    *identitystore.InMemory
	campaigns *store.InMemory
	notified  *fanouttest.Recorder
	events    *memory.InMemoryStore
	service   *Service

	volunteer   *identity.Actor
	kavya       *identity.Actor
	lata        *identity.Actor
	admin       *identity.Actor
	beneficiary *identity.Actor
}

func TestWomenSupportServiceSuite(t *testing.T) {
	suite.Run(t, new(WomenSupportServiceSuite))
}

type storeEmitter struct{ *memory.InMemoryStore }

func (e storeEmitter) Emit(ctx context.Context, ev audit.Event) error { return e.Append(ctx, ev) }

func (s *WomenSupportServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	s.actors = identitystore.NewInMemory()
	s.campaigns = store.NewInMemory()
	s.notified = &fanouttest.Recorder{}
	s.events = memory.NewInMemoryStore()
	s.service = New(s.campaigns, s.actors, s.notified,
		WithAuditPublisher(storeEmitter{s.events}),
		WithPublicBaseURL("https://sankalp.example.org"),
	)

	s.volunteer = s.actor("vikram", identity.RoleVolunteer)
	s.kavya = s.actor("kavya", identity.RoleSupporter)
	s.lata = s.actor("lata", identity.RoleSupporter)
	s.admin = s.actor("root", identity.RoleAdmin)
	s.beneficiary = s.actor("asha", identity.RoleBeneficiary)
}

func (s *WomenSupportServiceSuite) actor(name string, role identity.Role) *identity.Actor {
	a := &identity.Actor{Username: name, Email: name + "@example.org", Role: role}
	s.Require().NoError(s.actors.Create(context.Background(), a))
	return a
}

func (s *WomenSupportServiceSuite) request(supporter *identity.Actor) *models.Campaign {
	c, err := s.service.RequestCampaign(s.ctx, s.volunteer, &models.CampaignRequest{
		Title: "Safety at work", Description: "Workplace safety session", Location: "Nashik",
		ProposedDate: "2025-07-01", ProposedTime: "10:00", SupporterID: supporter.ID,
	})
	s.Require().NoError(err)
	s.notified.Reset()
	return c
}

func (s *WomenSupportServiceSuite) approve(actor *identity.Actor, c *models.Campaign) (*models.Campaign, error) {
	return s.service.Decide(s.ctx, actor, c.ID, &models.DecisionRequest{Decision: models.StatusApproved})
}

func (s *WomenSupportServiceSuite) TestRequestEmailsOnlyTheChosenSupporter() {
	c, err := s.service.RequestCampaign(s.ctx, s.volunteer, &models.CampaignRequest{
		Title: "Safety at work", Description: "Workplace safety session", Location: "Nashik",
		ProposedDate: "2025-07-01", SupporterID: s.kavya.ID,
	})
	s.Require().NoError(err)
	s.True(c.ManagedBy(s.kavya.ID))

	emails := s.notified.Emails()
	s.Require().Len(emails, 1)
	s.Equal([]string{"kavya@example.org"}, s.notified.EmailAddresses())
	s.Require().Len(emails[0].Notice.Actions, 2)
	base := "https://sankalp.example.org/women-support/campaigns/" + c.ID.String()
	s.Equal(base+"/approve", emails[0].Notice.Actions[0].URL)
	s.Equal(base+"/reject", emails[0].Notice.Actions[1].URL)
}

func (s *WomenSupportServiceSuite) TestRequestRequiresASupporter() {
	for _, target := range []*identity.Actor{s.admin, {ID: 999}} {
		_, err := s.service.RequestCampaign(s.ctx, s.volunteer, &models.CampaignRequest{
			Title: "t", Description: "d", Location: "l", ProposedDate: "2025-07-01", SupporterID: target.ID,
		})
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.Contains(de.Fields, "supporter_id")
	}
	_, err := s.service.RequestCampaign(s.ctx, s.beneficiary, &models.CampaignRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Zero(s.notified.Total())
}

func (s *WomenSupportServiceSuite) TestSecondSupporterCannotOverrideApproval() {
	c := s.request(s.kavya)

	approved, err := s.approve(s.kavya, c)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.Equal([]string{"vikram@example.org"}, s.notified.EmailAddresses())
	s.notified.Reset()

	_, err = s.approve(s.lata, c)
	s.Require().Error(err)
	de, _ := dErrors.As(err)
	s.Equal(dErrors.CodeInvalidState, de.Code)
	s.Equal("'Safety at work' is already approved by kavya.", de.Message)

	stored, err := s.campaigns.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.True(stored.ManagedBy(s.kavya.ID))
	s.Zero(s.notified.Total())

	s.Run("repeating one's own approval is a no-op", func() {
		again, err := s.approve(s.kavya, c)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, again.Status)
		s.Zero(s.notified.Total())
		events, err := s.events.ListByRecord(context.Background(), auditDomain, int64(c.ID))
		s.Require().NoError(err)
		s.Len(events, 2)
	})

	s.Run("the approver cannot reject afterwards", func() {
		_, err := s.service.Decide(s.ctx, s.kavya, c.ID, &models.DecisionRequest{Decision: models.StatusRejected})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Zero(s.notified.Total())
	})
}

func (s *WomenSupportServiceSuite) TestAnySupporterMayTakeOverAPendingCampaign() {
	c := s.request(s.kavya)
	approved, err := s.approve(s.lata, c)
	s.Require().NoError(err)
	s.True(approved.ManagedBy(s.lata.ID))

	_, err = s.approve(s.kavya, c)
	de, _ := dErrors.As(err)
	s.Require().NotNil(de)
	s.Equal("'Safety at work' is already approved by lata.", de.Message)
}

func (s *WomenSupportServiceSuite) TestRejectCarriesReason() {
	c := s.request(s.kavya)
	rejected, err := s.service.Decide(s.ctx, s.kavya, c.ID, &models.DecisionRequest{Decision: models.StatusRejected, Reason: "Venue unavailable"})
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, rejected.Status)

	emails := s.notified.Emails()
	s.Require().Len(emails, 1)
	s.Equal("Your Campaign 'Safety at work' Was Rejected", emails[0].Notice.Subject)
	s.Equal([]string{"Reason: Venue unavailable"}, emails[0].Notice.Lines)
}

func (s *WomenSupportServiceSuite) TestLinks() {
	c := s.request(s.kavya)

	viewed, err := s.service.ViewLink(s.ctx, c.ID)
	s.Require().NoError(err)
	s.False(viewed.Changed)
	s.Zero(s.notified.Total())

	res, err := s.service.ApproveViaLink(s.ctx, c.ID, s.lata)
	s.Require().NoError(err)
	s.True(res.Changed)
	s.Equal(models.StatusApproved, res.Campaign.Status)
	s.True(res.Campaign.ManagedBy(s.lata.ID))
	s.Equal(1, s.notified.Total())
	s.notified.Reset()

	again, err := s.service.RejectViaLink(s.ctx, c.ID)
	s.Require().NoError(err)
	s.False(again.Changed)
	s.Equal(models.StatusApproved, again.Campaign.Status)
	s.Zero(s.notified.Total())

	s.Run("anonymous approval keeps the addressed supporter", func() {
		other := s.request(s.kavya)
		res, err := s.service.ApproveViaLink(s.ctx, other.ID, nil)
		s.Require().NoError(err)
		s.True(res.Campaign.ManagedBy(s.kavya.ID))
	})

	s.Run("a non-supporter holding the link is not recorded", func() {
		other := s.request(s.kavya)
		res, err := s.service.ApproveViaLink(s.ctx, other.ID, s.volunteer)
		s.Require().NoError(err)
		s.True(res.Campaign.ManagedBy(s.kavya.ID))
	})

	_, err = s.service.RejectViaLink(s.ctx, 404)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WomenSupportServiceSuite) TestSchedule() {
	c := s.request(s.kavya)

	_, err := s.service.Schedule(s.ctx, s.admin, c.ID, &models.ScheduleRequest{Date: "2025-08-01", Time: "11:00"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), "pending campaigns cannot be scheduled")

	_, err = s.approve(s.kavya, c)
	s.Require().NoError(err)
	s.notified.Reset()

	_, err = s.service.Schedule(s.ctx, s.admin, c.ID, &models.ScheduleRequest{Date: "2025-08-01"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "time is required")

	_, err = s.service.Schedule(s.ctx, s.kavya, c.ID, &models.ScheduleRequest{Date: "2025-08-01", Time: "11:00"})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Zero(s.notified.Total())

	scheduled, err := s.service.Schedule(s.ctx, s.admin, c.ID, &models.ScheduleRequest{Date: "2025-08-01", Time: "11:00"})
	s.Require().NoError(err)
	s.Equal(models.StatusScheduled, scheduled.Status)
	s.ElementsMatch([]string{"vikram@example.org", "kavya@example.org"}, s.notified.EmailAddresses())
}

func (s *WomenSupportServiceSuite) TestListForRole() {
	first := s.request(s.kavya)
	s.request(s.lata)
	_, err := s.approve(s.kavya, first)
	s.Require().NoError(err)

	mine, err := s.service.ListForRole(s.ctx, s.volunteer)
	s.Require().NoError(err)
	s.Len(mine, 2)

	managed, err := s.service.ListForRole(s.ctx, s.lata)
	s.Require().NoError(err)
	s.Len(managed, 1)

	visible, err := s.service.ListForRole(s.ctx, s.beneficiary)
	s.Require().NoError(err)
	s.Require().Len(visible, 1)
	s.Equal(first.ID, visible[0].ID)

	donor := s.actor("priya", identity.RoleDonor)
	_, err = s.service.ListForRole(s.ctx, donor)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
