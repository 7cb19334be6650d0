package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sankalp/internal/fanout/fanouttest"
	identity "sankalp/internal/identity/models"
	identitystore "sankalp/internal/identity/store"
	"sankalp/internal/medical/models"
	"sankalp/internal/medical/store"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	audit "sankalp/pkg/platform/audit"
	"sankalp/pkg/platform/audit/store/memory"
	"sankalp/pkg/requestcontext"
)

type MedicalServiceSuite struct {
	suite.Suite
	ctx      context.Context
	actors   *identitystore.InMemory
	camps    *store.InMemory
	notified *fanouttest.Recorder
	events   *memory.InMemoryStore
	service  *Service

	admin       *identity.Actor
	volunteer   *identity.Actor
	beneficiary *identity.Actor
	hospital    *models.Hospital
}

func TestMedicalServiceSuite(t *testing.T) {
	suite.Run(t, new(MedicalServiceSuite))
}

type storeEmitter struct{ *memory.InMemoryStore }

func (e storeEmitter) Emit(ctx context.Context, ev audit.Event) error { return e.Append(ctx, ev) }

func (s *MedicalServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	s.actors = identitystore.NewInMemory()
	s.camps = store.NewInMemory()
	s.notified = &fanouttest.Recorder{}
	s.events = memory.NewInMemoryStore()
	s.service = New(s.camps, s.actors, s.notified,
		WithAuditPublisher(storeEmitter{s.events}),
		WithPublicBaseURL("https://sankalp.example.org"),
	)

	s.admin = s.actor("root", identity.RoleAdmin)
	s.volunteer = s.actor("vikram", identity.RoleVolunteer)
	s.beneficiary = s.actor("asha", identity.RoleBeneficiary)

	h, err := s.service.CreateHospital(s.ctx, s.admin, &models.HospitalRequest{Name: "City Hospital", Email: " Desk@CityHospital.example "})
	s.Require().NoError(err)
	s.hospital = h
}

func (s *MedicalServiceSuite) actor(name string, role identity.Role) *identity.Actor {
	a := &identity.Actor{Username: name, Email: name + "@example.org", Role: role}
	s.Require().NoError(s.actors.Create(context.Background(), a))
	return a
}

func (s *MedicalServiceSuite) request() *models.Camp {
	c, err := s.service.RequestCamp(s.ctx, s.volunteer, &models.CampRequest{
		HospitalID: s.hospital.ID, ContactPerson: "Vikram", Phone: "+919999999999",
		Location: "Ward 4", Date: "2025-07-10", Time: "09:00", Description: "Eye check-up",
	})
	s.Require().NoError(err)
	return c
}

func (s *MedicalServiceSuite) TestRequestCampEmailsHospitalBothLinks() {
	c := s.request()
	s.Equal(models.StatusPending, c.Status)
	s.False(c.ApprovalToken.IsNil())

	emails := s.notified.Emails()
	s.Require().Len(emails, 1)
	s.Equal([]string{"desk@cityhospital.example"}, s.notified.EmailAddresses())
	s.Equal("Medical Camp Request from vikram", emails[0].Notice.Subject)
	s.Require().Len(emails[0].Notice.Actions, 2)
	base := "https://sankalp.example.org/medical/respond/" + c.ApprovalToken.String()
	s.Equal(base+"?status=approved", emails[0].Notice.Actions[0].URL)
	s.Equal(base+"?status=rejected", emails[0].Notice.Actions[1].URL)
}

func (s *MedicalServiceSuite) TestEveryCampGetsItsOwnToken() {
	first := s.request()
	second := s.request()
	s.NotEqual(first.ApprovalToken, second.ApprovalToken)
}

func (s *MedicalServiceSuite) TestTokenCollisionIsRegenerated() {
	fixed := id.NewApprovalToken()
	issued := []id.ApprovalToken{fixed, fixed, id.NewApprovalToken()}
	svc := New(s.camps, s.actors, s.notified, WithTokenSource(func() id.ApprovalToken {
		t := issued[0]
		issued = issued[1:]
		return t
	}))
	req := func() (*models.Camp, error) {
		return svc.RequestCamp(s.ctx, s.volunteer, &models.CampRequest{
			HospitalID: s.hospital.ID, ContactPerson: "Vikram", Phone: "+919999999999",
			Location: "Ward 4", Date: "2025-07-10", Description: "Eye check-up",
		})
	}
	first, err := req()
	s.Require().NoError(err)
	second, err := req()
	s.Require().NoError(err)
	s.Equal(fixed, first.ApprovalToken)
	s.NotEqual(fixed, second.ApprovalToken)
}

func (s *MedicalServiceSuite) TestRequestCampGuards() {
	s.Run("only volunteers request", func() {
		_, err := s.service.RequestCamp(s.ctx, s.beneficiary, &models.CampRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
	s.Run("hospital must exist", func() {
		_, err := s.service.RequestCamp(s.ctx, s.volunteer, &models.CampRequest{
			HospitalID: 99, ContactPerson: "Vikram", Phone: "+919999999999",
			Location: "Ward 4", Date: "2025-07-10", Description: "Eye check-up",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
	s.Run("fields are validated", func() {
		_, err := s.service.RequestCamp(s.ctx, s.volunteer, &models.CampRequest{HospitalID: s.hospital.ID})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Zero(s.notified.Total())
}

func (s *MedicalServiceSuite) TestApproveSchedulesOnce() {
	c := s.request()
	s.notified.Reset()

	resp, err := s.service.Respond(s.ctx, c.ApprovalToken, "approved")
	s.Require().NoError(err)
	s.Equal(models.StatusScheduled, resp.Camp.Status)
	s.Require().NotNil(resp.Camp.ScheduledDate)
	s.Equal("2025-07-10", id.FormatDate(resp.Camp.ScheduledDate))
	s.Equal("09:00", resp.Camp.ScheduledTime)

	emails := s.notified.Emails()
	s.Require().Len(emails, 1)
	s.Equal([]string{"vikram@example.org"}, s.notified.EmailAddresses())
	s.Equal("Update from City Hospital - Medical Camp Request", emails[0].Notice.Subject)
	s.Equal("The medical camp has been approved and scheduled.", emails[0].Notice.Headline)
	s.notified.Reset()

	for _, outcome := range []string{"approved", "rejected", "maybe"} {
		_, err := s.service.Respond(s.ctx, c.ApprovalToken, outcome)
		s.Require().ErrorIs(err, ErrAlreadyResponded, outcome)
	}
	s.Zero(s.notified.Total())

	events, err := s.events.ListByRecord(context.Background(), "medical", int64(c.ID))
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionMedicalCampResponded, events[1].Action)
	s.Zero(events[1].ActorID)
}

func (s *MedicalServiceSuite) TestReject() {
	c := s.request()
	s.notified.Reset()

	resp, err := s.service.Respond(s.ctx, c.ApprovalToken, "REJECTED")
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, resp.Camp.Status)
	s.Nil(resp.Camp.ScheduledDate)
	s.Equal("The medical camp request has been rejected.", s.notified.Emails()[0].Notice.Headline)
}

func (s *MedicalServiceSuite) TestRespondRejectsUnknownActionAndToken() {
	c := s.request()
	s.notified.Reset()

	_, err := s.service.Respond(s.ctx, c.ApprovalToken, "maybe")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	stored, err := s.camps.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)

	_, err = s.service.Respond(s.ctx, id.NewApprovalToken(), "approved")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Zero(s.notified.Total())
}

func (s *MedicalServiceSuite) TestPreviewDoesNotMutate() {
	c := s.request()
	resp, err := s.service.Preview(s.ctx, c.ApprovalToken)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, resp.Camp.Status)
	s.Equal("City Hospital", resp.Hospital.Name)
}

func (s *MedicalServiceSuite) TestReads() {
	c := s.request()
	other := s.actor("neha", identity.RoleVolunteer)

	all, err := s.service.ListForActor(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Len(all, 1)

	mine, err := s.service.ListForActor(s.ctx, other)
	s.Require().NoError(err)
	s.Empty(mine)

	_, err = s.service.ListForActor(s.ctx, s.beneficiary)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	upcoming, err := s.service.ListUpcoming(s.ctx, s.beneficiary)
	s.Require().NoError(err)
	s.Empty(upcoming)

	_, err = s.service.Respond(s.ctx, c.ApprovalToken, "approved")
	s.Require().NoError(err)
	upcoming, err = s.service.ListUpcoming(s.ctx, s.beneficiary)
	s.Require().NoError(err)
	s.Require().Len(upcoming, 1)
	s.Equal(c.ID, upcoming[0].ID)

	got, err := s.service.Get(s.ctx, s.beneficiary, c.ID)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(got.Description, "Eye"))

	_, err = s.service.Get(s.ctx, nil, c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	hospitals, err := s.service.ListHospitals(s.ctx, s.volunteer)
	s.Require().NoError(err)
	s.Len(hospitals, 1)

	_, err = s.service.CreateHospital(s.ctx, s.volunteer, &models.HospitalRequest{Name: "x", Email: "x@example.org"})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
