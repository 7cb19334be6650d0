package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	educationmodels "sankalp/internal/education/models"
	educationservice "sankalp/internal/education/service"
	educationstore "sankalp/internal/education/store"
	"sankalp/internal/fanout/fanouttest"
	identity "sankalp/internal/identity/models"
	identitystore "sankalp/internal/identity/store"
	legalmodels "sankalp/internal/legal/models"
	legalservice "sankalp/internal/legal/service"
	legalstore "sankalp/internal/legal/store"
	medicalservice "sankalp/internal/medical/service"
	medicalstore "sankalp/internal/medical/store"
	notificationservice "sankalp/internal/notification/service"
	notificationstore "sankalp/internal/notification/store"
	qaservice "sankalp/internal/qa/service"
	qastore "sankalp/internal/qa/store"
	womenservice "sankalp/internal/womensupport/service"
	womenstore "sankalp/internal/womensupport/store"
	dErrors "sankalp/pkg/domain-errors"
)

type DashboardSuite struct {
	suite.Suite
	ctx     context.Context
	actors  *identitystore.InMemory
	inbox   *notificationservice.Service
	sources Sources
}

func TestDashboardSuite(t *testing.T) {
	suite.Run(t, new(DashboardSuite))
}

func (s *DashboardSuite) SetupTest() {
	s.ctx = context.Background()
	s.actors = identitystore.NewInMemory()
	notified := &fanouttest.Recorder{}
	s.inbox = notificationservice.New(notificationstore.NewInMemory())
	s.sources = Sources{
		Education:    educationservice.New(educationstore.NewInMemory(), s.actors, notified),
		Legal:        legalservice.New(legalstore.NewInMemory(), s.actors, notified),
		Medical:      medicalservice.New(medicalstore.NewInMemory(), s.actors, notified),
		WomenSupport: womenservice.New(womenstore.NewInMemory(), s.actors, notified),
		Questions:    qaservice.New(qastore.NewInMemory(), s.actors, notified),
		Inbox:        s.inbox,
	}
}

func (s *DashboardSuite) actor(name string, role identity.Role) *identity.Actor {
	a := &identity.Actor{Username: name, Email: name + "@example.org", Role: role}
	s.Require().NoError(s.actors.Create(s.ctx, a))
	return a
}

func (s *DashboardSuite) TestPanelsPerRole() {
	svc := New(s.sources)
	cases := []struct {
		role   identity.Role
		panels []string
	}{
		{identity.RoleAdmin, []string{"education_counts", "legal_counts", "medical_counts", "women_support_counts",
			"legal_question_counts", "women_support_question_counts"}},
		{identity.RoleVolunteer, []string{"education_queue", "legal_camps", "medical_camps", "campaigns"}},
		{identity.RoleDonor, []string{"forwarded", "approved", "rejected"}},
		{identity.RoleBeneficiary, []string{"education_requests", "upcoming_medical_camps", "upcoming_legal_camps", "campaigns"}},
		{identity.RoleAdvocate, []string{"pending_camps", "approved_camps", "scheduled_camps", "unanswered_questions"}},
		{identity.RoleSupporter, []string{"pending_campaigns", "my_campaigns", "unanswered_questions"}},
	}
	for _, tc := range cases {
		s.Run(string(tc.role), func() {
			d, err := svc.For(s.ctx, s.actor("user-"+string(tc.role), tc.role))
			s.Require().NoError(err)
			s.Equal(tc.role, d.Role)
			s.Len(d.Panels, len(tc.panels))
			for _, name := range tc.panels {
				s.Contains(d.Panels, name)
			}
		})
	}
}

func (s *DashboardSuite) TestViewingMarksInboxRead() {
	svc := New(s.sources)
	donor := s.actor("ravi", identity.RoleDonor)
	s.Require().NoError(s.inbox.Deliver(s.ctx, donor.ID, "A request was forwarded to you."))
	s.Require().NoError(s.inbox.Deliver(s.ctx, donor.ID, "Another one."))

	first, err := svc.For(s.ctx, donor)
	s.Require().NoError(err)
	s.Equal(2, first.Unread)
	s.Len(first.Notifications, 2)

	second, err := svc.For(s.ctx, donor)
	s.Require().NoError(err)
	s.Equal(0, second.Unread)
}

func (s *DashboardSuite) TestRowsBeyondTheInboxPageStayUnread() {
	svc := New(s.sources)
	donor := s.actor("ravi", identity.RoleDonor)
	for range 60 {
		s.Require().NoError(s.inbox.Deliver(s.ctx, donor.ID, "A request was forwarded to you."))
	}

	d, err := svc.For(s.ctx, donor)
	s.Require().NoError(err)
	s.Equal(60, d.Unread)
	s.Len(d.Notifications, 50)

	unread, err := s.inbox.UnreadCount(s.ctx, donor)
	s.Require().NoError(err)
	s.Equal(10, unread, "only displayed rows are marked read")
}

// deliveringEducation drops a notification into the inbox while the donor
// panels load, as a fan-out worker would.
type deliveringEducation struct {
	Education
	inbox *notificationservice.Service
}

func (e deliveringEducation) ListForDonor(ctx context.Context, actor *identity.Actor, statuses ...educationmodels.Status) ([]*educationmodels.Request, error) {
	if err := e.inbox.Deliver(ctx, actor.ID, "Decision recorded."); err != nil {
		return nil, err
	}
	return e.Education.ListForDonor(ctx, actor, statuses...)
}

func (s *DashboardSuite) TestNotificationsDeliveredWhileLoadingStayUnread() {
	s.sources.Education = deliveringEducation{Education: s.sources.Education, inbox: s.inbox}
	svc := New(s.sources)
	donor := s.actor("ravi", identity.RoleDonor)

	d, err := svc.For(s.ctx, donor)
	s.Require().NoError(err)
	s.Zero(d.Unread)
	s.Empty(d.Notifications)

	unread, err := s.inbox.UnreadCount(s.ctx, donor)
	s.Require().NoError(err)
	s.Equal(3, unread, "one row per donor panel arrived after the snapshot")
}

func (s *DashboardSuite) TestRequiresActor() {
	_, err := New(s.sources).For(s.ctx, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

type failingLegal struct{ Legal }

func (failingLegal) ListByStatus(context.Context, ...legalmodels.Status) ([]*legalmodels.Camp, error) {
	return nil, errors.New("database unavailable")
}

func TestPanelFailureLeavesInboxUnread(t *testing.T) {
	ctx := context.Background()
	inbox := notificationservice.New(notificationstore.NewInMemory())
	advocate := &identity.Actor{ID: 7, Username: "meera", Role: identity.RoleAdvocate}
	require.NoError(t, inbox.Deliver(ctx, advocate.ID, "New legal camp request."))

	actors := identitystore.NewInMemory()
	svc := New(Sources{
		Legal:     failingLegal{},
		Questions: qaservice.New(qastore.NewInMemory(), actors, &fanouttest.Recorder{}),
		Inbox:     inbox,
	})
	_, err := svc.For(ctx, advocate)
	require.Error(t, err)

	unread, err := inbox.UnreadCount(ctx, advocate)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}
