// Package service runs the education request lifecycle:
// a Beneficiary submits, a Volunteer forwards to one Donor, and that Donor
// approves or rejects.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sankalp/internal/education/models"
	"sankalp/internal/education/store"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	"sankalp/internal/platform/metrics"
	"sankalp/internal/platform/workflow"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	audit "sankalp/pkg/platform/audit"
	"sankalp/pkg/platform/sentinel"
	"sankalp/pkg/requestcontext"
)

const auditDomain = "education"

// Directory looks up actors to notify or assign.
type Directory interface {
	FindByID(ctx context.Context, actorID id.ActorID) (*identity.Actor, error)
	ListByRole(ctx context.Context, roles ...identity.Role) ([]*identity.Actor, error)
}

type Notifier interface {
	InApp(ctx context.Context, recipients []id.ActorID, message string)
	SMS(ctx context.Context, logicalRecipient, body string)
}

type Service struct {
	requests  store.Store
	directory Directory
	notifier  Notifier
	tracker   workflow.Tracker
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
		s.tracker.Logger = logger
	}
}

func WithAuditPublisher(publisher workflow.AuditPublisher) Option {
	return func(s *Service) {
		s.tracker.Audit = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.tracker.Metrics = m
	}
}

func New(requests store.Store, directory Directory, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		requests:  requests,
		directory: directory,
		notifier:  notifier,
		tracker:   workflow.Tracker{Domain: auditDomain},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates a Pending request owned by the calling Beneficiary and tells
// every Volunteer about it.
func (s *Service) Submit(ctx context.Context, actor *identity.Actor, req *models.SubmitRequest) (*models.Request, error) {
	if err := gate.Authorize(actor, identity.RoleBeneficiary); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r := &models.Request{
		BeneficiaryID:  actor.ID,
		FullName:       req.FullName,
		Age:            req.Age,
		EducationLevel: req.EducationLevel,
		Reason:         req.Reason,
		Status:         models.StatusPending,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := s.requests.Create(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create education request")
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionEducationSubmitted, auditDomain, int64(r.ID), int64(actor.ID)).
		Transition("", string(models.StatusPending)))

	s.notifier.InApp(ctx, s.idsOf(ctx, identity.RoleVolunteer),
		fmt.Sprintf("New education support request submitted by %s.", actor.DisplayName()))
	return r, nil
}

// Forward assigns a Pending request to a Donor. Only one Volunteer can win a
// given request.
func (s *Service) Forward(ctx context.Context, actor *identity.Actor, requestID id.EducationRequestID, req *models.ForwardRequest) (*models.Request, error) {
	if err := gate.Authorize(actor, identity.RoleVolunteer); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	donor, err := s.directory.FindByID(ctx, req.DonorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	if !donor.Is(identity.RoleDonor) {
		return nil, dErrors.NewValidation("invalid request", map[string]string{"donor_id": "must reference a donor"})
	}

	now := requestcontext.Now(ctx)
	if err := s.requests.Forward(ctx, requestID, actor.ID, donor.ID, req.Notes, now); err != nil {
		return nil, s.translate(ctx, err, "This request has already been processed.")
	}
	r, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionEducationForwarded, auditDomain, int64(r.ID), int64(actor.ID)).
		Transition(string(models.StatusPending), string(models.StatusForwarded)))

	s.notifier.InApp(ctx, s.idsOf(ctx, identity.RoleAdmin),
		fmt.Sprintf("Volunteer %s forwarded an education request to donor %s.", actor.DisplayName(), donor.DisplayName()))
	s.notifier.SMS(ctx, donor.Contact,
		fmt.Sprintf("A new education support request has been forwarded to you by Volunteer %s. "+
			"Please check your Sankalp dashboard to view details.", actor.DisplayName()))
	return r, nil
}

// Approve records the assigned Donor's approval.
func (s *Service) Approve(ctx context.Context, actor *identity.Actor, requestID id.EducationRequestID) (*models.Request, error) {
	return s.decide(ctx, actor, requestID, models.StatusApproved)
}

// Reject records the assigned Donor's rejection. Rejected is terminal.
func (s *Service) Reject(ctx context.Context, actor *identity.Actor, requestID id.EducationRequestID) (*models.Request, error) {
	return s.decide(ctx, actor, requestID, models.StatusRejected)
}

func (s *Service) decide(ctx context.Context, actor *identity.Actor, requestID id.EducationRequestID, to models.Status) (*models.Request, error) {
	if err := gate.Authorize(actor, identity.RoleDonor); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	if !models.Lifecycle.CanTransition(models.StatusForwarded, to) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unsupported education decision")
	}

	if err := s.requests.Decide(ctx, requestID, actor.ID, to, requestcontext.Now(ctx)); err != nil {
		return nil, s.translate(ctx, err, "This request has already been decided.")
	}
	r, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	action := audit.ActionEducationApproved
	verb := "approved"
	if to == models.StatusRejected {
		action = audit.ActionEducationRejected
		verb = "rejected"
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, action, auditDomain, int64(r.ID), int64(actor.ID)).
		Transition(string(models.StatusForwarded), string(to)))

	s.notifier.InApp(ctx, s.idsOf(ctx, identity.RoleAdmin),
		fmt.Sprintf("Donor %s %s a student request.", actor.DisplayName(), verb))
	if r.VolunteerID != nil {
		s.notifier.InApp(ctx, []id.ActorID{*r.VolunteerID},
			fmt.Sprintf("Donor %s %s the request you forwarded.", actor.DisplayName(), verb))
	}

	beneficiary, err := s.directory.FindByID(ctx, r.BeneficiaryID)
	if err != nil {
		s.logger.WarnContext(ctx, "beneficiary lookup failed, skipping sms",
			"request_id", requestcontext.RequestID(ctx),
			"education_request_id", r.ID,
			"error", err,
		)
		return r, nil
	}
	if to == models.StatusApproved {
		s.notifier.SMS(ctx, beneficiary.Contact,
			fmt.Sprintf("Congratulations %s! Your education support request has been approved by Donor %s.",
				beneficiary.DisplayName(), actor.DisplayName()))
	} else {
		s.notifier.SMS(ctx, beneficiary.Contact,
			fmt.Sprintf("Dear %s, your education support request was not approved by Donor %s.",
				beneficiary.DisplayName(), actor.DisplayName()))
	}
	return r, nil
}

// Latest returns the calling Beneficiary's most recent request.
func (s *Service) Latest(ctx context.Context, actor *identity.Actor) (*models.Request, error) {
	mine, err := s.ListMine(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(mine) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no education requests found")
	}
	return mine[0], nil
}

// ListMine returns the calling Beneficiary's requests, newest first.
func (s *Service) ListMine(ctx context.Context, actor *identity.Actor) ([]*models.Request, error) {
	if err := gate.Authorize(actor, identity.RoleBeneficiary); err != nil {
		return nil, err
	}
	out, err := s.requests.ListByBeneficiary(ctx, actor.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list education requests")
	}
	return out, nil
}

// VolunteerQueue is what a Volunteer works from.
type VolunteerQueue struct {
	Open      []*models.Request    `json:"open"`
	Forwarded []*models.Request    `json:"forwarded"`
	Donors    []identity.ActorView `json:"donors"`
}

func (s *Service) Queue(ctx context.Context, actor *identity.Actor) (*VolunteerQueue, error) {
	if err := gate.Authorize(actor, identity.RoleVolunteer); err != nil {
		return nil, err
	}
	open, err := s.requests.ListByStatus(ctx, models.StatusPending, models.StatusForwarded)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list open requests")
	}
	q := &VolunteerQueue{Open: open, Forwarded: make([]*models.Request, 0), Donors: make([]identity.ActorView, 0)}
	for _, r := range open {
		if r.Status == models.StatusForwarded {
			q.Forwarded = append(q.Forwarded, r)
		}
	}
	donors, err := s.directory.ListByRole(ctx, identity.RoleDonor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donors")
	}
	for _, d := range donors {
		q.Donors = append(q.Donors, d.View())
	}
	return q, nil
}

// ListForDonor returns requests forwarded to the calling Donor, optionally
// filtered by status.
func (s *Service) ListForDonor(ctx context.Context, actor *identity.Actor, statuses ...models.Status) ([]*models.Request, error) {
	if err := gate.Authorize(actor, identity.RoleDonor); err != nil {
		return nil, err
	}
	out, err := s.requests.ListForDonor(ctx, actor.ID, statuses...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donor requests")
	}
	return out, nil
}

// ListAll is the admin overview.
func (s *Service) ListAll(ctx context.Context, actor *identity.Actor) ([]*models.Request, error) {
	if err := gate.Authorize(actor, identity.RoleAdmin); err != nil {
		return nil, err
	}
	out, err := s.requests.ListByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list education requests")
	}
	return out, nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	counts, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count education requests")
	}
	return counts, nil
}

func (s *Service) load(ctx context.Context, requestID id.EducationRequestID) (*models.Request, error) {
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload education request")
	}
	return r, nil
}

func (s *Service) translate(ctx context.Context, err error, invalidState string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "education request not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return s.tracker.Refused(ctx, dErrors.New(dErrors.CodeInvalidState, invalidState))
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update education request")
	}
}

// idsOf lists the actors holding role. A lookup failure only costs the
// notifications, so it is logged rather than returned.
func (s *Service) idsOf(ctx context.Context, role identity.Role) []id.ActorID {
	actors, err := s.directory.ListByRole(ctx, role)
	if err != nil {
		s.logger.WarnContext(ctx, "recipient lookup failed, skipping notifications",
			"role", role,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	}
	ids := make([]id.ActorID, len(actors))
	for i, a := range actors {
		ids[i] = a.ID
	}
	return ids
}
