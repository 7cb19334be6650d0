// Package service runs the legal awareness camp lifecycle. Volunteers
// propose camps, Advocates decide them from the dashboard or through the
// approval link in their email, and Admins schedule and close them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sankalp/internal/fanout"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	"sankalp/internal/legal/models"
	"sankalp/internal/legal/store"
	"sankalp/internal/platform/metrics"
	"sankalp/internal/platform/templates"
	"sankalp/internal/platform/workflow"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	audit "sankalp/pkg/platform/audit"
	"sankalp/pkg/platform/sentinel"
	"sankalp/pkg/requestcontext"
)

const (
	auditDomain     = "legal"
	defaultLinkBase = "http://localhost:8080"
	// linkApprover names the approver in copy when the decision came from
	// the unauthenticated link.
	linkApprover = "Email Approval"
)

type Directory interface {
	FindByID(ctx context.Context, actorID id.ActorID) (*identity.Actor, error)
	ListByRole(ctx context.Context, roles ...identity.Role) ([]*identity.Actor, error)
}

type Notifier interface {
	Email(ctx context.Context, recipients []fanout.EmailRecipient, notice templates.Notice)
}

type Service struct {
	camps     store.Store
	directory Directory
	notifier  Notifier
	tracker   workflow.Tracker
	logger    *slog.Logger
	linkBase  string
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

// WithPublicBaseURL sets the origin used in emailed approval links.
func WithPublicBaseURL(base string) Option {
	return func(s *Service) {
		if base != "" {
			s.linkBase = strings.TrimRight(base, "/")
		}
	}
}

func New(camps store.Store, directory Directory, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		camps:     camps,
		directory: directory,
		notifier:  notifier,
		tracker:   workflow.Tracker{Domain: auditDomain},
		logger:    slog.Default(),
		linkBase:  defaultLinkBase,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApprovalLink is the unauthenticated approval URL mailed to Advocates. It
// carries the plain camp id.
func (s *Service) ApprovalLink(campID id.LegalCampID) string {
	return fmt.Sprintf("%s/legal/camps/%s/approve", s.linkBase, campID)
}

// RequestCamp records a Volunteer's proposal and emails every Advocate.
func (s *Service) RequestCamp(ctx context.Context, actor *identity.Actor, req *models.CampRequest) (*models.Camp, error) {
	if err := gate.Authorize(actor, identity.RoleVolunteer); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	proposed, err := id.ParseDate(req.ProposedDate)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	camp := &models.Camp{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Location:       req.Location,
		ProposedDate:   proposed,
		ProposedTime:   req.ProposedTime,
		RequestedBy:    actor.ID,
		Status:         models.StatusPending,
		AllowAnonymous: req.AllowAnonymous,
		ContactNumber:  req.ContactNumber,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.camps.Create(ctx, camp); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create legal camp")
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionLegalCampRequested, auditDomain, int64(camp.ID), int64(actor.ID)).
		Transition("", string(models.StatusPending)))

	advocates, err := s.directory.ListByRole(ctx, identity.RoleAdvocate)
	if err != nil {
		s.logger.WarnContext(ctx, "advocate lookup failed, skipping emails",
			"request_id", requestcontext.RequestID(ctx),
			"camp_id", camp.ID,
			"error", err,
		)
		return camp, nil
	}
	s.notifier.Email(ctx, fanout.RecipientsOf(advocates...), templates.Notice{
		Subject:  "New Legal Camp Request: " + camp.Title,
		Headline: "A legal awareness camp needs an advocate.",
		Lines:    []string{fmt.Sprintf("Volunteer %s has requested the camp below.", actor.DisplayName())},
		Fields:   campFields(camp),
		Actions:  []templates.Action{{Label: "Approve camp", URL: s.ApprovalLink(camp.ID)}},
	})
	return camp, nil
}

// Decide records an Advocate's dashboard decision on a Pending camp. The
// Advocate becomes the camp's advocate of record.
func (s *Service) Decide(ctx context.Context, actor *identity.Actor, campID id.LegalCampID, req *models.DecisionRequest) (*models.Camp, error) {
	if err := gate.Authorize(actor, identity.RoleAdvocate); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	advocate := actor.ID
	if err := s.camps.Decide(ctx, campID, req.Decision, &advocate, requestcontext.Now(ctx)); err != nil {
		return nil, s.translate(ctx, err, campID)
	}
	camp, err := s.load(ctx, campID)
	if err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionLegalCampDecided, auditDomain, int64(camp.ID), int64(actor.ID)).
		Transition(string(models.StatusPending), string(req.Decision)))

	s.notifyDecision(ctx, camp, actor.DisplayName())
	return camp, nil
}

// ViewLink shows what the approval link would do without changing anything.
func (s *Service) ViewLink(ctx context.Context, campID id.LegalCampID) (*models.LinkResult, error) {
	camp, err := s.find(ctx, campID)
	if err != nil {
		return nil, err
	}
	return &models.LinkResult{Camp: camp, AlreadyApproved: camp.Status.HasBeenApproved()}, nil
}

// ApproveViaLink approves a Pending camp on behalf of whoever holds the
// link. A camp that is already approved, scheduled or completed is left
// alone and reported as such. A rejected camp cannot be approved this way.
func (s *Service) ApproveViaLink(ctx context.Context, campID id.LegalCampID) (*models.LinkResult, error) {
	camp, err := s.find(ctx, campID)
	if err != nil {
		return nil, err
	}
	if camp.Status == models.StatusPending {
		err := s.camps.Decide(ctx, campID, models.StatusApproved, nil, requestcontext.Now(ctx))
		switch {
		case err == nil:
			return s.approvedByLink(ctx, campID)
		case errors.Is(err, sentinel.ErrInvalidState):
			if camp, err = s.find(ctx, campID); err != nil {
				return nil, err
			}
		default:
			return nil, s.translate(ctx, err, campID)
		}
	}
	if camp.Status.HasBeenApproved() {
		return &models.LinkResult{Camp: camp, AlreadyApproved: true}, nil
	}
	return nil, s.tracker.Refused(ctx, dErrors.Newf(dErrors.CodeInvalidState,
		"This camp has already been %s.", strings.ToLower(string(camp.Status))))
}

func (s *Service) approvedByLink(ctx context.Context, campID id.LegalCampID) (*models.LinkResult, error) {
	camp, err := s.load(ctx, campID)
	if err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionLegalCampDecided, auditDomain, int64(camp.ID), 0).
		Transition(string(models.StatusPending), string(models.StatusApproved)).
		WithReason("approved via email link"))

	s.notifyDecision(ctx, camp, linkApprover)
	return &models.LinkResult{Camp: camp, ApprovedNow: true}, nil
}

// Schedule fixes the date and time of an Approved camp.
func (s *Service) Schedule(ctx context.Context, actor *identity.Actor, campID id.LegalCampID, req *models.ScheduleRequest) (*models.Camp, error) {
	if err := gate.Authorize(actor, identity.RoleAdmin); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	date, err := id.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	if err := s.camps.Schedule(ctx, campID, date, req.Time, requestcontext.Now(ctx)); err != nil {
		return nil, s.translate(ctx, err, campID)
	}
	camp, err := s.load(ctx, campID)
	if err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionLegalCampScheduled, auditDomain, int64(camp.ID), int64(actor.ID)).
		Transition(string(models.StatusApproved), string(models.StatusScheduled)))

	s.notifyRequester(ctx, camp, templates.Notice{
		Subject:  "Legal Camp Scheduled: " + camp.Title,
		Headline: "Your legal awareness camp has been scheduled.",
		Fields:   campFields(camp),
	})
	return camp, nil
}

// Complete closes a Scheduled camp once it has taken place.
func (s *Service) Complete(ctx context.Context, actor *identity.Actor, campID id.LegalCampID) (*models.Camp, error) {
	if err := gate.Authorize(actor, identity.RoleAdmin); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	if err := s.camps.Complete(ctx, campID, requestcontext.Now(ctx)); err != nil {
		return nil, s.translate(ctx, err, campID)
	}
	camp, err := s.load(ctx, campID)
	if err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionLegalCampCompleted, auditDomain, int64(camp.ID), int64(actor.ID)).
		Transition(string(models.StatusScheduled), string(models.StatusCompleted)))
	return camp, nil
}

// ListForRole returns the camps the caller's role may see: a Volunteer's own
// requests, approved and scheduled camps for Beneficiaries, and everything
// for Advocates and Admins.
func (s *Service) ListForRole(ctx context.Context, actor *identity.Actor) ([]*models.Camp, error) {
	if err := gate.AuthorizeAny(actor, identity.RoleVolunteer, identity.RoleBeneficiary, identity.RoleAdvocate, identity.RoleAdmin); err != nil {
		return nil, err
	}
	var (
		out []*models.Camp
		err error
	)
	switch actor.Role {
	case identity.RoleVolunteer:
		out, err = s.camps.ListByRequester(ctx, actor.ID)
	case identity.RoleBeneficiary:
		out, err = s.camps.ListByStatus(ctx, models.StatusApproved, models.StatusScheduled)
	default:
		out, err = s.camps.ListByStatus(ctx)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list legal camps")
	}
	return out, nil
}

func (s *Service) ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Camp, error) {
	out, err := s.camps.ListByStatus(ctx, statuses...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list legal camps")
	}
	return out, nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	counts, err := s.camps.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count legal camps")
	}
	return counts, nil
}

func (s *Service) notifyDecision(ctx context.Context, camp *models.Camp, decidedBy string) {
	s.notifyRequester(ctx, camp, templates.Notice{
		Subject:  fmt.Sprintf("Legal Camp %s: %s", camp.Status, camp.Title),
		Headline: fmt.Sprintf("Your legal camp request was %s.", strings.ToLower(string(camp.Status))),
		Lines:    []string{"Decision by: " + decidedBy},
		Fields:   campFields(camp),
	})
}

func (s *Service) notifyRequester(ctx context.Context, camp *models.Camp, notice templates.Notice) {
	requester, err := s.directory.FindByID(ctx, camp.RequestedBy)
	if err != nil {
		s.logger.WarnContext(ctx, "requester lookup failed, skipping email",
			"request_id", requestcontext.RequestID(ctx),
			"camp_id", camp.ID,
			"error", err,
		)
		return
	}
	s.notifier.Email(ctx, fanout.RecipientsOf(requester), notice)
}

func campFields(c *models.Camp) []templates.Field {
	fields := []templates.Field{
		{Label: "Title", Value: c.Title},
		{Label: "Category", Value: c.Category.Label()},
		{Label: "Location", Value: c.Location},
		{Label: "Proposed date", Value: id.FormatDate(&c.ProposedDate)},
	}
	if c.ProposedTime != "" {
		fields = append(fields, templates.Field{Label: "Proposed time", Value: c.ProposedTime})
	}
	if c.ScheduledDate != nil {
		fields = append(fields,
			templates.Field{Label: "Scheduled date", Value: id.FormatDate(c.ScheduledDate)},
			templates.Field{Label: "Scheduled time", Value: c.ScheduledTime},
		)
	}
	return append(fields, templates.Field{Label: "Description", Value: c.Description})
}

func (s *Service) find(ctx context.Context, campID id.LegalCampID) (*models.Camp, error) {
	camp, err := s.camps.FindByID(ctx, campID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "legal camp not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load legal camp")
	}
	return camp, nil
}

func (s *Service) load(ctx context.Context, campID id.LegalCampID) (*models.Camp, error) {
	camp, err := s.camps.FindByID(ctx, campID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload legal camp")
	}
	return camp, nil
}

// translate maps a store miss to a domain error. An invalid-state miss
// names the status the camp is actually in.
func (s *Service) translate(ctx context.Context, err error, campID id.LegalCampID) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "legal camp not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		msg := "This camp can no longer be changed."
		if camp, findErr := s.camps.FindByID(ctx, campID); findErr == nil {
			msg = fmt.Sprintf("This camp has already been %s.", strings.ToLower(string(camp.Status)))
		}
		return s.tracker.Refused(ctx, dErrors.New(dErrors.CodeInvalidState, msg))
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update legal camp")
	}
}
