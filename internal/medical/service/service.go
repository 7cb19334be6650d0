// Package service runs medical camp requests. A Volunteer asks a hospital to
// run a camp; the hospital answers once through a tokenised email link.
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
	"sankalp/internal/medical/models"
	"sankalp/internal/medical/store"
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
	auditDomain     = "medical"
	defaultLinkBase = "http://localhost:8080"
	// tokenAttempts bounds regeneration when a fresh token collides.
	tokenAttempts = 3
)

// AlreadyResponded is shown to a hospital following a link for a camp that
// has already been answered.
const AlreadyResponded = "This request has already been responded to."

var ErrAlreadyResponded = dErrors.New(dErrors.CodeInvalidState, AlreadyResponded)

type Directory interface {
	FindByID(ctx context.Context, actorID id.ActorID) (*identity.Actor, error)
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
	newToken  func() id.ApprovalToken
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

func WithPublicBaseURL(base string) Option {
	return func(s *Service) {
		if base != "" {
			s.linkBase = strings.TrimRight(base, "/")
		}
	}
}

// WithTokenSource replaces the approval token generator. Tests use it to
// force collisions.
func WithTokenSource(fn func() id.ApprovalToken) Option {
	return func(s *Service) {
		s.newToken = fn
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
		newToken:  id.NewApprovalToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResponseLink is the link mailed to the hospital for one outcome
// ("approved" or "rejected").
func (s *Service) ResponseLink(token id.ApprovalToken, outcome string) string {
	return fmt.Sprintf("%s/medical/respond/%s?status=%s", s.linkBase, token, outcome)
}

func (s *Service) CreateHospital(ctx context.Context, actor *identity.Actor, req *models.HospitalRequest) (*models.Hospital, error) {
	if err := gate.Authorize(actor, identity.RoleAdmin); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	h := &models.Hospital{Name: req.Name, Email: req.Email, Address: req.Address}
	if err := s.camps.CreateHospital(ctx, h); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create hospital")
	}
	return h, nil
}

func (s *Service) ListHospitals(ctx context.Context, actor *identity.Actor) ([]*models.Hospital, error) {
	if err := gate.AuthorizeAny(actor, identity.AllRoles...); err != nil {
		return nil, err
	}
	out, err := s.camps.ListHospitals(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list hospitals")
	}
	return out, nil
}

// RequestCamp records a Volunteer's request and emails the hospital its
// approve and reject links.
func (s *Service) RequestCamp(ctx context.Context, actor *identity.Actor, req *models.CampRequest) (*models.Camp, error) {
	if err := gate.Authorize(actor, identity.RoleVolunteer); err != nil {
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
	hospital, err := s.hospital(ctx, req.HospitalID)
	if err != nil {
		return nil, err
	}

	camp := &models.Camp{
		VolunteerID:   actor.ID,
		HospitalID:    hospital.ID,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Location:      req.Location,
		Date:          date,
		Time:          req.Time,
		Description:   req.Description,
		Status:        models.StatusPending,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.create(ctx, camp); err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionMedicalCampRequested, auditDomain, int64(camp.ID), int64(actor.ID)).
		Transition("", string(models.StatusPending)))

	s.notifier.Email(ctx, []fanout.EmailRecipient{{Address: hospital.Email, Name: hospital.Name}}, templates.Notice{
		Subject:  "Medical Camp Request from " + actor.DisplayName(),
		Headline: "A volunteer would like your hospital to run a medical camp.",
		Fields:   campFields(camp, hospital),
		Actions: []templates.Action{
			{Label: "Approve and schedule", URL: s.ResponseLink(camp.ApprovalToken, "approved")},
			{Label: "Reject", URL: s.ResponseLink(camp.ApprovalToken, "rejected")},
		},
	})
	return camp, nil
}

func (s *Service) create(ctx context.Context, camp *models.Camp) error {
	for range tokenAttempts {
		camp.ApprovalToken = s.newToken()
		err := s.camps.Create(ctx, camp)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create medical camp")
		}
		s.logger.WarnContext(ctx, "approval token collision, regenerating",
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return dErrors.New(dErrors.CodeInternal, "failed to issue a unique approval token")
}

// Preview loads the camp behind a hospital link without changing it.
func (s *Service) Preview(ctx context.Context, token id.ApprovalToken) (*models.Response, error) {
	camp, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	hospital, err := s.hospital(ctx, camp.HospitalID)
	if err != nil {
		return nil, err
	}
	return &models.Response{Camp: camp, Hospital: hospital}, nil
}

// Respond applies the hospital's answer. It succeeds at most once per camp:
// approval schedules the camp for the requested slot, rejection closes it.
func (s *Service) Respond(ctx context.Context, token id.ApprovalToken, outcome string) (*models.Response, error) {
	camp, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if camp.Status != models.StatusPending {
		return nil, s.tracker.Refused(ctx, ErrAlreadyResponded)
	}
	to, err := models.ParseResponse(outcome)
	if err != nil {
		return nil, err
	}

	if err := s.camps.Respond(ctx, token, to); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, s.tracker.Refused(ctx, ErrAlreadyResponded)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "medical camp not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record hospital response")
		}
	}
	resp, err := s.Preview(ctx, token)
	if err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionMedicalCampResponded, auditDomain, int64(resp.Camp.ID), 0).
		Transition(string(models.StatusPending), string(to)))

	s.notifyVolunteer(ctx, resp)
	return resp, nil
}

// Outcome is the sentence shown to the hospital and mailed to the Volunteer.
func Outcome(status models.Status) string {
	if status == models.StatusScheduled {
		return "The medical camp has been approved and scheduled."
	}
	return "The medical camp request has been rejected."
}

func (s *Service) notifyVolunteer(ctx context.Context, resp *models.Response) {
	volunteer, err := s.directory.FindByID(ctx, resp.Camp.VolunteerID)
	if err != nil {
		s.logger.WarnContext(ctx, "volunteer lookup failed, skipping email",
			"request_id", requestcontext.RequestID(ctx),
			"camp_id", resp.Camp.ID,
			"error", err,
		)
		return
	}
	s.notifier.Email(ctx, fanout.RecipientsOf(volunteer), templates.Notice{
		Subject:  fmt.Sprintf("Update from %s - Medical Camp Request", resp.Hospital.Name),
		Headline: Outcome(resp.Camp.Status),
		Fields:   campFields(resp.Camp, resp.Hospital),
	})
}

// ListForActor returns every camp to Admins and their own camps to
// Volunteers.
func (s *Service) ListForActor(ctx context.Context, actor *identity.Actor) ([]*models.Camp, error) {
	if err := gate.AuthorizeAny(actor, identity.RoleAdmin, identity.RoleVolunteer); err != nil {
		return nil, err
	}
	var (
		out []*models.Camp
		err error
	)
	if actor.Is(identity.RoleAdmin) {
		out, err = s.camps.ListByStatus(ctx)
	} else {
		out, err = s.camps.ListByVolunteer(ctx, actor.ID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list medical camps")
	}
	return out, nil
}

// ListUpcoming lists scheduled camps for Beneficiaries.
func (s *Service) ListUpcoming(ctx context.Context, actor *identity.Actor) ([]*models.Camp, error) {
	if err := gate.Authorize(actor, identity.RoleBeneficiary); err != nil {
		return nil, err
	}
	return s.ListByStatus(ctx, models.StatusScheduled)
}

func (s *Service) Get(ctx context.Context, actor *identity.Actor, campID id.MedicalCampID) (*models.Camp, error) {
	if err := gate.AuthorizeAny(actor, identity.AllRoles...); err != nil {
		return nil, err
	}
	camp, err := s.camps.FindByID(ctx, campID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "medical camp not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load medical camp")
	}
	return camp, nil
}

func (s *Service) ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Camp, error) {
	out, err := s.camps.ListByStatus(ctx, statuses...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list medical camps")
	}
	return out, nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	counts, err := s.camps.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count medical camps")
	}
	return counts, nil
}

func (s *Service) byToken(ctx context.Context, token id.ApprovalToken) (*models.Camp, error) {
	camp, err := s.camps.FindByToken(ctx, token)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "medical camp not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load medical camp")
	}
	return camp, nil
}

func (s *Service) hospital(ctx context.Context, hospitalID id.HospitalID) (*models.Hospital, error) {
	h, err := s.camps.FindHospital(ctx, hospitalID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "hospital not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load hospital")
	}
	return h, nil
}

func campFields(c *models.Camp, h *models.Hospital) []templates.Field {
	fields := []templates.Field{
		{Label: "Hospital", Value: h.Name},
		{Label: "Contact person", Value: c.ContactPerson},
		{Label: "Phone", Value: c.Phone},
		{Label: "Location", Value: c.Location},
		{Label: "Date", Value: id.FormatDate(&c.Date)},
	}
	if c.Time != "" {
		fields = append(fields, templates.Field{Label: "Time", Value: c.Time})
	}
	return append(fields, templates.Field{Label: "Description", Value: c.Description})
}
