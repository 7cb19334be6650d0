// Package service runs the Q&A boards. Beneficiaries ask; the domain's
// answerer role (Advocates for legal, Supporters for women support) answers
// each question exactly once.
package service

import (
	"context"
	"errors"
	"log/slog"

	"sankalp/internal/fanout"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	"sankalp/internal/platform/metrics"
	"sankalp/internal/platform/templates"
	"sankalp/internal/platform/workflow"
	"sankalp/internal/qa/models"
	"sankalp/internal/qa/store"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	audit "sankalp/pkg/platform/audit"
	"sankalp/pkg/platform/sentinel"
	"sankalp/pkg/requestcontext"
)

const auditDomain = "qa"

var ErrAlreadyAnswered = dErrors.New(dErrors.CodeInvalidState, "This question has already been answered.")

type Directory interface {
	FindByID(ctx context.Context, actorID id.ActorID) (*identity.Actor, error)
}

type Notifier interface {
	Email(ctx context.Context, recipients []fanout.EmailRecipient, notice templates.Notice)
}

type Service struct {
	questions store.Store
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

func New(questions store.Store, directory Directory, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		questions: questions,
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

func (s *Service) Ask(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain, req *models.AskRequest) (*models.Question, error) {
	if err := gate.Authorize(actor, identity.RoleBeneficiary); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	if !domain.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid domain")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	q := &models.Question{
		Domain:         domain,
		AskedBy:        actor.ID,
		Question:       req.Question,
		AllowAnonymous: req.AllowAnonymous,
		Status:         models.StatusPending,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store question")
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionQuestionAsked, auditDomain, int64(q.ID), int64(actor.ID)).
		Transition("", string(models.StatusPending)))
	return q, nil
}

// Answer records the one answer a question gets and emails the asker.
func (s *Service) Answer(ctx context.Context, actor *identity.Actor, questionID id.QuestionID, req *models.AnswerRequest) (*models.Question, error) {
	if err := gate.AuthorizeAny(actor, identity.RoleAdvocate, identity.RoleSupporter); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	q, err := s.find(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if err := gate.Authorize(actor, models.AnswererFor(q.Domain)); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.questions.Answer(ctx, questionID, req.Answer, actor.ID, requestcontext.Now(ctx)); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, s.tracker.Refused(ctx, ErrAlreadyAnswered)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "question not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store answer")
		}
	}
	q, err = s.find(ctx, questionID)
	if err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionQuestionAnswered, auditDomain, int64(q.ID), int64(actor.ID)).
		Transition(string(models.StatusPending), string(models.StatusAnswered)))

	asker, err := s.directory.FindByID(ctx, q.AskedBy)
	if err != nil {
		s.logger.WarnContext(ctx, "asker lookup failed, skipping email",
			"request_id", requestcontext.RequestID(ctx),
			"question_id", q.ID,
			"error", err,
		)
		return q, nil
	}
	s.notifier.Email(ctx, fanout.RecipientsOf(asker), templates.Notice{
		Subject:  "Your Question Has Been Answered",
		Headline: "Hello " + asker.DisplayName() + ", your question has an answer.",
		Fields: []templates.Field{
			{Label: "Question", Value: q.Question},
			{Label: "Answer", Value: q.Answer},
		},
	})
	return q, nil
}

// List returns the questions of domain that actor may see. The domain's
// answerers and Admins see every question, optionally only the unanswered
// ones. Beneficiaries see their own legal questions and every answered
// women support question. Anonymous askers are hidden from other viewers.
func (s *Service) List(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain, unansweredOnly bool) ([]*models.Question, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !domain.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid domain")
	}
	var (
		out []*models.Question
		err error
	)
	switch {
	case actor.Is(models.AnswererFor(domain)), actor.Is(identity.RoleAdmin):
		if unansweredOnly {
			out, err = s.questions.ListByDomain(ctx, domain, models.StatusPending)
		} else {
			out, err = s.questions.ListByDomain(ctx, domain)
		}
	case actor.Is(identity.RoleBeneficiary) && domain == id.DomainLegal:
		out, err = s.questions.ListByAsker(ctx, domain, actor.ID)
	case actor.Is(identity.RoleBeneficiary):
		out, err = s.questions.ListByDomain(ctx, domain, models.StatusAnswered)
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to view these questions")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list questions")
	}
	for i, q := range out {
		out[i] = q.Redacted(actor.ID)
	}
	return out, nil
}

func (s *Service) CountByStatus(ctx context.Context, domain id.AssistanceDomain) (map[models.Status]int, error) {
	counts, err := s.questions.CountByStatus(ctx, domain)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count questions")
	}
	return counts, nil
}

func (s *Service) find(ctx context.Context, questionID id.QuestionID) (*models.Question, error) {
	q, err := s.questions.FindByID(ctx, questionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "question not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load question")
	}
	return q, nil
}
