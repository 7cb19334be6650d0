// Package service assembles the role-specific dashboard. Each role gets a set
// of panels loaded concurrently; viewing the dashboard reports the unread
// in-app count and then marks the viewer's notifications read.
package service

import (
	"context"
	"log/slog"
	"time"

	educationmodels "sankalp/internal/education/models"
	educationservice "sankalp/internal/education/service"
	identity "sankalp/internal/identity/models"
	legalmodels "sankalp/internal/legal/models"
	medicalmodels "sankalp/internal/medical/models"
	notificationmodels "sankalp/internal/notification/models"
	"sankalp/internal/platform/metrics"
	qamodels "sankalp/internal/qa/models"
	womenmodels "sankalp/internal/womensupport/models"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/requestcontext"
)

const panelTimeout = 5 * time.Second

type Education interface {
	Queue(ctx context.Context, actor *identity.Actor) (*educationservice.VolunteerQueue, error)
	ListForDonor(ctx context.Context, actor *identity.Actor, statuses ...educationmodels.Status) ([]*educationmodels.Request, error)
	ListMine(ctx context.Context, actor *identity.Actor) ([]*educationmodels.Request, error)
	CountByStatus(ctx context.Context) (map[educationmodels.Status]int, error)
}

type Legal interface {
	ListForRole(ctx context.Context, actor *identity.Actor) ([]*legalmodels.Camp, error)
	ListByStatus(ctx context.Context, statuses ...legalmodels.Status) ([]*legalmodels.Camp, error)
	CountByStatus(ctx context.Context) (map[legalmodels.Status]int, error)
}

type Medical interface {
	ListForActor(ctx context.Context, actor *identity.Actor) ([]*medicalmodels.Camp, error)
	ListUpcoming(ctx context.Context, actor *identity.Actor) ([]*medicalmodels.Camp, error)
	CountByStatus(ctx context.Context) (map[medicalmodels.Status]int, error)
}

type WomenSupport interface {
	ListForRole(ctx context.Context, actor *identity.Actor) ([]*womenmodels.Campaign, error)
	ListByStatus(ctx context.Context, statuses ...womenmodels.Status) ([]*womenmodels.Campaign, error)
	CountByStatus(ctx context.Context) (map[womenmodels.Status]int, error)
}

type Questions interface {
	List(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain, unansweredOnly bool) ([]*qamodels.Question, error)
	CountByStatus(ctx context.Context, domain id.AssistanceDomain) (map[qamodels.Status]int, error)
}

type Inbox interface {
	Inbox(ctx context.Context, actor *identity.Actor) (*notificationmodels.Inbox, error)
	MarkRead(ctx context.Context, actor *identity.Actor, ids []id.NotificationID) error
}

// Sources bundles the workflow services the panels read from.
type Sources struct {
	Education    Education
	Legal        Legal
	Medical      Medical
	WomenSupport WomenSupport
	Questions    Questions
	Inbox        Inbox
}

// Dashboard is the response for one viewer. Unread is the count before this
// view marked everything read.
type Dashboard struct {
	Role          identity.Role                      `json:"role"`
	Unread        int                                `json:"unread"`
	Notifications []*notificationmodels.Notification `json:"notifications"`
	Panels        map[string]any                     `json:"panels"`
}

type Service struct {
	src     Sources
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(src Sources, opts ...Option) *Service {
	s := &Service{src: src, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// For builds the dashboard of actor's role. Only the notifications it
// displays are marked read, and only once every panel loaded.
func (s *Service) For(ctx context.Context, actor *identity.Actor) (*Dashboard, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	inbox, err := s.src.Inbox.Inbox(ctx, actor)
	if err != nil {
		return nil, err
	}
	plan, err := identity.Visit[[]panel](actor.Role, &planner{src: s.src, actor: actor})
	if err != nil {
		return nil, err
	}
	panels, err := s.gather(ctx, plan)
	if err != nil {
		s.logger.ErrorContext(ctx, "dashboard panels failed",
			"request_id", requestcontext.RequestID(ctx),
			"role", actor.Role,
			"error", err,
		)
		return nil, err
	}
	if err := s.src.Inbox.MarkRead(ctx, actor, inbox.IDs()); err != nil {
		return nil, err
	}
	return &Dashboard{
		Role:          actor.Role,
		Unread:        inbox.Unread,
		Notifications: inbox.Notifications,
		Panels:        panels,
	}, nil
}
