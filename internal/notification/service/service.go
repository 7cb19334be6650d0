// Package service owns the in-app inbox. Rows are written by the fan-out
// dispatcher and read by their recipient only.
package service

import (
	"context"
	"log/slog"

	identity "sankalp/internal/identity/models"
	"sankalp/internal/notification/models"
	"sankalp/internal/notification/store"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/requestcontext"
)

const defaultInboxLimit = 50

type Service struct {
	store  store.Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver writes one unread row for recipient.
func (s *Service) Deliver(ctx context.Context, recipient id.ActorID, message string) error {
	n := &models.Notification{
		Recipient: recipient,
		Message:   message,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store notification")
	}
	return nil
}

// Inbox lists the caller's most recent notifications with the unread count.
func (s *Service) Inbox(ctx context.Context, actor *identity.Actor) (*models.Inbox, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	rows, err := s.store.ListForRecipient(ctx, actor.ID, defaultInboxLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	unread, err := s.UnreadCount(ctx, actor)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*models.Notification{}
	}
	return &models.Inbox{Notifications: rows, Unread: unread}, nil
}

func (s *Service) UnreadCount(ctx context.Context, actor *identity.Actor) (int, error) {
	if actor == nil {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	n, err := s.store.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count notifications")
	}
	return n, nil
}

// MarkRead flips the caller's notifications with the given ids, the ones a
// view actually displayed. Ids of other recipients are ignored.
func (s *Service) MarkRead(ctx context.Context, actor *identity.Actor, ids []id.NotificationID) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if len(ids) == 0 {
		return nil
	}
	marked, err := s.store.MarkRead(ctx, actor.ID, ids)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notifications read")
	}
	s.logger.DebugContext(ctx, "notifications marked read",
		"actor_id", actor.ID,
		"count", marked,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
