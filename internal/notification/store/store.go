// Package store persists in-app notifications.
package store

import (
	"context"

	"sankalp/internal/notification/models"
	id "sankalp/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, recipient id.ActorID, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, recipient id.ActorID) (int, error)
	// MarkRead flips only the listed rows of recipient. Rows that were not
	// displayed stay unread.
	MarkRead(ctx context.Context, recipient id.ActorID, ids []id.NotificationID) (int, error)
}
