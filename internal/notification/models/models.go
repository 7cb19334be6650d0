package models

import (
	"time"

	id "sankalp/pkg/domain"
)

// Notification is an in-app inbox row. Only IsRead ever changes after
// creation.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	Recipient id.ActorID        `json:"recipient_id"`
	Message   string            `json:"message"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}

// Inbox is what the dashboard and the inbox endpoint return.
type Inbox struct {
	Notifications []*Notification `json:"notifications"`
	Unread        int             `json:"unread"`
}

// IDs lists the notifications this inbox page displays.
func (i *Inbox) IDs() []id.NotificationID {
	ids := make([]id.NotificationID, 0, len(i.Notifications))
	for _, n := range i.Notifications {
		ids = append(ids, n.ID)
	}
	return ids
}
