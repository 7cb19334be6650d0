package store

import (
	"context"
	"slices"
	"sync"

	"sankalp/internal/notification/models"
	id "sankalp/pkg/domain"
)

type InMemory struct {
	mu     sync.RWMutex
	nextID id.NotificationID
	rows   []*models.Notification
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	n.ID = s.nextID
	cp := *n
	s.rows = append(s.rows, &cp)
	return nil
}

// ListForRecipient returns newest first.
func (s *InMemory) ListForRecipient(_ context.Context, recipient id.ActorID, limit int) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Notification
	for _, n := range slices.Backward(s.rows) {
		if n.Recipient != recipient {
			continue
		}
		cp := *n
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) CountUnread(_ context.Context, recipient id.ActorID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.rows {
		if n.Recipient == recipient && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) MarkRead(_ context.Context, recipient id.ActorID, ids []id.NotificationID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	marked := 0
	for _, n := range s.rows {
		if n.Recipient == recipient && !n.IsRead && slices.Contains(ids, n.ID) {
			n.IsRead = true
			marked++
		}
	}
	return marked, nil
}
