package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"sankalp/internal/legal/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	nextID id.LegalCampID
	camps  map[id.LegalCampID]*models.Camp
}

func NewInMemory() *InMemory {
	return &InMemory{camps: make(map[id.LegalCampID]*models.Camp)}
}

func clone(c *models.Camp) *models.Camp {
	cp := *c
	return &cp
}

func (s *InMemory) Create(_ context.Context, camp *models.Camp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	camp.ID = s.nextID
	s.camps[camp.ID] = clone(camp)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, campID id.LegalCampID) (*models.Camp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.camps[campID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

// transition applies mutate when the camp is in from.
func (s *InMemory) transition(campID id.LegalCampID, from models.Status, mutate func(*models.Camp)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.camps[campID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Status != from {
		return sentinel.ErrInvalidState
	}
	mutate(c)
	return nil
}

func (s *InMemory) Decide(_ context.Context, campID id.LegalCampID, to models.Status, advocate *id.ActorID, at time.Time) error {
	return s.transition(campID, models.StatusPending, func(c *models.Camp) {
		c.Status = to
		if advocate != nil {
			a := *advocate
			c.AssignedAdvocate = &a
		}
		c.UpdatedAt = at
	})
}

func (s *InMemory) Schedule(_ context.Context, campID id.LegalCampID, date time.Time, clock string, at time.Time) error {
	return s.transition(campID, models.StatusApproved, func(c *models.Camp) {
		c.Status = models.StatusScheduled
		c.ScheduledDate = &date
		c.ScheduledTime = clock
		c.UpdatedAt = at
	})
}

func (s *InMemory) Complete(_ context.Context, campID id.LegalCampID, at time.Time) error {
	return s.transition(campID, models.StatusScheduled, func(c *models.Camp) {
		c.Status = models.StatusCompleted
		c.UpdatedAt = at
	})
}

func (s *InMemory) ListByRequester(_ context.Context, volunteer id.ActorID) ([]*models.Camp, error) {
	return s.filter(func(c *models.Camp) bool { return c.RequestedBy == volunteer }), nil
}

func (s *InMemory) ListByStatus(_ context.Context, statuses ...models.Status) ([]*models.Camp, error) {
	return s.filter(func(c *models.Camp) bool {
		return len(statuses) == 0 || slices.Contains(statuses, c.Status)
	}), nil
}

func (s *InMemory) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int, 5)
	for _, c := range s.camps {
		counts[c.Status]++
	}
	return counts, nil
}

func (s *InMemory) filter(keep func(*models.Camp) bool) []*models.Camp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Camp, 0)
	for _, c := range s.camps {
		if keep(c) {
			out = append(out, clone(c))
		}
	}
	slices.SortFunc(out, func(a, b *models.Camp) int { return int(b.ID - a.ID) })
	return out
}
