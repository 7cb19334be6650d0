package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"sankalp/internal/education/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	nextID   id.EducationRequestID
	requests map[id.EducationRequestID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.EducationRequestID]*models.Request)}
}

func clone(r *models.Request) *models.Request {
	cp := *r
	return &cp
}

func (s *InMemory) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	req.ID = s.nextID
	s.requests[req.ID] = clone(req)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.EducationRequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemory) Forward(_ context.Context, requestID id.EducationRequestID, volunteer, donor id.ActorID, notes string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	r.VolunteerID = &volunteer
	r.ForwardedTo = &donor
	r.ForwardedAt = &at
	r.VolunteerNotes = notes
	r.Status = models.StatusForwarded
	return nil
}

func (s *InMemory) Decide(_ context.Context, requestID id.EducationRequestID, donor id.ActorID, to models.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok || r.ForwardedTo == nil || *r.ForwardedTo != donor {
		return sentinel.ErrNotFound
	}
	if r.Status != models.StatusForwarded {
		return sentinel.ErrInvalidState
	}
	r.Status = to
	r.DecisionAt = &at
	return nil
}

func (s *InMemory) ListByBeneficiary(_ context.Context, beneficiary id.ActorID) ([]*models.Request, error) {
	return s.filter(func(r *models.Request) bool { return r.BeneficiaryID == beneficiary }), nil
}

func (s *InMemory) ListByStatus(_ context.Context, statuses ...models.Status) ([]*models.Request, error) {
	return s.filter(func(r *models.Request) bool {
		return len(statuses) == 0 || slices.Contains(statuses, r.Status)
	}), nil
}

func (s *InMemory) ListForDonor(_ context.Context, donor id.ActorID, statuses ...models.Status) ([]*models.Request, error) {
	return s.filter(func(r *models.Request) bool {
		if r.ForwardedTo == nil || *r.ForwardedTo != donor {
			return false
		}
		return len(statuses) == 0 || slices.Contains(statuses, r.Status)
	}), nil
}

func (s *InMemory) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int, 4)
	for _, r := range s.requests {
		counts[r.Status]++
	}
	return counts, nil
}

// filter returns matching copies, newest first.
func (s *InMemory) filter(keep func(*models.Request) bool) []*models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Request, 0)
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, clone(r))
		}
	}
	slices.SortFunc(out, func(a, b *models.Request) int { return int(b.ID - a.ID) })
	return out
}
