package store

import (
	"context"
	"slices"
	"sync"

	"sankalp/internal/medical/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

type InMemory struct {
	mu             sync.RWMutex
	nextHospitalID id.HospitalID
	nextCampID     id.MedicalCampID
	hospitals      map[id.HospitalID]*models.Hospital
	camps          map[id.MedicalCampID]*models.Camp
}

func NewInMemory() *InMemory {
	return &InMemory{
		hospitals: make(map[id.HospitalID]*models.Hospital),
		camps:     make(map[id.MedicalCampID]*models.Camp),
	}
}

func (s *InMemory) CreateHospital(_ context.Context, h *models.Hospital) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHospitalID++
	h.ID = s.nextHospitalID
	cp := *h
	s.hospitals[h.ID] = &cp
	return nil
}

func (s *InMemory) FindHospital(_ context.Context, hospitalID id.HospitalID) (*models.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hospitals[hospitalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (s *InMemory) ListHospitals(_ context.Context) ([]*models.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Hospital, 0, len(s.hospitals))
	for _, h := range s.hospitals {
		cp := *h
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Hospital) int { return int(a.ID - b.ID) })
	return out, nil
}

func clone(c *models.Camp) *models.Camp {
	cp := *c
	return &cp
}

func (s *InMemory) Create(_ context.Context, camp *models.Camp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.camps {
		if c.ApprovalToken == camp.ApprovalToken {
			return sentinel.ErrConflict
		}
	}
	s.nextCampID++
	camp.ID = s.nextCampID
	s.camps[camp.ID] = clone(camp)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, campID id.MedicalCampID) (*models.Camp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.camps[campID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemory) FindByToken(_ context.Context, token id.ApprovalToken) (*models.Camp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.byToken(token)
	if c == nil {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemory) byToken(token id.ApprovalToken) *models.Camp {
	for _, c := range s.camps {
		if c.ApprovalToken == token {
			return c
		}
	}
	return nil
}

func (s *InMemory) Respond(_ context.Context, token id.ApprovalToken, to models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.byToken(token)
	if c == nil {
		return sentinel.ErrNotFound
	}
	if c.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	c.Status = to
	if to == models.StatusScheduled {
		date := c.Date
		c.ScheduledDate = &date
		c.ScheduledTime = c.Time
	}
	return nil
}

func (s *InMemory) ListByVolunteer(_ context.Context, volunteer id.ActorID) ([]*models.Camp, error) {
	return s.filter(func(c *models.Camp) bool { return c.VolunteerID == volunteer }), nil
}

func (s *InMemory) ListByStatus(_ context.Context, statuses ...models.Status) ([]*models.Camp, error) {
	return s.filter(func(c *models.Camp) bool {
		return len(statuses) == 0 || slices.Contains(statuses, c.Status)
	}), nil
}

func (s *InMemory) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int, 3)
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
