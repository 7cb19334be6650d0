package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"sankalp/internal/womensupport/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

type InMemory struct {
	mu        sync.RWMutex
	nextID    id.CampaignID
	campaigns map[id.CampaignID]*models.Campaign
}

func NewInMemory() *InMemory {
	return &InMemory{campaigns: make(map[id.CampaignID]*models.Campaign)}
}

func clone(c *models.Campaign) *models.Campaign {
	cp := *c
	if c.SupporterID != nil {
		s := *c.SupporterID
		cp.SupporterID = &s
	}
	if c.ScheduledDate != nil {
		d := *c.ScheduledDate
		cp.ScheduledDate = &d
	}
	return &cp
}

func (s *InMemory) Create(_ context.Context, campaign *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	campaign.ID = s.nextID
	s.campaigns[campaign.ID] = clone(campaign)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemory) transition(campaignID id.CampaignID, from models.Status, mutate func(*models.Campaign)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Status != from {
		return sentinel.ErrInvalidState
	}
	mutate(c)
	return nil
}

func (s *InMemory) Decide(_ context.Context, campaignID id.CampaignID, to models.Status, supporter *id.ActorID, reason string) error {
	return s.transition(campaignID, models.StatusPending, func(c *models.Campaign) {
		c.Status = to
		if supporter != nil {
			sp := *supporter
			c.SupporterID = &sp
		}
		c.RejectionReason = reason
	})
}

func (s *InMemory) Schedule(_ context.Context, campaignID id.CampaignID, date time.Time, clock string) error {
	return s.transition(campaignID, models.StatusApproved, func(c *models.Campaign) {
		c.Status = models.StatusScheduled
		c.ScheduledDate = &date
		c.ScheduledTime = clock
	})
}

func (s *InMemory) ListByVolunteer(_ context.Context, volunteer id.ActorID) ([]*models.Campaign, error) {
	return s.filter(func(c *models.Campaign) bool { return c.VolunteerID == volunteer }), nil
}

func (s *InMemory) ListBySupporter(_ context.Context, supporter id.ActorID) ([]*models.Campaign, error) {
	return s.filter(func(c *models.Campaign) bool { return c.ManagedBy(supporter) }), nil
}

func (s *InMemory) ListByStatus(_ context.Context, statuses ...models.Status) ([]*models.Campaign, error) {
	return s.filter(func(c *models.Campaign) bool {
		return len(statuses) == 0 || slices.Contains(statuses, c.Status)
	}), nil
}

func (s *InMemory) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int, 4)
	for _, c := range s.campaigns {
		counts[c.Status]++
	}
	return counts, nil
}

func (s *InMemory) filter(keep func(*models.Campaign) bool) []*models.Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Campaign, 0)
	for _, c := range s.campaigns {
		if keep(c) {
			out = append(out, clone(c))
		}
	}
	slices.SortFunc(out, func(a, b *models.Campaign) int { return int(b.ID - a.ID) })
	return out
}
