package store

import (
	"context"
	"slices"
	"sync"

	"sankalp/internal/identity/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	nextID id.ActorID
	actors map[id.ActorID]*models.Actor
}

func NewInMemory() *InMemory {
	return &InMemory{actors: make(map[id.ActorID]*models.Actor)}
}

func (s *InMemory) Create(_ context.Context, actor *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.actors {
		if a.Username == actor.Username {
			return sentinel.ErrConflict
		}
	}
	s.nextID++
	actor.ID = s.nextID
	cp := *actor
	s.actors[actor.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, actorID id.ActorID) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[actorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.actors {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByRole(_ context.Context, roles ...models.Role) ([]*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(a *models.Actor) bool { return slices.Contains(roles, a.Role) }), nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(*models.Actor) bool { return true }), nil
}

// sorted returns copies ordered by id. Callers hold the read lock.
func (s *InMemory) sorted(keep func(*models.Actor) bool) []*models.Actor {
	out := make([]*models.Actor, 0, len(s.actors))
	for _, a := range s.actors {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Actor) int { return int(a.ID - b.ID) })
	return out
}

func (s *InMemory) UpdateRole(_ context.Context, actorID id.ActorID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[actorID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.Role = role
	return nil
}

func (s *InMemory) Delete(_ context.Context, actorID id.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[actorID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.actors, actorID)
	return nil
}

func (s *InMemory) CountByRole(_ context.Context) (map[models.Role]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Role]int, len(models.AllRoles))
	for _, a := range s.actors {
		counts[a.Role]++
	}
	return counts, nil
}
