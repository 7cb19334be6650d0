package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"sankalp/internal/qa/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

type InMemory struct {
	mu        sync.RWMutex
	nextID    id.QuestionID
	questions map[id.QuestionID]*models.Question
}

func NewInMemory() *InMemory {
	return &InMemory{questions: make(map[id.QuestionID]*models.Question)}
}

func clone(q *models.Question) *models.Question {
	cp := *q
	if q.AnsweredBy != nil {
		by := *q.AnsweredBy
		cp.AnsweredBy = &by
	}
	if q.AnsweredAt != nil {
		at := *q.AnsweredAt
		cp.AnsweredAt = &at
	}
	return &cp
}

func (s *InMemory) Create(_ context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	q.ID = s.nextID
	s.questions[q.ID] = clone(q)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, questionID id.QuestionID) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(q), nil
}

func (s *InMemory) Answer(_ context.Context, questionID id.QuestionID, answer string, by id.ActorID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[questionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if q.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	q.Answer = answer
	q.AnsweredBy = &by
	q.AnsweredAt = &at
	q.Status = models.StatusAnswered
	return nil
}

func (s *InMemory) ListByDomain(_ context.Context, domain id.AssistanceDomain, statuses ...models.Status) ([]*models.Question, error) {
	return s.filter(func(q *models.Question) bool {
		return q.Domain == domain && (len(statuses) == 0 || slices.Contains(statuses, q.Status))
	}), nil
}

func (s *InMemory) ListByAsker(_ context.Context, domain id.AssistanceDomain, asker id.ActorID) ([]*models.Question, error) {
	return s.filter(func(q *models.Question) bool { return q.Domain == domain && q.AskedBy == asker }), nil
}

func (s *InMemory) CountByStatus(_ context.Context, domain id.AssistanceDomain) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int, 2)
	for _, q := range s.questions {
		if q.Domain == domain {
			counts[q.Status]++
		}
	}
	return counts, nil
}

func (s *InMemory) filter(keep func(*models.Question) bool) []*models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Question, 0)
	for _, q := range s.questions {
		if keep(q) {
			out = append(out, clone(q))
		}
	}
	slices.SortFunc(out, func(a, b *models.Question) int { return int(b.ID - a.ID) })
	return out
}
