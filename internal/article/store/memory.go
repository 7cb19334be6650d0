package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"sankalp/internal/article/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	nextID   id.ArticleID
	articles map[id.ArticleID]*models.Article
}

func NewInMemory() *InMemory {
	return &InMemory{articles: make(map[id.ArticleID]*models.Article)}
}

func (s *InMemory) Create(_ context.Context, a *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.ID = s.nextID
	cp := *a
	s.articles[a.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, articleID id.ArticleID) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[articleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemory) Update(_ context.Context, articleID id.ArticleID, author id.ActorID, title, content string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[articleID]
	if !ok || a.AuthorID != author {
		return sentinel.ErrNotFound
	}
	a.Title, a.Content, a.UpdatedAt = title, content, at
	return nil
}

func (s *InMemory) Delete(_ context.Context, articleID id.ArticleID, author id.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[articleID]
	if !ok || a.AuthorID != author {
		return sentinel.ErrNotFound
	}
	delete(s.articles, articleID)
	return nil
}

func (s *InMemory) List(_ context.Context, domain id.AssistanceDomain, author *id.ActorID, limit int) ([]*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Article, 0)
	for _, a := range s.articles {
		if a.Domain != domain || (author != nil && a.AuthorID != *author) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Article) int { return int(b.ID - a.ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
