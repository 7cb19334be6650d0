package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sankalp/internal/article/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

func publish(t *testing.T, s *InMemory, domain id.AssistanceDomain, author id.ActorID, title string) *models.Article {
	t.Helper()
	a := &models.Article{Domain: domain, Title: title, Content: "c", AuthorID: author, CreatedAt: time.Now()}
	require.NoError(t, s.Create(context.Background(), a))
	return a
}

func TestMutationsAreAuthorScoped(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	a := publish(t, s, id.DomainLegal, 1, "Tenancy")

	assert.ErrorIs(t, s.Update(ctx, a.ID, 2, "x", "y", time.Now()), sentinel.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, a.ID, 2), sentinel.ErrNotFound)

	require.NoError(t, s.Update(ctx, a.ID, 1, "Tenancy rights", "updated", time.Now()))
	got, err := s.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tenancy rights", got.Title)

	require.NoError(t, s.Delete(ctx, a.ID, 1))
	_, err = s.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	publish(t, s, id.DomainLegal, 1, "first")
	publish(t, s, id.DomainLegal, 2, "second")
	publish(t, s, id.DomainWomenSupport, 3, "other domain")
	publish(t, s, id.DomainLegal, 1, "third")

	all, err := s.List(ctx, id.DomainLegal, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Title)

	author := id.ActorID(1)
	mine, err := s.List(ctx, id.DomainLegal, &author, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	latest, err := s.List(ctx, id.DomainLegal, nil, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "third", latest[0].Title)
}
