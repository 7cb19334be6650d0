package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sankalp/internal/article/models"
	"sankalp/internal/article/store"
	identity "sankalp/internal/identity/models"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/requestcontext"
)

var (
	meera = &identity.Actor{ID: 1, Username: "meera", Role: identity.RoleAdvocate}
	arjun = &identity.Actor{ID: 2, Username: "arjun", Role: identity.RoleAdvocate}
	kavya = &identity.Actor{ID: 3, Username: "kavya", Role: identity.RoleSupporter}
	asha  = &identity.Actor{ID: 4, Username: "asha", Role: identity.RoleBeneficiary}
)

func newService() (*Service, context.Context) {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	return New(store.NewInMemory()), ctx
}

func TestPublishIsDomainScoped(t *testing.T) {
	svc, ctx := newService()

	a, err := svc.Publish(ctx, meera, id.DomainLegal, &models.ArticleRequest{Title: " Tenancy ", Content: "Notice periods"})
	require.NoError(t, err)
	assert.Equal(t, "Tenancy", a.Title)

	_, err = svc.Publish(ctx, kavya, id.DomainLegal, &models.ArticleRequest{Title: "t", Content: "c"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = svc.Publish(ctx, meera, id.DomainWomenSupport, &models.ArticleRequest{Title: "t", Content: "c"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = svc.Publish(ctx, kavya, id.DomainWomenSupport, &models.ArticleRequest{Title: "", Content: "c"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestEditAndDeleteAreAuthorScoped(t *testing.T) {
	svc, ctx := newService()
	a, err := svc.Publish(ctx, meera, id.DomainLegal, &models.ArticleRequest{Title: "Tenancy", Content: "v1"})
	require.NoError(t, err)

	_, err = svc.Edit(ctx, arjun, a.ID, &models.ArticleRequest{Title: "Hijack", Content: "v2"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.True(t, dErrors.HasCode(svc.Delete(ctx, arjun, a.ID), dErrors.CodeNotFound))

	edited, err := svc.Edit(ctx, meera, a.ID, &models.ArticleRequest{Title: "Tenancy", Content: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "v2", edited.Content)

	require.NoError(t, svc.Delete(ctx, meera, a.ID))
	_, err = svc.Get(ctx, asha, a.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestReads(t *testing.T) {
	svc, ctx := newService()
	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Publish(ctx, meera, id.DomainLegal, &models.ArticleRequest{Title: title, Content: "c"})
		require.NoError(t, err)
	}
	_, err := svc.Publish(ctx, arjun, id.DomainLegal, &models.ArticleRequest{Title: "four", Content: "c"})
	require.NoError(t, err)

	latest, err := svc.List(ctx, asha, id.DomainLegal, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "four", latest[0].Title)

	mine, err := svc.ListMine(ctx, meera, id.DomainLegal)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	_, err = svc.List(ctx, nil, id.DomainLegal, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = svc.List(ctx, asha, "medical", 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
