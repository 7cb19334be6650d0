// Package store persists articles. Update and Delete are scoped to the
// author: another actor's article is reported as sentinel.ErrNotFound.
package store

import (
	"context"
	"time"

	"sankalp/internal/article/models"
	id "sankalp/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, a *models.Article) error
	FindByID(ctx context.Context, articleID id.ArticleID) (*models.Article, error)
	Update(ctx context.Context, articleID id.ArticleID, author id.ActorID, title, content string, at time.Time) error
	Delete(ctx context.Context, articleID id.ArticleID, author id.ActorID) error
	// List returns the domain's articles newest first. A non-nil author
	// restricts the result to that author; limit <= 0 means no limit.
	List(ctx context.Context, domain id.AssistanceDomain, author *id.ActorID, limit int) ([]*models.Article, error)
}
