// Package service publishes awareness articles. Advocates write for the
// legal domain and Supporters for women support; every authenticated actor
// may read.
package service

import (
	"context"
	"errors"
	"log/slog"

	"sankalp/internal/article/models"
	"sankalp/internal/article/store"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/sentinel"
	"sankalp/pkg/requestcontext"
)

var errArticleNotFound = dErrors.New(dErrors.CodeNotFound, "article not found")

type Service struct {
	articles store.Store
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(articles store.Store, opts ...Option) *Service {
	s := &Service{articles: articles, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Publish(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain, req *models.ArticleRequest) (*models.Article, error) {
	if !domain.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid domain")
	}
	if err := gate.Authorize(actor, models.AuthorRole(domain)); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	a := &models.Article{
		Domain:    domain,
		Title:     req.Title,
		Content:   req.Content,
		AuthorID:  actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.articles.Create(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish article")
	}
	s.logger.InfoContext(ctx, "article published",
		"request_id", requestcontext.RequestID(ctx),
		"article_id", a.ID,
		"domain", domain,
	)
	return a, nil
}

// Edit replaces the title and content of one of the caller's articles.
func (s *Service) Edit(ctx context.Context, actor *identity.Actor, articleID id.ArticleID, req *models.ArticleRequest) (*models.Article, error) {
	if err := gate.AuthorizeAny(actor, identity.RoleAdvocate, identity.RoleSupporter); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.articles.Update(ctx, articleID, actor.ID, req.Title, req.Content, requestcontext.Now(ctx)); err != nil {
		return nil, translate(err, "failed to update article")
	}
	a, err := s.articles.FindByID(ctx, articleID)
	if err != nil {
		return nil, translate(err, "failed to reload article")
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, actor *identity.Actor, articleID id.ArticleID) error {
	if err := gate.AuthorizeAny(actor, identity.RoleAdvocate, identity.RoleSupporter); err != nil {
		return err
	}
	if err := s.articles.Delete(ctx, articleID, actor.ID); err != nil {
		return translate(err, "failed to delete article")
	}
	s.logger.InfoContext(ctx, "article deleted",
		"request_id", requestcontext.RequestID(ctx),
		"article_id", articleID,
	)
	return nil
}

func (s *Service) Get(ctx context.Context, actor *identity.Actor, articleID id.ArticleID) (*models.Article, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	a, err := s.articles.FindByID(ctx, articleID)
	if err != nil {
		return nil, translate(err, "failed to load article")
	}
	return a, nil
}

// List returns the newest articles of domain; limit <= 0 returns all.
func (s *Service) List(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain, limit int) ([]*models.Article, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.list(ctx, domain, nil, limit)
}

// ListMine returns the caller's own articles in domain.
func (s *Service) ListMine(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain) ([]*models.Article, error) {
	if err := gate.Authorize(actor, models.AuthorRole(domain)); err != nil {
		return nil, err
	}
	return s.list(ctx, domain, &actor.ID, 0)
}

func (s *Service) list(ctx context.Context, domain id.AssistanceDomain, author *id.ActorID, limit int) ([]*models.Article, error) {
	if !domain.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid domain")
	}
	out, err := s.articles.List(ctx, domain, author, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list articles")
	}
	return out, nil
}

func translate(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return errArticleNotFound
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
