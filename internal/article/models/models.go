package models

import (
	"strings"
	"time"

	identity "sankalp/internal/identity/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/validation"
)

// AuthorRole is the role that writes articles for domain.
func AuthorRole(domain id.AssistanceDomain) identity.Role {
	if domain == id.DomainWomenSupport {
		return identity.RoleSupporter
	}
	return identity.RoleAdvocate
}

type Article struct {
	ID        id.ArticleID        `json:"id"`
	Domain    id.AssistanceDomain `json:"domain"`
	Title     string              `json:"title"`
	Content   string              `json:"content"`
	AuthorID  id.ActorID          `json:"author_id"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type ArticleRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=20000"`
}

func (r *ArticleRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
}

func (r *ArticleRequest) Validate() error {
	return validation.Struct(r)
}
