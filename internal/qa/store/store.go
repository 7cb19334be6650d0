// Package store persists Q&A questions. Answer is a conditional update on
// Pending so a question is answered at most once.
package store

import (
	"context"
	"time"

	"sankalp/internal/qa/models"
	id "sankalp/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, q *models.Question) error
	FindByID(ctx context.Context, questionID id.QuestionID) (*models.Question, error)
	Answer(ctx context.Context, questionID id.QuestionID, answer string, by id.ActorID, at time.Time) error
	// ListByDomain returns the domain's questions newest first, limited to
	// statuses when any are given.
	ListByDomain(ctx context.Context, domain id.AssistanceDomain, statuses ...models.Status) ([]*models.Question, error)
	ListByAsker(ctx context.Context, domain id.AssistanceDomain, asker id.ActorID) ([]*models.Question, error)
	CountByStatus(ctx context.Context, domain id.AssistanceDomain) (map[models.Status]int, error)
}
