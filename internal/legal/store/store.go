// Package store persists legal awareness camps. Every transition is a
// conditional update on the current status; a mismatch is
// sentinel.ErrInvalidState and a missing camp sentinel.ErrNotFound.
package store

import (
	"context"
	"time"

	"sankalp/internal/legal/models"
	id "sankalp/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, camp *models.Camp) error
	FindByID(ctx context.Context, campID id.LegalCampID) (*models.Camp, error)
	// Decide moves a Pending camp to Approved or Rejected. advocate is nil
	// for approvals made through the email link.
	Decide(ctx context.Context, campID id.LegalCampID, to models.Status, advocate *id.ActorID, at time.Time) error
	Schedule(ctx context.Context, campID id.LegalCampID, date time.Time, clock string, at time.Time) error
	Complete(ctx context.Context, campID id.LegalCampID, at time.Time) error
	ListByRequester(ctx context.Context, volunteer id.ActorID) ([]*models.Camp, error)
	ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Camp, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}
