// Package store persists education requests. Transitions are conditional
// updates: Forward and Decide only succeed when the stored status (and, for
// Decide, the assigned donor) still match, so concurrent callers cannot both
// win. A non-matching record yields sentinel.ErrInvalidState and a missing one
// sentinel.ErrNotFound.
package store

import (
	"context"
	"time"

	"sankalp/internal/education/models"
	id "sankalp/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, req *models.Request) error
	FindByID(ctx context.Context, requestID id.EducationRequestID) (*models.Request, error)
	// Forward moves a Pending request to Forwarded.
	Forward(ctx context.Context, requestID id.EducationRequestID, volunteer, donor id.ActorID, notes string, at time.Time) error
	// Decide moves a Forwarded request assigned to donor to a terminal status.
	// A record that exists but is not assigned to donor is ErrNotFound.
	Decide(ctx context.Context, requestID id.EducationRequestID, donor id.ActorID, to models.Status, at time.Time) error
	ListByBeneficiary(ctx context.Context, beneficiary id.ActorID) ([]*models.Request, error)
	ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Request, error)
	ListForDonor(ctx context.Context, donor id.ActorID, statuses ...models.Status) ([]*models.Request, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}
