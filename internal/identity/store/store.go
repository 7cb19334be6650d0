// Package store persists actors. Both implementations return sentinel errors:
// sentinel.ErrNotFound for missing actors and sentinel.ErrConflict for a taken
// username.
package store

import (
	"context"

	"sankalp/internal/identity/models"
	id "sankalp/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, actor *models.Actor) error
	FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error)
	FindByUsername(ctx context.Context, username string) (*models.Actor, error)
	ListByRole(ctx context.Context, roles ...models.Role) ([]*models.Actor, error)
	List(ctx context.Context) ([]*models.Actor, error)
	UpdateRole(ctx context.Context, actorID id.ActorID, role models.Role) error
	Delete(ctx context.Context, actorID id.ActorID) error
	CountByRole(ctx context.Context) (map[models.Role]int, error)
}
