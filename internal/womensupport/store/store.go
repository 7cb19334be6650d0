// Package store persists women's awareness campaigns. Transitions are
// conditional updates on the current status.
package store

import (
	"context"
	"time"

	"sankalp/internal/womensupport/models"
	id "sankalp/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
	// Decide moves a Pending campaign to Approved or Rejected. A nil
	// supporter keeps the current supporter of record.
	Decide(ctx context.Context, campaignID id.CampaignID, to models.Status, supporter *id.ActorID, reason string) error
	Schedule(ctx context.Context, campaignID id.CampaignID, date time.Time, clock string) error
	ListByVolunteer(ctx context.Context, volunteer id.ActorID) ([]*models.Campaign, error)
	ListBySupporter(ctx context.Context, supporter id.ActorID) ([]*models.Campaign, error)
	ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Campaign, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}
