// Package store persists hospitals and medical camps. Respond is a
// conditional update on Pending keyed by the approval token.
package store

import (
	"context"

	"sankalp/internal/medical/models"
	id "sankalp/pkg/domain"
)

type Store interface {
	CreateHospital(ctx context.Context, h *models.Hospital) error
	FindHospital(ctx context.Context, hospitalID id.HospitalID) (*models.Hospital, error)
	ListHospitals(ctx context.Context) ([]*models.Hospital, error)

	// Create fails with sentinel.ErrConflict when the approval token is
	// already in use.
	Create(ctx context.Context, camp *models.Camp) error
	FindByID(ctx context.Context, campID id.MedicalCampID) (*models.Camp, error)
	FindByToken(ctx context.Context, token id.ApprovalToken) (*models.Camp, error)
	// Respond moves the Pending camp holding token to Scheduled or Rejected.
	// Scheduling copies the requested date and time into the scheduled
	// fields.
	Respond(ctx context.Context, token id.ApprovalToken, to models.Status) error
	ListByVolunteer(ctx context.Context, volunteer id.ActorID) ([]*models.Camp, error)
	ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Camp, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}
