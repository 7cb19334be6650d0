package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sankalp/internal/medical/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

func newPending(t *testing.T, s *InMemory) *models.Camp {
	t.Helper()
	c := &models.Camp{VolunteerID: 2, HospitalID: 1, ContactPerson: "Dr. Rao", Phone: "+919876543210",
		Location: "Ward 5", Date: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), Time: "09:00",
		Description: "Eye check-up", Status: models.StatusPending, ApprovalToken: id.NewApprovalToken(), CreatedAt: time.Now()}
	require.NoError(t, s.Create(context.Background(), c))
	return c
}

func TestRespondOnlyOnce(t *testing.T) {
	s := NewInMemory()
	c := newPending(t, s)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 6 {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			to := models.StatusRejected
			if approve {
				to = models.StatusScheduled
			}
			if err := s.Respond(context.Background(), c.ApprovalToken, to); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, sentinel.ErrInvalidState)
			}
		}(i%2 == 0)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRespondSchedulesRequestedSlot(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	c := newPending(t, s)

	require.NoError(t, s.Respond(ctx, c.ApprovalToken, models.StatusScheduled))
	got, err := s.FindByToken(ctx, c.ApprovalToken)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, got.Status)
	require.NotNil(t, got.ScheduledDate)
	assert.Equal(t, c.Date, *got.ScheduledDate)
	assert.Equal(t, "09:00", got.ScheduledTime)

	assert.ErrorIs(t, s.Respond(ctx, id.NewApprovalToken(), models.StatusScheduled), sentinel.ErrNotFound)
}

func TestCreateRejectsReusedToken(t *testing.T) {
	s := NewInMemory()
	c := newPending(t, s)
	dup := *c
	dup.ID = 0
	assert.ErrorIs(t, s.Create(context.Background(), &dup), sentinel.ErrConflict)
}

func TestHospitals(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	require.NoError(t, s.CreateHospital(ctx, &models.Hospital{Name: "City Hospital", Email: "desk@city.example.org"}))
	require.NoError(t, s.CreateHospital(ctx, &models.Hospital{Name: "Rural Clinic", Email: "rc@example.org"}))

	all, err := s.ListHospitals(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "City Hospital", all[0].Name)

	_, err = s.FindHospital(ctx, 9)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
