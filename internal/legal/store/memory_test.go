package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sankalp/internal/legal/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

func newPending(t *testing.T, s *InMemory) *models.Camp {
	t.Helper()
	c := &models.Camp{Title: "Know your rights", Description: "d", Category: models.CategoryLawLink,
		Location: "Pune", ProposedDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), RequestedBy: 3,
		Status: models.StatusPending, CreatedAt: time.Now()}
	require.NoError(t, s.Create(context.Background(), c))
	return c
}

func TestDecideIsConditional(t *testing.T) {
	s := NewInMemory()
	c := newPending(t, s)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 6 {
		wg.Add(1)
		go func(advocate id.ActorID) {
			defer wg.Done()
			if err := s.Decide(context.Background(), c.ID, models.StatusApproved, &advocate, time.Now()); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, sentinel.ErrInvalidState)
			}
		}(id.ActorID(20 + i))
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	got, err := s.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	require.NotNil(t, got.AssignedAdvocate)
}

func TestScheduleAndComplete(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	c := newPending(t, s)
	date := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, s.Schedule(ctx, c.ID, date, "10:00", time.Now()), sentinel.ErrInvalidState,
		"pending camps cannot be scheduled")
	require.NoError(t, s.Decide(ctx, c.ID, models.StatusApproved, nil, time.Now()))
	assert.ErrorIs(t, s.Complete(ctx, c.ID, time.Now()), sentinel.ErrInvalidState)
	require.NoError(t, s.Schedule(ctx, c.ID, date, "10:00", time.Now()))
	require.NoError(t, s.Complete(ctx, c.ID, time.Now()))

	got, err := s.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, date, *got.ScheduledDate)
	assert.Nil(t, got.AssignedAdvocate, "link approvals leave no advocate of record")

	assert.ErrorIs(t, s.Complete(ctx, 999, time.Now()), sentinel.ErrNotFound)
}

func TestListing(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	first := newPending(t, s)
	second := newPending(t, s)
	require.NoError(t, s.Decide(ctx, first.ID, models.StatusRejected, nil, time.Now()))

	pending, err := s.ListByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	mine, err := s.ListByRequester(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []id.LegalCampID{second.ID, first.ID}, []id.LegalCampID{mine[0].ID, mine[1].ID})

	counts, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.StatusRejected])
}
