package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "sankalp/pkg/domain"
)

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	assert.Zero(t, ActorID(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, TokenID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestValuesSurviveDetachedContext(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	ctx = WithActorID(ctx, id.ActorID(7))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTime(ctx, fixed)

	detached := context.WithoutCancel(ctx)
	cancel()

	assert.NoError(t, detached.Err())
	assert.Equal(t, id.ActorID(7), ActorID(detached))
	assert.Equal(t, "req-1", RequestID(detached))
	assert.Equal(t, fixed, Now(detached))
}
