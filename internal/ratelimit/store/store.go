// Package store keeps sliding-window request counters.
package store

import (
	"context"
	"time"

	"sankalp/internal/ratelimit/models"
)

type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

func retryAfter(resetAt, now time.Time) int {
	secs := int(resetAt.Sub(now).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}
