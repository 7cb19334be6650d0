package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptResult(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	oldest := now.Add(-20 * time.Second).UnixMilli()

	t.Run("allowed reply leaves the remaining budget", func(t *testing.T) {
		res, err := scriptResult([]int64{1, 2, oldest}, 5, time.Minute, now)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 3, res.Remaining)
		assert.WithinDuration(t, now.Add(40*time.Second), res.ResetAt, 0)
	})

	t.Run("denied reply waits for the oldest request to leave the window", func(t *testing.T) {
		res, err := scriptResult([]int64{0, 5, oldest}, 5, time.Minute, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 40, res.RetryAfter)
	})

	t.Run("short reply reports its length", func(t *testing.T) {
		_, err := scriptResult([]int64{1, 2}, 5, time.Minute, now)
		assert.EqualError(t, err, "rate limit script: unexpected reply of length 2")
	})
}
