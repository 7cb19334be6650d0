package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func feed(b *Breaker, outcomes ...outcome) {
	for _, o := range outcomes {
		if o {
			b.RecordSuccess()
		} else {
			b.RecordFailure()
		}
	}
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		outcomes []outcome
		wantOpen bool
	}{
		{name: "fresh breaker is closed", wantOpen: false},
		{name: "failures below threshold", opts: []Option{WithFailureThreshold(3)}, outcomes: []outcome{fail, fail}, wantOpen: false},
		{name: "threshold reached", opts: []Option{WithFailureThreshold(3)}, outcomes: []outcome{fail, fail, fail}, wantOpen: true},
		{name: "success clears failure streak", opts: []Option{WithFailureThreshold(3)}, outcomes: []outcome{fail, fail, ok, fail, fail}, wantOpen: false},
		{name: "one success not enough to close", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, outcomes: []outcome{fail, ok}, wantOpen: true},
		{name: "success threshold closes", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, outcomes: []outcome{fail, ok, ok}, wantOpen: false},
		{name: "failure while open restarts success count", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, outcomes: []outcome{fail, ok, fail, ok}, wantOpen: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("email", tt.opts...)
			feed(b, tt.outcomes...)
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreakerReportsStateChanges(t *testing.T) {
	b := New("sms", WithFailureThreshold(2))
	assert.Equal(t, "sms", b.Name())

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	require.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())

	_, change = b.RecordFailure()
	assert.False(t, change.Opened, "already open")

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestBreakerReset(t *testing.T) {
	b := New("inbox", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerAllowsProbeAfterCooldown(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := New("smtp", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(func() time.Time { return now }))

	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(time.Minute)
	assert.True(t, b.Allow())
	assert.True(t, b.IsOpen(), "probe does not close the breaker by itself")
}
