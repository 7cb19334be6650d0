package models

import "time"

// Class groups endpoints that share one request budget.
type Class string

const (
	// ClassAuth covers login and registration.
	ClassAuth Class = "auth"
	// ClassLink covers the unauthenticated email-link endpoints, whose legal
	// and women-support variants are addressed by guessable numeric ids.
	ClassLink Class = "link"
)

// Limit is a sliding-window budget.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of one check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, only set when not allowed
}
