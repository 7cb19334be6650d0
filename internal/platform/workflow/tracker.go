// Package workflow records the side effects every lifecycle service shares:
// an audit event and a metric per committed transition, and a metric per
// refused one.
package workflow

import (
	"context"
	"log/slog"

	"sankalp/internal/platform/metrics"
	dErrors "sankalp/pkg/domain-errors"
	audit "sankalp/pkg/platform/audit"
	"sankalp/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Tracker is embedded by value in the lifecycle services. The zero value
// records nothing.
type Tracker struct {
	Domain  string
	Audit   AuditPublisher
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func (t Tracker) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

// Committed records a transition that has been persisted. Audit failures are
// logged and never returned.
func (t Tracker) Committed(ctx context.Context, event audit.Event) {
	event.Domain = t.Domain
	t.Metrics.IncTransition(t.Domain, event.ToStatus)
	if t.Audit == nil {
		return
	}
	if err := t.Audit.Emit(ctx, event); err != nil {
		t.logger().WarnContext(ctx, "failed to emit audit event",
			"domain", t.Domain,
			"action", event.Action,
			"record_id", event.RecordID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// Refused counts err when it is a gate denial or a guard failure and returns
// it unchanged.
func (t Tracker) Refused(ctx context.Context, err error) error {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeForbidden, dErrors.CodeUnauthorized:
		t.Metrics.IncGuardRejection(t.Domain, "forbidden")
		t.logger().InfoContext(ctx, "transition denied by role gate",
			"domain", t.Domain,
			"request_id", requestcontext.RequestID(ctx),
		)
	case dErrors.CodeInvalidState:
		t.Metrics.IncGuardRejection(t.Domain, "invalid_state")
		t.logger().InfoContext(ctx, "transition refused by state guard",
			"domain", t.Domain,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return err
}
