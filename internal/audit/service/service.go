// Package service exposes the audit trail to administrators. Events are
// written by the workflow services through the publisher; this package only
// reads them back.
package service

import (
	"context"
	"time"

	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	dErrors "sankalp/pkg/domain-errors"
	audit "sankalp/pkg/platform/audit"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

var auditDomains = map[string]bool{
	"education":     true,
	"legal":         true,
	"medical":       true,
	"women_support": true,
	"qa":            true,
	"identity":      true,
}

type Reader interface {
	ListByRecord(ctx context.Context, domain string, recordID int64) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Entry is the wire shape of one audit event.
type Entry struct {
	Timestamp  time.Time    `json:"timestamp"`
	Action     audit.Action `json:"action"`
	Domain     string       `json:"domain"`
	RecordID   int64        `json:"record_id"`
	ActorID    int64        `json:"actor_id"`
	FromStatus string       `json:"from_status,omitempty"`
	ToStatus   string       `json:"to_status,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	RequestID  string       `json:"request_id,omitempty"`
	Device     string       `json:"device,omitempty"`
}

type Service struct {
	events Reader
}

func New(events Reader) *Service {
	return &Service{events: events}
}

// Recent returns the newest events across every domain. limit <= 0 uses the
// default and larger values are capped.
func (s *Service) Recent(ctx context.Context, actor *identity.Actor, limit int) ([]Entry, error) {
	if err := gate.Authorize(actor, identity.RoleAdmin); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	limit = min(limit, maxRecentLimit)
	events, err := s.events.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return entries(events), nil
}

// ForRecord returns the history of one record in the order it happened.
func (s *Service) ForRecord(ctx context.Context, actor *identity.Actor, domain string, recordID int64) ([]Entry, error) {
	if err := gate.Authorize(actor, identity.RoleAdmin); err != nil {
		return nil, err
	}
	if !auditDomains[domain] {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown audit domain %q", domain)
	}
	events, err := s.events.ListByRecord(ctx, domain, recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return entries(events), nil
}

func entries(events []audit.Event) []Entry {
	out := make([]Entry, len(events))
	for i, e := range events {
		out[i] = Entry{
			Timestamp:  e.Timestamp,
			Action:     e.Action,
			Domain:     e.Domain,
			RecordID:   e.RecordID,
			ActorID:    e.ActorID,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Reason:     e.Reason,
			RequestID:  e.RequestID,
			Device:     e.Device,
		}
	}
	return out
}
