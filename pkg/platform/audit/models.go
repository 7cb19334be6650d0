package audit

import (
	"context"
	"time"

	"sankalp/pkg/requestcontext"
)

// Action names what happened to a record. Values are persisted and published,
// so they must never be renamed.
type Action string

const (
	ActionEducationSubmitted Action = "education_submitted"
	ActionEducationForwarded Action = "education_forwarded"
	ActionEducationApproved  Action = "education_approved"
	ActionEducationRejected  Action = "education_rejected"

	ActionLegalCampRequested Action = "legal_camp_requested"
	ActionLegalCampDecided   Action = "legal_camp_decided"
	ActionLegalCampScheduled Action = "legal_camp_scheduled"
	ActionLegalCampCompleted Action = "legal_camp_completed"

	ActionMedicalCampRequested Action = "medical_camp_requested"
	ActionMedicalCampResponded Action = "medical_camp_responded"

	ActionCampaignRequested Action = "campaign_requested"
	ActionCampaignDecided   Action = "campaign_decided"
	ActionCampaignScheduled Action = "campaign_scheduled"

	ActionQuestionAsked    Action = "question_asked"
	ActionQuestionAnswered Action = "question_answered"

	ActionActorRegistered  Action = "actor_registered"
	ActionActorRoleChanged Action = "actor_role_changed"
	ActionActorDeleted     Action = "actor_deleted"
)

// Event is emitted by services after a state change commits. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time
	Action     Action
	Domain     string // education, legal, medical, women_support, qa, identity
	RecordID   int64
	ActorID    int64 // zero for unauthenticated link actions
	FromStatus string
	ToStatus   string
	Reason     string
	RequestID  string
	Device     string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRecord(ctx context.Context, domain string, recordID int64) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// NewEvent starts an event stamped with the request time, request id and device
// carried by ctx.
func NewEvent(ctx context.Context, action Action, domain string, recordID, actorID int64) Event {
	return Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    action,
		Domain:    domain,
		RecordID:  recordID,
		ActorID:   actorID,
		RequestID: requestcontext.RequestID(ctx),
		Device:    requestcontext.Device(ctx),
	}
}

// Transition records a status change on the event.
func (e Event) Transition(from, to string) Event {
	e.FromStatus = from
	e.ToStatus = to
	return e
}

// WithReason attaches a free-text reason, such as a rejection note.
func (e Event) WithReason(reason string) Event {
	e.Reason = reason
	return e
}
