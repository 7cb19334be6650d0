package models

import (
	"strings"
	"time"

	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/statemachine"
	"sankalp/pkg/platform/validation"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusScheduled Status = "Scheduled"
)

// Lifecycle is Pending -> {Approved, Rejected}, Approved -> Scheduled.
var Lifecycle = statemachine.New(
	statemachine.Edge[Status]{From: StatusPending, To: StatusApproved},
	statemachine.Edge[Status]{From: StatusPending, To: StatusRejected},
	statemachine.Edge[Status]{From: StatusApproved, To: StatusScheduled},
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected, StatusScheduled:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid campaign status")
}

// Campaign is a women's awareness campaign a Volunteer asks one Supporter
// to run.
type Campaign struct {
	ID              id.CampaignID `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Location        string        `json:"location"`
	ProposedDate    time.Time     `json:"proposed_date"`
	ProposedTime    string        `json:"proposed_time,omitempty"`
	ScheduledDate   *time.Time    `json:"scheduled_date,omitempty"`
	ScheduledTime   string        `json:"scheduled_time,omitempty"`
	Status          Status        `json:"status"`
	VolunteerID     id.ActorID    `json:"volunteer_id"`
	SupporterID     *id.ActorID   `json:"supporter_id,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ManagedBy reports whether supporter is the campaign's supporter of record.
func (c *Campaign) ManagedBy(supporter id.ActorID) bool {
	return c.SupporterID != nil && *c.SupporterID == supporter
}

type CampaignRequest struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description" validate:"required,max=5000"`
	Location     string     `json:"location" validate:"required,max=150"`
	ProposedDate string     `json:"proposed_date" validate:"required,datetime=2006-01-02"`
	ProposedTime string     `json:"proposed_time" validate:"omitempty,clock"`
	SupporterID  id.ActorID `json:"supporter_id" validate:"required,gt=0"`
}

func (r *CampaignRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.ProposedDate = strings.TrimSpace(r.ProposedDate)
	r.ProposedTime = strings.TrimSpace(r.ProposedTime)
}

func (r *CampaignRequest) Validate() error {
	return validation.Struct(r)
}

// DecisionRequest carries a Supporter's dashboard decision. Reason is only
// kept for rejections.
type DecisionRequest struct {
	Decision Status `json:"decision" validate:"required,oneof=Approved Rejected"`
	Reason   string `json:"reason" validate:"max=1000"`
}

func (r *DecisionRequest) Normalize() {
	r.Decision = Status(strings.TrimSpace(string(r.Decision)))
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Decision != StatusRejected {
		r.Reason = ""
	}
}

func (r *DecisionRequest) Validate() error {
	return validation.Struct(r)
}

type ScheduleRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,clock"`
}

func (r *ScheduleRequest) Normalize() {
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
}

func (r *ScheduleRequest) Validate() error {
	return validation.Struct(r)
}

// LinkResult is what the unauthenticated email-link endpoints show. Changed
// is false when the link found the campaign already handled.
type LinkResult struct {
	Campaign *Campaign
	Changed  bool
}
