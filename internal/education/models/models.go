package models

import (
	"strings"
	"time"

	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/statemachine"
	"sankalp/pkg/platform/validation"
)

// Status is the lifecycle state of an education request. Values are
// persisted verbatim.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusForwarded Status = "Forwarded"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
)

// Lifecycle is Pending -> Forwarded -> {Approved, Rejected}. Approved and
// Rejected are terminal.
var Lifecycle = statemachine.New(
	statemachine.Edge[Status]{From: StatusPending, To: StatusForwarded},
	statemachine.Edge[Status]{From: StatusForwarded, To: StatusApproved},
	statemachine.Edge[Status]{From: StatusForwarded, To: StatusRejected},
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusForwarded, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid education request status")
}

// IsOpen reports whether the request still awaits a donor decision.
func (s Status) IsOpen() bool {
	return !Lifecycle.IsTerminal(s)
}

// Request is a beneficiary's application for education support.
type Request struct {
	ID             id.EducationRequestID `json:"id"`
	BeneficiaryID  id.ActorID            `json:"beneficiary_id"`
	FullName       string                `json:"full_name"`
	Age            *int                  `json:"age,omitempty"`
	EducationLevel string                `json:"education_level"`
	Reason         string                `json:"reason"`
	Status         Status                `json:"status"`
	CreatedAt      time.Time             `json:"created_at"`
	VolunteerID    *id.ActorID           `json:"volunteer_id,omitempty"`
	ForwardedTo    *id.ActorID           `json:"forwarded_to,omitempty"`
	ForwardedAt    *time.Time            `json:"forwarded_at,omitempty"`
	DecisionAt     *time.Time            `json:"decision_at,omitempty"`
	VolunteerNotes string                `json:"volunteer_notes,omitempty"`
	AdminNotes     string                `json:"admin_notes,omitempty"`
}

type SubmitRequest struct {
	FullName       string `json:"full_name" validate:"required,max=100"`
	Age            *int   `json:"age" validate:"omitempty,min=1,max=120"`
	EducationLevel string `json:"education_level" validate:"required,max=100"`
	Reason         string `json:"reason" validate:"required,max=5000"`
}

func (r *SubmitRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.EducationLevel = strings.TrimSpace(r.EducationLevel)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *SubmitRequest) Validate() error {
	return validation.Struct(r)
}

type ForwardRequest struct {
	DonorID id.ActorID `json:"donor_id" validate:"required,gt=0"`
	Notes   string     `json:"notes" validate:"max=2000"`
}

func (r *ForwardRequest) Normalize() {
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *ForwardRequest) Validate() error {
	return validation.Struct(r)
}
