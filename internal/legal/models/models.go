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
	StatusCompleted Status = "Completed"
)

// Lifecycle is Pending -> {Approved, Rejected}, Approved -> Scheduled ->
// Completed.
var Lifecycle = statemachine.New(
	statemachine.Edge[Status]{From: StatusPending, To: StatusApproved},
	statemachine.Edge[Status]{From: StatusPending, To: StatusRejected},
	statemachine.Edge[Status]{From: StatusApproved, To: StatusScheduled},
	statemachine.Edge[Status]{From: StatusScheduled, To: StatusCompleted},
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected, StatusScheduled, StatusCompleted:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid legal camp status")
}

// HasBeenApproved reports whether an approval has already happened on the
// way to s.
func (s Status) HasBeenApproved() bool {
	return s == StatusApproved || s == StatusScheduled || s == StatusCompleted
}

// Category is the audience a camp is aimed at.
type Category string

const (
	CategorySheRights      Category = "SheRights"
	CategoryKisanKanoon    Category = "KisanKanoon"
	CategoryKnowYourRights Category = "KnowYourRights"
	CategoryWorkShield     Category = "WorkShield"
	CategoryLawLink        Category = "LawLink"
)

func (c Category) Label() string {
	switch c {
	case CategorySheRights:
		return "Women's Rights"
	case CategoryKisanKanoon:
		return "Farmers' Rights"
	case CategoryKnowYourRights:
		return "Student Rights"
	case CategoryWorkShield:
		return "Employee Rights"
	default:
		return "General Public Rights"
	}
}

// Camp is a legal awareness camp proposed by a Volunteer.
type Camp struct {
	ID               id.LegalCampID `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Category         Category       `json:"category"`
	Location         string         `json:"location"`
	ProposedDate     time.Time      `json:"proposed_date"`
	ProposedTime     string         `json:"proposed_time,omitempty"`
	ScheduledDate    *time.Time     `json:"scheduled_date,omitempty"`
	ScheduledTime    string         `json:"scheduled_time,omitempty"`
	RequestedBy      id.ActorID     `json:"requested_by"`
	AssignedAdvocate *id.ActorID    `json:"assigned_advocate,omitempty"`
	Status           Status         `json:"status"`
	AllowAnonymous   bool           `json:"allow_anonymous"`
	ContactNumber    string         `json:"contact_number,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type CampRequest struct {
	Title          string   `json:"title" validate:"required,max=100"`
	Description    string   `json:"description" validate:"required,max=5000"`
	Category       Category `json:"category" validate:"oneof=SheRights KisanKanoon KnowYourRights WorkShield LawLink"`
	Location       string   `json:"location" validate:"required,max=100"`
	ProposedDate   string   `json:"proposed_date" validate:"required,datetime=2006-01-02"`
	ProposedTime   string   `json:"proposed_time" validate:"omitempty,clock"`
	AllowAnonymous bool     `json:"allow_anonymous"`
	ContactNumber  string   `json:"contact_number" validate:"omitempty,phone"`
}

func (r *CampRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.ProposedDate = strings.TrimSpace(r.ProposedDate)
	r.ProposedTime = strings.TrimSpace(r.ProposedTime)
	r.ContactNumber = strings.TrimSpace(r.ContactNumber)
	if r.Category == "" {
		r.Category = CategoryLawLink
	}
}

func (r *CampRequest) Validate() error {
	return validation.Struct(r)
}

// DecisionRequest carries an Advocate's dashboard decision.
type DecisionRequest struct {
	Decision Status `json:"decision" validate:"required,oneof=Approved Rejected"`
}

func (r *DecisionRequest) Normalize() {
	r.Decision = Status(strings.TrimSpace(string(r.Decision)))
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

// LinkResult is what the unauthenticated email-link endpoints show.
type LinkResult struct {
	Camp            *Camp
	AlreadyApproved bool
	ApprovedNow     bool
}
