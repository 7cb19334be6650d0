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
	StatusScheduled Status = "Scheduled"
	StatusRejected  Status = "Rejected"
)

// Lifecycle is Pending -> {Scheduled, Rejected}. The hospital's approval
// schedules the camp directly.
var Lifecycle = statemachine.New(
	statemachine.Edge[Status]{From: StatusPending, To: StatusScheduled},
	statemachine.Edge[Status]{From: StatusPending, To: StatusRejected},
)

// ParseResponse maps the status query parameter of a hospital link to the
// target status.
func ParseResponse(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved":
		return StatusScheduled, nil
	case "rejected":
		return StatusRejected, nil
	}
	return "", dErrors.NewValidation("invalid approval action", map[string]string{"status": "must be approved or rejected"})
}

type Hospital struct {
	ID      id.HospitalID `json:"id"`
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Address string        `json:"address,omitempty"`
}

// Camp is a medical camp a Volunteer asks a hospital to run.
type Camp struct {
	ID            id.MedicalCampID `json:"id"`
	VolunteerID   id.ActorID       `json:"volunteer_id"`
	HospitalID    id.HospitalID    `json:"hospital_id"`
	ContactPerson string           `json:"contact_person"`
	Phone         string           `json:"phone"`
	Location      string           `json:"location"`
	Date          time.Time        `json:"date"`
	Time          string           `json:"time,omitempty"`
	Description   string           `json:"description"`
	Status        Status           `json:"status"`
	ApprovalToken id.ApprovalToken `json:"-"`
	ScheduledDate *time.Time       `json:"scheduled_date,omitempty"`
	ScheduledTime string           `json:"scheduled_time,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

type HospitalRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"max=255"`
}

func (r *HospitalRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Address = strings.TrimSpace(r.Address)
}

func (r *HospitalRequest) Validate() error {
	return validation.Struct(r)
}

type CampRequest struct {
	HospitalID    id.HospitalID `json:"hospital_id" validate:"required,gt=0"`
	ContactPerson string        `json:"contact_person" validate:"required,max=100"`
	Phone         string        `json:"phone" validate:"required,phone"`
	Location      string        `json:"location" validate:"required,max=200"`
	Date          string        `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string        `json:"time" validate:"omitempty,clock"`
	Description   string        `json:"description" validate:"required,max=5000"`
}

func (r *CampRequest) Normalize() {
	r.ContactPerson = strings.TrimSpace(r.ContactPerson)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Location = strings.TrimSpace(r.Location)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CampRequest) Validate() error {
	return validation.Struct(r)
}

// Response is the outcome of a hospital following its approval link.
type Response struct {
	Camp     *Camp
	Hospital *Hospital
}
