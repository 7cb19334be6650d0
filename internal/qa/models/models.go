package models

import (
	"strings"
	"time"

	identity "sankalp/internal/identity/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/validation"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusAnswered Status = "Answered"
)

// AnswererFor is the only role allowed to answer questions in domain.
func AnswererFor(domain id.AssistanceDomain) identity.Role {
	if domain == id.DomainWomenSupport {
		return identity.RoleSupporter
	}
	return identity.RoleAdvocate
}

// Question is asked by a Beneficiary and answered exactly once.
type Question struct {
	ID             id.QuestionID       `json:"id"`
	Domain         id.AssistanceDomain `json:"domain"`
	AskedBy        id.ActorID          `json:"asked_by,omitempty"`
	Question       string              `json:"question"`
	AllowAnonymous bool                `json:"allow_anonymous"`
	Answer         string              `json:"answer,omitempty"`
	AnsweredBy     *id.ActorID         `json:"answered_by,omitempty"`
	AnsweredAt     *time.Time          `json:"answered_at,omitempty"`
	Status         Status              `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Redacted hides the asker of an anonymous question from viewer unless
// viewer asked it.
func (q *Question) Redacted(viewer id.ActorID) *Question {
	if !q.AllowAnonymous || q.AskedBy == viewer {
		return q
	}
	cp := *q
	cp.AskedBy = 0
	return &cp
}

type AskRequest struct {
	Question       string `json:"question" validate:"required,max=2000"`
	AllowAnonymous bool   `json:"allow_anonymous"`
}

func (r *AskRequest) Normalize() {
	r.Question = strings.TrimSpace(r.Question)
}

func (r *AskRequest) Validate() error {
	return validation.Struct(r)
}

type AnswerRequest struct {
	Answer string `json:"answer" validate:"required,max=5000"`
}

func (r *AnswerRequest) Normalize() {
	r.Answer = strings.TrimSpace(r.Answer)
}

func (r *AnswerRequest) Validate() error {
	return validation.Struct(r)
}
