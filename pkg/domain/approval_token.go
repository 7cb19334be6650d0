package domain

import (
	"github.com/google/uuid"

	dErrors "sankalp/pkg/domain-errors"
)

// ApprovalToken is the opaque, unguessable credential embedded in links sent to
// a hospital. Invariant: a random (v4) non-nil UUID, issued once per camp.
type ApprovalToken uuid.UUID

// NewApprovalToken issues a fresh random token.
func NewApprovalToken() ApprovalToken {
	return ApprovalToken(uuid.New())
}

// ParseApprovalToken validates a token received from an unauthenticated link.
//
// Errors: returns CodeInvalidInput for empty, malformed or nil tokens.
func ParseApprovalToken(s string) (ApprovalToken, error) {
	if s == "" {
		return ApprovalToken{}, dErrors.New(dErrors.CodeInvalidInput, "approval token cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return ApprovalToken{}, dErrors.New(dErrors.CodeInvalidInput, "invalid approval token")
	}
	return ApprovalToken(u), nil
}

func (t ApprovalToken) String() string {
	return uuid.UUID(t).String()
}

func (t ApprovalToken) IsNil() bool {
	return uuid.UUID(t) == uuid.Nil
}
