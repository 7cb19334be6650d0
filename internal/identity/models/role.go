package models

import dErrors "sankalp/pkg/domain-errors"

// Role is the sole authorization key of an actor. The set is closed: adding a
// role means adding a RoleVisitor method, which breaks every visitor until it
// handles the new role.
type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleVolunteer   Role = "Volunteer"
	RoleDonor       Role = "Donor"
	RoleBeneficiary Role = "Beneficiary"
	RoleSupporter   Role = "Supporter"
	RoleAdvocate    Role = "Advocate"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{RoleAdmin, RoleVolunteer, RoleDonor, RoleBeneficiary, RoleSupporter, RoleAdvocate}

// ParseRole validates a role received from outside the process.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleVolunteer, RoleDonor, RoleBeneficiary, RoleSupporter, RoleAdvocate:
		return true
	}
	return false
}

// SelfRegistrable reports whether the role may be chosen at sign-up.
func (r Role) SelfRegistrable() bool {
	return r.IsValid() && r != RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// RoleVisitor dispatches role-dependent behaviour exhaustively.
type RoleVisitor[T any] interface {
	Admin() (T, error)
	Volunteer() (T, error)
	Donor() (T, error)
	Beneficiary() (T, error)
	Supporter() (T, error)
	Advocate() (T, error)
}

// Visit calls the visitor method matching r.
func Visit[T any](r Role, v RoleVisitor[T]) (T, error) {
	switch r {
	case RoleAdmin:
		return v.Admin()
	case RoleVolunteer:
		return v.Volunteer()
	case RoleDonor:
		return v.Donor()
	case RoleBeneficiary:
		return v.Beneficiary()
	case RoleSupporter:
		return v.Supporter()
	case RoleAdvocate:
		return v.Advocate()
	}
	var zero T
	return zero, dErrors.New(dErrors.CodeInvariantViolation, "unknown role "+string(r))
}
