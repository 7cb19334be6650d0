package models

import (
	"strings"
	"time"

	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/validation"
)

// Actor is any authenticated person using the system.
type Actor struct {
	ID           id.ActorID
	Username     string
	Email        string
	Contact      string
	Address      string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func (a *Actor) Is(role Role) bool {
	return a != nil && a.Role == role
}

// DisplayName is the name used in notification copy.
func (a *Actor) DisplayName() string {
	if a == nil {
		return "someone"
	}
	return a.Username
}

// ActorView is the public projection of an actor.
type ActorView struct {
	ID        id.ActorID `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Contact   string     `json:"contact,omitempty"`
	Address   string     `json:"address,omitempty"`
	Role      Role       `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

func (a *Actor) View() ActorView {
	return ActorView{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Contact:   a.Contact,
		Address:   a.Address,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Contact  string `json:"contact" validate:"omitempty,phone"`
	Address  string `json:"address" validate:"max=500"`
	Role     string `json:"role" validate:"required"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Contact = strings.TrimSpace(r.Contact)
	r.Address = strings.TrimSpace(r.Address)
	r.Role = strings.TrimSpace(r.Role)
}

func (r *RegisterRequest) Validate() error {
	return validation.Struct(r)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *LoginRequest) Validate() error {
	return validation.Struct(r)
}

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Actor       ActorView `json:"actor"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
