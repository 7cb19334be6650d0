package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sankalp/internal/identity/gate"
	"sankalp/internal/identity/models"
	"sankalp/internal/identity/store"
	"sankalp/internal/identity/token"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	audit "sankalp/pkg/platform/audit"
	"sankalp/pkg/platform/sentinel"
	"sankalp/pkg/requestcontext"
)

type TokenIssuer interface {
	GenerateAccessToken(actorID id.ActorID, expiresIn time.Duration) (*token.Issued, error)
}

type Revoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns registration, login and the admin-side actor management.
type Service struct {
	actors         store.Store
	tokens         TokenIssuer
	revoker        Revoker
	tokenTTL       time.Duration
	bcryptCost     int
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithBcryptCost lowers the hashing cost in tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func New(actors store.Store, tokens TokenIssuer, revoker Revoker, opts ...Option) *Service {
	s := &Service{
		actors:     actors,
		tokens:     tokens,
		revoker:    revoker,
		tokenTTL:   12 * time.Hour,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an actor with a self-selected, non-admin role.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.Actor, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if strings.ContainsAny(req.Username, " \t\n") {
		return nil, dErrors.NewValidation("invalid request", map[string]string{"username": "must not contain whitespace"})
	}
	role, err := models.ParseRole(req.Role)
	if err != nil || !role.SelfRegistrable() {
		return nil, dErrors.NewValidation("invalid request", map[string]string{"role": "must be one of Volunteer, Donor, Beneficiary, Supporter, Advocate"})
	}
	return s.create(ctx, req, role)
}

func (s *Service) create(ctx context.Context, req *models.RegisterRequest, role models.Role) (*models.Actor, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	actor := &models.Actor{
		Username:     req.Username,
		Email:        req.Email,
		Contact:      req.Contact,
		Address:      req.Address,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.actors.Create(ctx, actor); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username is already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create actor")
	}
	s.emit(ctx, audit.NewEvent(ctx, audit.ActionActorRegistered, "identity", int64(actor.ID), int64(actor.ID)).Transition("", string(role)))
	s.logger.InfoContext(ctx, "actor registered",
		"actor_id", actor.ID,
		"role", role,
		"request_id", requestcontext.RequestID(ctx),
	)
	return actor, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")

	actor, err := s.actors.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, invalid
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
	}
	if bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(req.Password)) != nil {
		s.logger.WarnContext(ctx, "login failed",
			"actor_id", actor.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, invalid
	}

	issued, err := s.tokens.GenerateAccessToken(actor.ID, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.LoginResult{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresAt:   issued.ExpiresAt,
		Actor:       actor.View(),
	}, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context) error {
	jti := requestcontext.TokenID(ctx)
	if jti == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	ttl := time.Until(requestcontext.TokenExpiry(ctx))
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.RevokeToken(ctx, jti, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	return nil
}

// Resolve loads the actor behind an authenticated request.
func (s *Service) Resolve(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "actor no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
	}
	return actor, nil
}

// ListActors returns every actor, optionally filtered by role. Admin only.
func (s *Service) ListActors(ctx context.Context, caller *models.Actor, role models.Role) ([]*models.Actor, error) {
	if err := gate.Authorize(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	var (
		actors []*models.Actor
		err    error
	)
	if role == "" {
		actors, err = s.actors.List(ctx)
	} else {
		actors, err = s.actors.ListByRole(ctx, role)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list actors")
	}
	return actors, nil
}

// ListByRole is the directory lookup used to pick a donor or supporter.
func (s *Service) ListByRole(ctx context.Context, caller *models.Actor, role models.Role) ([]*models.Actor, error) {
	if caller == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	actors, err := s.actors.ListByRole(ctx, role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list actors")
	}
	return actors, nil
}

// ChangeRole sets a new role on another actor. Admin only.
func (s *Service) ChangeRole(ctx context.Context, caller *models.Actor, target id.ActorID, role models.Role) (*models.Actor, error) {
	if err := gate.Authorize(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, dErrors.NewValidation("invalid request", map[string]string{"role": "unknown role"})
	}
	if target == caller.ID {
		return nil, dErrors.New(dErrors.CodeInvalidState, "admins cannot change their own role")
	}
	before, err := s.actors.FindByID(ctx, target)
	if err != nil {
		return nil, s.translateNotFound(err, "actor not found")
	}
	if err := s.actors.UpdateRole(ctx, target, role); err != nil {
		return nil, s.translateNotFound(err, "actor not found")
	}
	s.emit(ctx, audit.NewEvent(ctx, audit.ActionActorRoleChanged, "identity", int64(target), int64(caller.ID)).
		Transition(string(before.Role), string(role)))
	before.Role = role
	return before, nil
}

// DeleteActor removes another actor. Admin only.
func (s *Service) DeleteActor(ctx context.Context, caller *models.Actor, target id.ActorID) error {
	if err := gate.Authorize(caller, models.RoleAdmin); err != nil {
		return err
	}
	if target == caller.ID {
		return dErrors.New(dErrors.CodeInvalidState, "admins cannot delete themselves")
	}
	if err := s.actors.Delete(ctx, target); err != nil {
		return s.translateNotFound(err, "actor not found")
	}
	s.emit(ctx, audit.NewEvent(ctx, audit.ActionActorDeleted, "identity", int64(target), int64(caller.ID)))
	return nil
}

// CountByRole feeds the admin dashboard.
func (s *Service) CountByRole(ctx context.Context) (map[models.Role]int, error) {
	counts, err := s.actors.CountByRole(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count actors")
	}
	return counts, nil
}

// SeedAdmin creates the bootstrap administrator unless one already exists.
func (s *Service) SeedAdmin(ctx context.Context, username, email, password string) (*models.Actor, error) {
	admins, err := s.actors.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up admins")
	}
	if len(admins) > 0 {
		return admins[0], nil
	}
	req := &models.RegisterRequest{Username: username, Email: email, Password: password, Role: string(models.RoleAdmin)}
	req.Normalize()
	return s.create(ctx, req, models.RoleAdmin)
}

func (s *Service) translateNotFound(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "actor store failure")
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
