package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/identity/gate"
	"sankalp/internal/identity/models"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
	"sankalp/pkg/requestcontext"
)

// Service defines the identity operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Actor, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context) error
	Resolve(ctx context.Context, actorID id.ActorID) (*models.Actor, error)
	ListActors(ctx context.Context, caller *models.Actor, role models.Role) ([]*models.Actor, error)
	ListByRole(ctx context.Context, caller *models.Actor, role models.Role) ([]*models.Actor, error)
	ChangeRole(ctx context.Context, caller *models.Actor, target id.ActorID, role models.Role) (*models.Actor, error)
	DeleteActor(ctx context.Context, caller *models.Actor, target id.ActorID) error
}

// Handler serves registration, login and actor management.
type Handler struct {
	identity Service
	logger   *slog.Logger
}

func New(identity Service, logger *slog.Logger) *Handler {
	return &Handler{identity: identity, logger: logger}
}

// RegisterPublic mounts the routes reachable without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// Register mounts the authenticated routes. The router must already run
// RequireAuth and RequireActor.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/auth/me", h.handleMe)
	r.Get("/actors", h.handleDirectory)
	r.Route("/admin/actors", func(r chi.Router) {
		r.Get("/", h.handleListActors)
		r.Put("/{actorID}/role", h.handleChangeRole)
		r.Delete("/{actorID}", h.handleDeleteActor)
	})
}

// RequireActor loads the actor named by the token subject. It runs after the
// JWT middleware has put the actor id into the context.
func (h *Handler) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := h.identity.Resolve(ctx, requestcontext.ActorID(ctx))
		if err != nil {
			h.logger.WarnContext(ctx, "failed to resolve actor",
				"request_id", request.GetRequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(gate.WithActor(ctx, actor)))
	})
}

// OptionalActor resolves the actor when the request carried a token and
// otherwise passes through.
func (h *Handler) OptionalActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorID := requestcontext.ActorID(ctx)
		if actorID == 0 {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := h.identity.Resolve(ctx, actorID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(gate.WithActor(ctx, actor)))
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, err := h.identity.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, "register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, actor.View())
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.identity.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, "login", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.Logout(r.Context()); err != nil {
		h.writeError(w, r, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := gate.ActorFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, actor.View())
}

func (h *Handler) handleDirectory(w http.ResponseWriter, r *http.Request) {
	role, err := models.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	actors, err := h.identity.ListByRole(r.Context(), actor, role)
	if err != nil {
		h.writeError(w, r, "directory", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"actors": views(actors)})
}

func (h *Handler) handleListActors(w http.ResponseWriter, r *http.Request) {
	var role models.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed, err := models.ParseRole(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		role = parsed
	}
	actor, _ := gate.ActorFrom(r.Context())
	actors, err := h.identity.ListActors(r.Context(), actor, role)
	if err != nil {
		h.writeError(w, r, "list actors", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"actors": views(actors)})
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	target, err := id.ParseActorID(chi.URLParam(r, "actorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ChangeRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	updated, err := h.identity.ChangeRole(r.Context(), actor, target, role)
	if err != nil {
		h.writeError(w, r, "change role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated.View())
}

func (h *Handler) handleDeleteActor(w http.ResponseWriter, r *http.Request) {
	target, err := id.ParseActorID(chi.URLParam(r, "actorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	if err := h.identity.DeleteActor(r.Context(), actor, target); err != nil {
		h.writeError(w, r, "delete actor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func views(actors []*models.Actor) []models.ActorView {
	out := make([]models.ActorView, 0, len(actors))
	for _, a := range actors {
		out = append(out, a.View())
	}
	return out
}
