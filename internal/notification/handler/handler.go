package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	"sankalp/internal/notification/models"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
)

type Service interface {
	Inbox(ctx context.Context, actor *identity.Actor) (*models.Inbox, error)
	MarkRead(ctx context.Context, actor *identity.Actor, ids []id.NotificationID) error
}

type Handler struct {
	inbox  Service
	logger *slog.Logger
}

func New(inbox Service, logger *slog.Logger) *Handler {
	return &Handler{inbox: inbox, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Post("/notifications/read", h.handleMarkRead)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	inbox, err := h.inbox.Inbox(r.Context(), actor)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load inbox",
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inbox)
}

// MarkReadRequest names the notifications the client displayed.
type MarkReadRequest struct {
	IDs []id.NotificationID `json:"ids"`
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	if actor == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	var req MarkReadRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(req.IDs) == 0 {
		httputil.WriteError(w, dErrors.NewValidation("invalid request", map[string]string{"ids": "required"}))
		return
	}
	if err := h.inbox.MarkRead(r.Context(), actor, req.IDs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
