package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/dashboard/service"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
)

type Service interface {
	For(ctx context.Context, actor *identity.Actor) (*service.Dashboard, error)
}

type Handler struct {
	dashboard Service
	logger    *slog.Logger
}

func New(dashboard Service, logger *slog.Logger) *Handler {
	return &Handler{dashboard: dashboard, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := gate.ActorFrom(ctx)
	d, err := h.dashboard.For(ctx, actor)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "dashboard failed",
				"request_id", request.GetRequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}
