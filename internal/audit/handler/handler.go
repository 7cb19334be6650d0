package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/audit/service"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
)

type Service interface {
	Recent(ctx context.Context, actor *identity.Actor, limit int) ([]service.Entry, error)
	ForRecord(ctx context.Context, actor *identity.Actor, domain string, recordID int64) ([]service.Entry, error)
}

type Handler struct {
	audit  Service
	logger *slog.Logger
}

func New(audit Service, logger *slog.Logger) *Handler {
	return &Handler{audit: audit, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit", h.handleRecent)
	r.Get("/admin/audit/{domain}/{recordID}", h.handleRecord)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}
	actor, _ := gate.ActorFrom(r.Context())
	events, err := h.audit.Recent(r.Context(), actor, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	recordID, err := strconv.ParseInt(chi.URLParam(r, "recordID"), 10, 64)
	if err != nil || recordID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid record id"))
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	events, err := h.audit.ForRecord(r.Context(), actor, chi.URLParam(r, "domain"), recordID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "read audit trail failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
