package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/education/models"
	"sankalp/internal/education/service"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
)

type Service interface {
	Submit(ctx context.Context, actor *identity.Actor, req *models.SubmitRequest) (*models.Request, error)
	Forward(ctx context.Context, actor *identity.Actor, requestID id.EducationRequestID, req *models.ForwardRequest) (*models.Request, error)
	Approve(ctx context.Context, actor *identity.Actor, requestID id.EducationRequestID) (*models.Request, error)
	Reject(ctx context.Context, actor *identity.Actor, requestID id.EducationRequestID) (*models.Request, error)
	Latest(ctx context.Context, actor *identity.Actor) (*models.Request, error)
	ListMine(ctx context.Context, actor *identity.Actor) ([]*models.Request, error)
	Queue(ctx context.Context, actor *identity.Actor) (*service.VolunteerQueue, error)
	ListForDonor(ctx context.Context, actor *identity.Actor, statuses ...models.Status) ([]*models.Request, error)
	ListAll(ctx context.Context, actor *identity.Actor) ([]*models.Request, error)
}

type Handler struct {
	education Service
	logger    *slog.Logger
}

func New(education Service, logger *slog.Logger) *Handler {
	return &Handler{education: education, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/education", func(r chi.Router) {
		r.Get("/requests", h.handleListAll)
		r.Post("/requests", h.handleSubmit)
		r.Get("/requests/mine", h.handleListMine)
		r.Get("/requests/latest", h.handleLatest)
		r.Post("/requests/{requestID}/forward", h.handleForward)
		r.Post("/requests/{requestID}/approve", h.handleDecision(h.education.Approve, "approve"))
		r.Post("/requests/{requestID}/reject", h.handleDecision(h.education.Reject, "reject"))
		r.Get("/queue", h.handleQueue)
		r.Get("/donor/requests", h.handleDonorRequests)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	created, err := h.education.Submit(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, r, "submit education request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleForward(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseEducationRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ForwardRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	forwarded, err := h.education.Forward(r.Context(), actor, requestID, &req)
	if err != nil {
		h.writeError(w, r, "forward education request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, forwarded)
}

type decideFunc func(ctx context.Context, actor *identity.Actor, requestID id.EducationRequestID) (*models.Request, error)

func (h *Handler) handleDecision(decide decideFunc, op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := id.ParseEducationRequestID(chi.URLParam(r, "requestID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		actor, _ := gate.ActorFrom(r.Context())
		decided, err := decide(r.Context(), actor, requestID)
		if err != nil {
			h.writeError(w, r, op+" education request", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, decided)
	}
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	latest, err := h.education.Latest(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "latest education request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, latest)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	mine, err := h.education.ListMine(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list own education requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": mine})
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	queue, err := h.education.Queue(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "volunteer queue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, queue)
}

func (h *Handler) handleDonorRequests(w http.ResponseWriter, r *http.Request) {
	var statuses []models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		statuses = append(statuses, st)
	}
	actor, _ := gate.ActorFrom(r.Context())
	out, err := h.education.ListForDonor(r.Context(), actor, statuses...)
	if err != nil {
		h.writeError(w, r, "list donor requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	out, err := h.education.ListAll(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list education requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
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
