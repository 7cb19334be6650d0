package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	"sankalp/internal/legal/models"
	"sankalp/internal/platform/templates"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
)

type Service interface {
	RequestCamp(ctx context.Context, actor *identity.Actor, req *models.CampRequest) (*models.Camp, error)
	Decide(ctx context.Context, actor *identity.Actor, campID id.LegalCampID, req *models.DecisionRequest) (*models.Camp, error)
	ViewLink(ctx context.Context, campID id.LegalCampID) (*models.LinkResult, error)
	ApproveViaLink(ctx context.Context, campID id.LegalCampID) (*models.LinkResult, error)
	Schedule(ctx context.Context, actor *identity.Actor, campID id.LegalCampID, req *models.ScheduleRequest) (*models.Camp, error)
	Complete(ctx context.Context, actor *identity.Actor, campID id.LegalCampID) (*models.Camp, error)
	ListForRole(ctx context.Context, actor *identity.Actor) ([]*models.Camp, error)
}

type PageRenderer interface {
	Page(p templates.Page) ([]byte, error)
}

type Handler struct {
	legal  Service
	pages  PageRenderer
	logger *slog.Logger
}

func New(legal Service, pages PageRenderer, logger *slog.Logger) *Handler {
	return &Handler{legal: legal, pages: pages, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/legal/camps", h.handleList)
	r.Post("/legal/camps", h.handleRequest)
	r.Post("/legal/camps/{campID}/decision", h.handleDecide)
	r.Post("/legal/camps/{campID}/schedule", h.handleSchedule)
	r.Post("/legal/camps/{campID}/complete", h.handleComplete)
}

// RegisterPublic mounts the approval link mailed to Advocates. Anyone
// holding the link can approve.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/legal/camps/{campID}/approve", h.handleViewLink)
	r.Post("/legal/camps/{campID}/approve", h.handleApproveLink)
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CampRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	camp, err := h.legal.RequestCamp(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, r, "request legal camp", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, camp)
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	campID, err := id.ParseLegalCampID(chi.URLParam(r, "campID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.DecisionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	camp, err := h.legal.Decide(r.Context(), actor, campID, &req)
	if err != nil {
		h.writeError(w, r, "decide legal camp", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, camp)
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	campID, err := id.ParseLegalCampID(chi.URLParam(r, "campID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ScheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	camp, err := h.legal.Schedule(r.Context(), actor, campID, &req)
	if err != nil {
		h.writeError(w, r, "schedule legal camp", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, camp)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	campID, err := id.ParseLegalCampID(chi.URLParam(r, "campID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	camp, err := h.legal.Complete(r.Context(), actor, campID)
	if err != nil {
		h.writeError(w, r, "complete legal camp", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, camp)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	camps, err := h.legal.ListForRole(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list legal camps", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"camps": camps})
}

func (h *Handler) handleViewLink(w http.ResponseWriter, r *http.Request) {
	h.serveLink(w, r, h.legal.ViewLink)
}

func (h *Handler) handleApproveLink(w http.ResponseWriter, r *http.Request) {
	h.serveLink(w, r, h.legal.ApproveViaLink)
}

func (h *Handler) serveLink(w http.ResponseWriter, r *http.Request, fn func(context.Context, id.LegalCampID) (*models.LinkResult, error)) {
	campID, err := id.ParseLegalCampID(chi.URLParam(r, "campID"))
	if err != nil {
		h.writeErrorPage(w, r, err)
		return
	}
	result, err := fn(r.Context(), campID)
	if err != nil {
		h.writeErrorPage(w, r, err)
		return
	}
	h.writePage(w, r, http.StatusOK, linkPage(result, r.URL.Path))
}

func linkPage(res *models.LinkResult, approvePath string) templates.Page {
	camp := res.Camp
	p := templates.Page{
		Title:   "Legal camp " + camp.Title,
		Heading: camp.Title,
		Fields: []templates.Field{
			{Label: "Category", Value: camp.Category.Label()},
			{Label: "Location", Value: camp.Location},
			{Label: "Proposed date", Value: id.FormatDate(&camp.ProposedDate)},
			{Label: "Status", Value: string(camp.Status)},
		},
	}
	switch {
	case res.ApprovedNow:
		p.Tone, p.Message = "success", "The camp has been approved. The volunteer has been notified."
	case res.AlreadyApproved:
		p.Tone, p.Message = "info", "This camp has already been approved."
	case camp.Status != models.StatusPending:
		p.Tone, p.Message = "warning", "This camp has already been "+strings.ToLower(string(camp.Status))+"."
	default:
		p.Message = "Review the camp below and confirm to approve it."
		p.Confirm = &templates.Action{Label: "Approve camp", URL: approvePath}
	}
	return p
}

func (h *Handler) writeErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal && de.Code != dErrors.CodeInvariantViolation {
		status = httputil.StatusFor(de.Code)
		message = de.Message
	} else {
		h.logger.ErrorContext(r.Context(), "legal approval link failed",
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
	}
	h.writePage(w, r, status, templates.Page{Title: "Legal camp", Heading: "Legal camp", Message: message, Tone: "warning"})
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, status int, page templates.Page) {
	body, err := h.pages.Page(page)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteHTML(w, status, body)
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
