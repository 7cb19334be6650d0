package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	"sankalp/internal/platform/templates"
	"sankalp/internal/womensupport/models"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
)

type Service interface {
	RequestCampaign(ctx context.Context, actor *identity.Actor, req *models.CampaignRequest) (*models.Campaign, error)
	Decide(ctx context.Context, actor *identity.Actor, campaignID id.CampaignID, req *models.DecisionRequest) (*models.Campaign, error)
	ViewLink(ctx context.Context, campaignID id.CampaignID) (*models.LinkResult, error)
	ApproveViaLink(ctx context.Context, campaignID id.CampaignID, actor *identity.Actor) (*models.LinkResult, error)
	RejectViaLink(ctx context.Context, campaignID id.CampaignID) (*models.LinkResult, error)
	Schedule(ctx context.Context, actor *identity.Actor, campaignID id.CampaignID, req *models.ScheduleRequest) (*models.Campaign, error)
	ListForRole(ctx context.Context, actor *identity.Actor) ([]*models.Campaign, error)
}

type PageRenderer interface {
	Page(p templates.Page) ([]byte, error)
}

type Handler struct {
	campaigns Service
	pages     PageRenderer
	logger    *slog.Logger
}

func New(campaigns Service, pages PageRenderer, logger *slog.Logger) *Handler {
	return &Handler{campaigns: campaigns, pages: pages, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/women-support/campaigns", h.handleList)
	r.Post("/women-support/campaigns", h.handleRequest)
	r.Post("/women-support/campaigns/{campaignID}/decision", h.handleDecide)
	r.Post("/women-support/campaigns/{campaignID}/schedule", h.handleSchedule)
}

// RegisterPublic mounts the approve and reject links mailed to the
// Supporter. The router should resolve an optional actor so a signed-in
// Supporter is recorded as approver.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/women-support/campaigns/{campaignID}/approve", h.handleViewLink("approve"))
	r.Post("/women-support/campaigns/{campaignID}/approve", h.handleApproveLink)
	r.Get("/women-support/campaigns/{campaignID}/reject", h.handleViewLink("reject"))
	r.Post("/women-support/campaigns/{campaignID}/reject", h.handleRejectLink)
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CampaignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	campaign, err := h.campaigns.RequestCampaign(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, r, "request campaign", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, campaign)
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
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
	campaign, err := h.campaigns.Decide(r.Context(), actor, campaignID, &req)
	if err != nil {
		h.writeError(w, r, "decide campaign", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, campaign)
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
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
	campaign, err := h.campaigns.Schedule(r.Context(), actor, campaignID, &req)
	if err != nil {
		h.writeError(w, r, "schedule campaign", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, campaign)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	campaigns, err := h.campaigns.ListForRole(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list campaigns", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

func (h *Handler) handleViewLink(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveLink(w, r, action, h.campaigns.ViewLink)
	}
}

func (h *Handler) handleApproveLink(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	h.serveLink(w, r, "approve", func(ctx context.Context, campaignID id.CampaignID) (*models.LinkResult, error) {
		return h.campaigns.ApproveViaLink(ctx, campaignID, actor)
	})
}

func (h *Handler) handleRejectLink(w http.ResponseWriter, r *http.Request) {
	h.serveLink(w, r, "reject", h.campaigns.RejectViaLink)
}

func (h *Handler) serveLink(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, id.CampaignID) (*models.LinkResult, error)) {
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		h.writeErrorPage(w, r, err)
		return
	}
	result, err := fn(r.Context(), campaignID)
	if err != nil {
		h.writeErrorPage(w, r, err)
		return
	}
	h.writePage(w, r, http.StatusOK, linkPage(result, action, r.URL.Path))
}

func linkPage(res *models.LinkResult, action, path string) templates.Page {
	c := res.Campaign
	status := strings.ToLower(string(c.Status))
	p := templates.Page{
		Title:   "Campaign " + c.Title,
		Heading: c.Title,
		Fields: []templates.Field{
			{Label: "Location", Value: c.Location},
			{Label: "Proposed date", Value: id.FormatDate(&c.ProposedDate)},
			{Label: "Status", Value: string(c.Status)},
		},
	}
	switch {
	case res.Changed && c.Status == models.StatusApproved:
		p.Tone, p.Message = "success", "Campaign approved successfully."
	case res.Changed:
		p.Tone, p.Message = "warning", "Campaign rejected."
	case c.Status != models.StatusPending:
		p.Tone, p.Message = "info", "Campaign is already "+status+"."
	default:
		label := "Approve campaign"
		if action == "reject" {
			label = "Reject campaign"
		}
		p.Message = "Review the campaign below and confirm."
		p.Confirm = &templates.Action{Label: label, URL: path}
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
		h.logger.ErrorContext(r.Context(), "campaign link failed",
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
	}
	h.writePage(w, r, status, templates.Page{Title: "Campaign", Heading: "Campaign", Message: message, Tone: "warning"})
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
