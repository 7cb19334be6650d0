package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	"sankalp/internal/medical/models"
	"sankalp/internal/medical/service"
	"sankalp/internal/platform/templates"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
)

type Service interface {
	CreateHospital(ctx context.Context, actor *identity.Actor, req *models.HospitalRequest) (*models.Hospital, error)
	ListHospitals(ctx context.Context, actor *identity.Actor) ([]*models.Hospital, error)
	RequestCamp(ctx context.Context, actor *identity.Actor, req *models.CampRequest) (*models.Camp, error)
	Preview(ctx context.Context, token id.ApprovalToken) (*models.Response, error)
	Respond(ctx context.Context, token id.ApprovalToken, outcome string) (*models.Response, error)
	ListForActor(ctx context.Context, actor *identity.Actor) ([]*models.Camp, error)
	ListUpcoming(ctx context.Context, actor *identity.Actor) ([]*models.Camp, error)
	Get(ctx context.Context, actor *identity.Actor, campID id.MedicalCampID) (*models.Camp, error)
}

type PageRenderer interface {
	Page(p templates.Page) ([]byte, error)
}

type Handler struct {
	medical Service
	pages   PageRenderer
	logger  *slog.Logger
}

func New(medical Service, pages PageRenderer, logger *slog.Logger) *Handler {
	return &Handler{medical: medical, pages: pages, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/medical", func(r chi.Router) {
		r.Get("/hospitals", h.handleListHospitals)
		r.Post("/hospitals", h.handleCreateHospital)
		r.Get("/camps", h.handleList)
		r.Post("/camps", h.handleRequest)
		r.Get("/camps/upcoming", h.handleUpcoming)
		r.Get("/camps/{campID}", h.handleGet)
	})
}

// RegisterPublic mounts the hospital response link. The token in the path
// is the only credential.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/medical/respond/{token}", h.handlePreview)
	r.Post("/medical/respond/{token}", h.handleRespond)
}

func (h *Handler) handleCreateHospital(w http.ResponseWriter, r *http.Request) {
	var req models.HospitalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	hospital, err := h.medical.CreateHospital(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, r, "create hospital", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, hospital)
}

func (h *Handler) handleListHospitals(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	hospitals, err := h.medical.ListHospitals(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list hospitals", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"hospitals": hospitals})
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CampRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	camp, err := h.medical.RequestCamp(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, r, "request medical camp", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, camp)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	camps, err := h.medical.ListForActor(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list medical camps", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"camps": camps})
}

func (h *Handler) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	actor, _ := gate.ActorFrom(r.Context())
	camps, err := h.medical.ListUpcoming(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, "list upcoming medical camps", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"camps": camps})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	campID, err := id.ParseMedicalCampID(chi.URLParam(r, "campID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	camp, err := h.medical.Get(r.Context(), actor, campID)
	if err != nil {
		h.writeError(w, r, "get medical camp", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, camp)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	token, err := id.ParseApprovalToken(chi.URLParam(r, "token"))
	if err != nil {
		h.writeErrorPage(w, r, err)
		return
	}
	resp, err := h.medical.Preview(r.Context(), token)
	if err != nil {
		h.writeErrorPage(w, r, err)
		return
	}
	page := responsePage(resp)
	if resp.Camp.Status != models.StatusPending {
		page.Tone, page.Message = "info", service.AlreadyResponded
		h.writePage(w, r, http.StatusOK, page)
		return
	}
	outcome := r.URL.Query().Get("status")
	to, err := models.ParseResponse(outcome)
	if err != nil {
		h.writeErrorPage(w, r, err)
		return
	}
	label := "Approve and schedule"
	if to == models.StatusRejected {
		label = "Reject request"
	}
	page.Message = "Review the request below and confirm your response."
	page.Confirm = &templates.Action{Label: label, URL: r.URL.RequestURI()}
	h.writePage(w, r, http.StatusOK, page)
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	token, err := id.ParseApprovalToken(chi.URLParam(r, "token"))
	if err != nil {
		h.writeErrorPage(w, r, err)
		return
	}
	resp, err := h.medical.Respond(r.Context(), token, r.URL.Query().Get("status"))
	if err != nil {
		h.writeErrorPage(w, r, err)
		return
	}
	page := responsePage(resp)
	page.Tone, page.Message = "success", service.Outcome(resp.Camp.Status)
	h.writePage(w, r, http.StatusOK, page)
}

func responsePage(resp *models.Response) templates.Page {
	camp := resp.Camp
	fields := []templates.Field{
		{Label: "Location", Value: camp.Location},
		{Label: "Date", Value: id.FormatDate(&camp.Date)},
	}
	if camp.Time != "" {
		fields = append(fields, templates.Field{Label: "Time", Value: camp.Time})
	}
	fields = append(fields,
		templates.Field{Label: "Contact person", Value: camp.ContactPerson},
		templates.Field{Label: "Status", Value: string(camp.Status)},
	)
	return templates.Page{
		Title:   "Medical camp request",
		Heading: resp.Hospital.Name,
		Fields:  fields,
	}
}

func (h *Handler) writeErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal && de.Code != dErrors.CodeInvariantViolation {
		status = httputil.StatusFor(de.Code)
		message = de.Message
	} else {
		h.logger.ErrorContext(r.Context(), "medical response link failed",
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
	}
	h.writePage(w, r, status, templates.Page{Title: "Medical camp request", Heading: "Medical camp request", Message: message, Tone: "warning"})
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
