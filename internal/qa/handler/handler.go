package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	"sankalp/internal/qa/models"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
)

type Service interface {
	Ask(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain, req *models.AskRequest) (*models.Question, error)
	Answer(ctx context.Context, actor *identity.Actor, questionID id.QuestionID, req *models.AnswerRequest) (*models.Question, error)
	List(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain, unansweredOnly bool) ([]*models.Question, error)
}

type Handler struct {
	qa     Service
	logger *slog.Logger
}

func New(qa Service, logger *slog.Logger) *Handler {
	return &Handler{qa: qa, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/qa", func(r chi.Router) {
		r.Post("/questions/{questionID}/answer", h.handleAnswer)
		r.Get("/{domain}/questions", h.handleList)
		r.Post("/{domain}/questions", h.handleAsk)
	})
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	domain, err := id.ParseAssistanceDomain(chi.URLParam(r, "domain"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.AskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	q, err := h.qa.Ask(r.Context(), actor, domain, &req)
	if err != nil {
		h.writeError(w, r, "ask question", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, q)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	questionID, err := id.ParseQuestionID(chi.URLParam(r, "questionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.AnswerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	q, err := h.qa.Answer(r.Context(), actor, questionID, &req)
	if err != nil {
		h.writeError(w, r, "answer question", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	domain, err := id.ParseAssistanceDomain(chi.URLParam(r, "domain"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	unanswered := false
	if raw := r.URL.Query().Get("unanswered"); raw != "" {
		if unanswered, err = strconv.ParseBool(raw); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unanswered must be true or false"))
			return
		}
	}
	actor, _ := gate.ActorFrom(r.Context())
	questions, err := h.qa.List(r.Context(), actor, domain, unanswered)
	if err != nil {
		h.writeError(w, r, "list questions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"questions": questions})
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
