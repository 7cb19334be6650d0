package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sankalp/internal/article/models"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	"sankalp/pkg/platform/httputil"
	request "sankalp/pkg/platform/middleware/request"
)

type Service interface {
	Publish(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain, req *models.ArticleRequest) (*models.Article, error)
	Edit(ctx context.Context, actor *identity.Actor, articleID id.ArticleID, req *models.ArticleRequest) (*models.Article, error)
	Delete(ctx context.Context, actor *identity.Actor, articleID id.ArticleID) error
	Get(ctx context.Context, actor *identity.Actor, articleID id.ArticleID) (*models.Article, error)
	List(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain, limit int) ([]*models.Article, error)
	ListMine(ctx context.Context, actor *identity.Actor, domain id.AssistanceDomain) ([]*models.Article, error)
}

type Handler struct {
	articles Service
	logger   *slog.Logger
}

func New(articles Service, logger *slog.Logger) *Handler {
	return &Handler{articles: articles, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/articles", func(r chi.Router) {
		r.Get("/{domain}", h.handleList)
		r.Post("/{domain}", h.handlePublish)
		r.Get("/{domain}/mine", h.handleListMine)
		r.Get("/{domain}/{articleID}", h.handleGet)
		r.Put("/{domain}/{articleID}", h.handleEdit)
		r.Delete("/{domain}/{articleID}", h.handleDelete)
	})
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	domain, err := id.ParseAssistanceDomain(chi.URLParam(r, "domain"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ArticleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	a, err := h.articles.Publish(r.Context(), actor, domain, &req)
	if err != nil {
		h.writeError(w, r, "publish article", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	domain, err := id.ParseAssistanceDomain(chi.URLParam(r, "domain"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
	}
	actor, _ := gate.ActorFrom(r.Context())
	articles, err := h.articles.List(r.Context(), actor, domain, limit)
	if err != nil {
		h.writeError(w, r, "list articles", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	domain, err := id.ParseAssistanceDomain(chi.URLParam(r, "domain"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	articles, err := h.articles.ListMine(r.Context(), actor, domain)
	if err != nil {
		h.writeError(w, r, "list own articles", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	domain, articleID, err := parsePath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	a, err := h.articles.Get(r.Context(), actor, articleID)
	if err != nil {
		h.writeError(w, r, "get article", err)
		return
	}
	if a.Domain != domain {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "article not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	_, articleID, err := parsePath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ArticleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	a, err := h.articles.Edit(r.Context(), actor, articleID, &req)
	if err != nil {
		h.writeError(w, r, "edit article", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	_, articleID, err := parsePath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := gate.ActorFrom(r.Context())
	if err := h.articles.Delete(r.Context(), actor, articleID); err != nil {
		h.writeError(w, r, "delete article", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parsePath(r *http.Request) (id.AssistanceDomain, id.ArticleID, error) {
	domain, err := id.ParseAssistanceDomain(chi.URLParam(r, "domain"))
	if err != nil {
		return "", 0, err
	}
	articleID, err := id.ParseArticleID(chi.URLParam(r, "articleID"))
	if err != nil {
		return "", 0, err
	}
	return domain, articleID, nil
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
