package api

import (
	"net/http"

	"blogflow/internal/api/middleware"
	"blogflow/internal/api/response"
	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

type ArticleHandler struct {
	service domain.ArticleService
	logger  logger.Logger
}

func NewArticleHandler(service domain.ArticleService, logger logger.Logger) *ArticleHandler {
	return &ArticleHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	var req createArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	article, err := h.service.Create(r.Context(), principal.UserID, domain.CreateArticleInput{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Category: req.Category,
	})
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.Created(w, articleCreateResponse{
		ArticleID:  articleID(article),
		Title:      article.Title,
		CreateTime: epoch(article.CreatedAt),
	})
}

func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), queryInt(r, "page"), queryInt(r, "pageSize"))
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.OK(w, toArticleList(page))
}

func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "articleId")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	article, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.OK(w, toArticleDetail(article))
}

func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	id, err := pathID(r, "articleId")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	var req updateArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	article, err := h.service.Update(r.Context(), id, principal.UserID, domain.ArticlePatch{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Category: req.Category,
	})
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.OK(w, articleUpdateResponse{
		ArticleID:  articleID(article),
		UpdateTime: epoch(article.UpdatedAt),
	})
}

func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	id, err := pathID(r, "articleId")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, principal.UserID); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.Message(w, http.StatusOK, "Article deleted.")
}

func (h *ArticleHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/article/create", requireAuth(h.Create))
	mux.HandleFunc("GET /api/article/list", h.List)
	mux.HandleFunc("GET /api/article/{articleId}", h.Get)
	mux.HandleFunc("PUT /api/article/{articleId}", requireAuth(h.Update))
	mux.HandleFunc("DELETE /api/article/{articleId}", requireAuth(h.Delete))
}
