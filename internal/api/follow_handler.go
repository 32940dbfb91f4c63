package api

import (
	"net/http"

	"blogflow/internal/api/middleware"
	"blogflow/internal/api/response"
	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

type FollowHandler struct {
	service domain.FollowService
	logger  logger.Logger
}

func NewFollowHandler(service domain.FollowService, logger logger.Logger) *FollowHandler {
	return &FollowHandler{
		service: service,
		logger:  logger,
	}
}

func (h *FollowHandler) target(w http.ResponseWriter, r *http.Request) (int64, error) {
	var req followRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return 0, err
	}
	if req.FollowedUserID == nil {
		return 0, domain.Validation("followedUserId is required.")
	}
	return *req.FollowedUserID, nil
}

func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	targetID, err := h.target(w, r)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	if err := h.service.Follow(r.Context(), principal.UserID, targetID); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.Message(w, http.StatusCreated, "Followed successfully.")
}

func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	targetID, err := h.target(w, r)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	if err := h.service.Unfollow(r.Context(), principal.UserID, targetID); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.Message(w, http.StatusOK, "Unfollowed successfully.")
}

func (h *FollowHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/user/follow", requireAuth(h.Follow))
	mux.HandleFunc("DELETE /api/user/unfollow", requireAuth(h.Unfollow))
}
