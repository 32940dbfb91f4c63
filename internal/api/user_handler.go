package api

import (
	"net/http"

	"blogflow/internal/api/middleware"
	"blogflow/internal/api/response"
	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

type UserHandler struct {
	service domain.UserService
	logger  logger.Logger
}

func NewUserHandler(service domain.UserService, logger logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	user, err := h.service.Register(r.Context(), domain.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
	})
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.Created(w, toRegisterResponse(user))
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	pair, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.OK(w, toLoginResponse(pair))
}

func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.OK(w, toLoginResponse(pair))
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.OK(w, toProfileResponse(profile))
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	userID, err := pathID(r, "userId")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), userID, principal.UserID, domain.ProfilePatch{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
	})
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SuccessWithMessage(toProfileResponse(profile), "Profile updated."))
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/user/register", h.Register)
	mux.HandleFunc("POST /api/user/login", h.Login)
	mux.HandleFunc("POST /api/user/refresh", h.Refresh)
	mux.HandleFunc("GET /api/user/{userId}", h.GetProfile)
	mux.HandleFunc("PUT /api/user/{userId}", requireAuth(h.UpdateProfile))
}
