package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/middleware"
	"github.com/hr-data-api/internal/service"
)

type AuthHandler struct {
	responder
	authService service.AuthService
	tokenTTL    time.Duration
}

func NewAuthHandler(authService service.AuthService, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		responder:   newResponder(logger),
		authService: authService,
		tokenTTL:    tokenTTL,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, token, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, h.tokenResponse(user, token))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.tokenResponse(user, token))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	user, err := h.authService.Me(r.Context(), principal.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) tokenResponse(user *domain.User, token string) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL / time.Second),
		User:        user,
	}
}
