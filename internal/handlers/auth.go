package handlers

import (
	"log/slog"
	"net/http"

	"github.com/florancealade/zephyryx-storage-keep/internal/services"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

// AuthHandler serves account registration and login.
type AuthHandler struct {
	service services.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(s services.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// Register creates an account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		badRequest(w, "username and password are required")
		return
	}

	if err := h.service.Register(r.Context(), req.Username, req.Password); err != nil {
		slog.InfoContext(r.Context(), "[AuthHandler] register failed", "username", req.Username, "error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.OKResponse{OK: true})
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		badRequest(w, "username and password are required")
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}
