package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/backend"
)

type AuthHandler struct {
	sessions SessionManager
	accounts AccountBackend
	timeout  time.Duration
}

func NewAuthHandler(sessions SessionManager, accounts AccountBackend, timeout time.Duration) *AuthHandler {
	return &AuthHandler{sessions: sessions, accounts: accounts, timeout: timeout}
}

type ForgotPasswordRequestDTO struct {
	Email string `json:"email"`
}

type ResetPasswordRequestDTO struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (h *AuthHandler) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func credentialsValid(w http.ResponseWriter, r *http.Request, creds backend.Credentials) bool {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_credentials", "email and password are required")
		return false
	}
	return true
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var creds backend.Credentials
	if !decodeJSON(w, r, &creds) || !credentialsValid(w, r, creds) {
		return
	}
	state, err := h.sessions.Login(ctx, creds)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, state)
}

// POST /api/v1/auth/logout
// The local session is gone even when the backend call fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	if err := h.sessions.Logout(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.sessions.State())
}

// GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	state, err := h.sessions.Validate(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, state)
}

// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req backend.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_name", "name is required")
		return
	}
	if !credentialsValid(w, r, backend.Credentials{Email: req.Email, Password: req.Password}) {
		return
	}
	if err := h.accounts.Signup(ctx, req); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, map[string]bool{"success": true})
}

// POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req ForgotPasswordRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_email", "email is required")
		return
	}
	if err := h.accounts.ForgotPassword(ctx, strings.TrimSpace(req.Email)); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req ResetPasswordRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" || req.Password == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "code and password are required")
		return
	}
	if err := h.accounts.ResetPassword(ctx, req.Code, req.Password); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"updatedPassword": true})
}

// POST /api/v1/admin/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var creds backend.Credentials
	if !decodeJSON(w, r, &creds) || !credentialsValid(w, r, creds) {
		return
	}
	if err := h.sessions.AdminLogin(ctx, creds); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.sessions.State())
}

// POST /api/v1/admin/logout
func (h *AuthHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.AdminLogout()
	respondJSON(w, r, http.StatusOK, h.sessions.State())
}
