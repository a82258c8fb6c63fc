package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fjod/go_storefront/internal/backend"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/observability"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/fjod/go_storefront/internal/session"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		observability.FromContext(r.Context()).Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: message, Code: code})
}

// decodeJSON reads a JSON body. The body size is capped by the router.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		respondError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
	case errors.Is(err, io.EOF):
		respondError(w, r, http.StatusBadRequest, "invalid_request", "empty JSON body")
	default:
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
	}
	return false
}

// handleError converts service and backend errors to HTTP answers.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	message := "internal server error"

	var statusErr *backend.StatusError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status, code, message = http.StatusRequestEntityTooLarge, "request_too_large", "request body too large"
	case errors.Is(err, checkout.ErrInvalidShipping):
		status, code, message = http.StatusBadRequest, "invalid_shipping_info", err.Error()
	case errors.Is(err, checkout.ErrEmptyCart):
		status, code, message = http.StatusBadRequest, "empty_cart", err.Error()
	case errors.Is(err, orders.ErrUnknownRange):
		status, code, message = http.StatusBadRequest, "invalid_range", err.Error()
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		status, code, message = http.StatusConflict, "checkout_in_progress", err.Error()
	case errors.Is(err, catalog.ErrSuperseded):
		status, code, message = http.StatusConflict, "superseded", err.Error()
	case errors.Is(err, session.ErrNotLoggedIn):
		status, code, message = http.StatusUnauthorized, "unauthorized", err.Error()
	case errors.Is(err, backend.ErrRejected):
		status, code, message = http.StatusUnprocessableEntity, "rejected", err.Error()
	case errors.Is(err, backend.ErrUnavailable), errors.Is(err, catalog.ErrClosed):
		status, code, message = http.StatusServiceUnavailable, "service_unavailable", err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, code, message = http.StatusGatewayTimeout, "timeout", "request timed out"
	case errors.As(err, &statusErr):
		status, code, message = backendStatus(statusErr)
	}

	logger := observability.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	respondError(w, r, status, code, message)
}

func backendStatus(err *backend.StatusError) (int, string, string) {
	switch err.Status {
	case http.StatusBadRequest:
		return http.StatusBadRequest, "invalid_argument", err.Message
	case http.StatusUnauthorized:
		return http.StatusUnauthorized, "unauthenticated", err.Message
	case http.StatusForbidden:
		return http.StatusForbidden, "permission_denied", err.Message
	case http.StatusNotFound:
		return http.StatusNotFound, "not_found", err.Message
	case http.StatusConflict:
		return http.StatusConflict, "already_exists", err.Message
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "rate_limit_exceeded", err.Message
	}
	if err.Status >= http.StatusInternalServerError {
		return http.StatusBadGateway, "backend_error", err.Message
	}
	return http.StatusBadGateway, "backend_error", err.Error()
}
