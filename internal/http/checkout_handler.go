package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/checkout"
)

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(svc CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, timeout: timeout}
}

// GET /api/v1/checkout
func (h *CheckoutHandler) Preview(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.checkout.Preview())
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req checkout.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.checkout.Submit(ctx, req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, res)
}

// GET /api/v1/checkout/status
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.checkout.Status())
}
