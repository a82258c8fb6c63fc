package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	orders   OrdersService
	sessions SessionManager
	admin    AdminBackend
	timeout  time.Duration
}

func NewOrdersHandler(svc OrdersService, sessions SessionManager, admin AdminBackend, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: svc, sessions: sessions, admin: admin, timeout: timeout}
}

type OrdersResponseDTO struct {
	Orders []domain.Order `json:"orders"`
	Total  int            `json:"total"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := h.sessions.RequireUser()
	if err != nil {
		handleError(w, r, err)
		return
	}

	list, err := h.orders.History(ctx, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, OrdersResponseDTO{Orders: list, Total: len(list)})
}

// GET /api/v1/admin/orders?range=all|last7|last30
func (h *OrdersHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rng, err := orders.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	list, err := h.orders.All(ctx, rng)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, OrdersResponseDTO{Orders: list, Total: len(list)})
}

// PUT /api/v1/admin/orders/{id}
func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var update domain.OrderUpdate
	if !decodeJSON(w, r, &update) {
		return
	}
	if update.ShippingInfo != nil {
		info := update.ShippingInfo.Normalize()
		update.ShippingInfo = &info
	}

	if err := h.admin.UpdateOrder(ctx, chi.URLParam(r, "id"), update); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// DELETE /api/v1/admin/orders/{id}
func (h *OrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.admin.DeleteOrder(ctx, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/admin/analytics
func (h *OrdersHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	metrics, err := h.orders.Analytics(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, metrics)
}
