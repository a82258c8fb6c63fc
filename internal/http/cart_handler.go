package http

import (
	"net/http"

	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	cart     CartStore
	products checkout.ProductLookup
}

func NewCartHandler(cart CartStore, products checkout.ProductLookup) *CartHandler {
	return &CartHandler{cart: cart, products: products}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

type CartResponseDTO struct {
	Items     map[string]map[string]int `json:"items"`
	LineItems []domain.LineItem         `json:"line_items"`
	Count     int                       `json:"count"`
	Total     decimal.Decimal           `json:"total"`
	// Changed is false when the operation was ignored, e.g. a debounced add.
	Changed bool `json:"changed"`
}

// respondCart reads the cart once so items, line items and totals agree.
func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request, status int, changed bool) {
	items := h.cart.Snapshot()
	lines := checkout.BuildLineItems(items, h.products)
	respondJSON(w, r, status, CartResponseDTO{
		Items:     domain.NewCartDocument(items).Items,
		LineItems: lines,
		Count:     items.Units(),
		Total:     checkout.Subtotal(lines),
		Changed:   changed,
	})
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, r, http.StatusOK, false)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Size == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_size", "size is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}

	changed := h.cart.AddItem(r.Context(), req.ProductID, req.Size, quantity, req.Color)
	status := http.StatusCreated
	if !changed {
		status = http.StatusOK
	}
	h.respondCart(w, r, status, changed)
}

// PUT /api/v1/cart/items/{product_id}
// A quantity of zero or less removes the variant.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Size == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_size", "size is required")
		return
	}

	changed := h.cart.UpdateQuantity(r.Context(), productID, req.Size, req.Color, req.Quantity)
	h.respondCart(w, r, http.StatusOK, changed)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	if !h.cart.RemoveItem(r.Context(), productID) {
		respondError(w, r, http.StatusNotFound, "not_found", "product is not in the cart")
		return
	}
	h.respondCart(w, r, http.StatusOK, true)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear(r.Context())
	h.respondCart(w, r, http.StatusOK, true)
}
