package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/backend"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalog  CatalogService
	products ProductBackend
	timeout  time.Duration
}

func NewCatalogHandler(c CatalogService, products ProductBackend, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: c, products: products, timeout: timeout}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	State    catalog.State    `json:"state"`
}

// GET /api/v1/catalog
func (h *CatalogHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.catalog.Status())
}

// POST /api/v1/catalog/reload
func (h *CatalogHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.Reload(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.catalog.Status())
}

// GET /api/v1/products?search=&category=&sort=
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := catalog.View(h.catalog.Products(), catalog.Criteria{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     catalog.ParseSort(q.Get("sort")),
	})
	respondJSON(w, r, http.StatusOK, ProductsResponse{
		Products: view,
		Total:    len(view),
		State:    h.catalog.Status().State,
	})
}

// GET /api/v1/products/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string][]string{
		"categories": catalog.Categories(h.catalog.Products()),
	})
}

// GET /api/v1/products/{id}
// The product page always asks the backend; the cached copy answers only
// when the backend cannot.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	product, err := h.products.GetProduct(ctx, id)
	if err != nil {
		if cached, ok := h.catalog.Product(id); ok && !isNotFound(err) {
			respondJSON(w, r, http.StatusOK, cached)
			return
		}
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, product)
}

func isNotFound(err error) bool {
	var statusErr *backend.StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound
}
