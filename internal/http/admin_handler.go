package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/backend"
	"github.com/fjod/go_storefront/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const multipartMemory = 8 << 20

var errInvalidForm = errors.New("invalid product form")

type AdminProductHandler struct {
	admin   AdminBackend
	catalog CatalogService
	timeout time.Duration
}

func NewAdminProductHandler(admin AdminBackend, c CatalogService, timeout time.Duration) *AdminProductHandler {
	return &AdminProductHandler{admin: admin, catalog: c, timeout: timeout}
}

// POST /api/v1/admin/products (multipart/form-data)
func (h *AdminProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	form, cleanup, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	if err := h.admin.CreateProduct(ctx, form); err != nil {
		handleError(w, r, err)
		return
	}
	h.refreshCatalog(ctx, r)
	respondJSON(w, r, http.StatusCreated, map[string]bool{"success": true})
}

// PUT /api/v1/admin/products/{id} (multipart/form-data)
func (h *AdminProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	form, cleanup, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	if err := h.admin.UpdateProduct(ctx, chi.URLParam(r, "id"), form); err != nil {
		handleError(w, r, err)
		return
	}
	h.refreshCatalog(ctx, r)
	respondJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// DELETE /api/v1/admin/products/{id}
func (h *AdminProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.admin.DeleteProduct(ctx, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	h.refreshCatalog(ctx, r)
	w.WriteHeader(http.StatusNoContent)
}

// refreshCatalog reloads after a product change. The change itself already
// succeeded, so a failed reload is only logged.
func (h *AdminProductHandler) refreshCatalog(ctx context.Context, r *http.Request) {
	if err := h.catalog.Reload(ctx); err != nil {
		observability.FromContext(r.Context()).Warn("catalog reload after admin change failed", zap.Error(err))
	}
}

func (h *AdminProductHandler) parseForm(w http.ResponseWriter, r *http.Request) (backend.ProductForm, func(), bool) {
	noop := func() {}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(w, r, err)
		} else {
			respondError(w, r, http.StatusBadRequest, "invalid_request", "multipart form expected")
		}
		return backend.ProductForm{}, noop, false
	}
	form, err := productForm(r.MultipartForm)
	cleanup := func() {
		for _, img := range form.Images {
			if c, ok := img.Data.(io.Closer); ok {
				_ = c.Close()
			}
		}
		_ = r.MultipartForm.RemoveAll()
	}
	if err != nil {
		cleanup()
		respondError(w, r, http.StatusBadRequest, "invalid_product", err.Error())
		return backend.ProductForm{}, noop, false
	}
	return form, cleanup, true
}

func productForm(mf *multipart.Form) (backend.ProductForm, error) {
	value := func(key string) string {
		if v := mf.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	form := backend.ProductForm{
		Name:           value("name"),
		Category:       value("category"),
		Description:    value("description"),
		Sizes:          listValue(mf.Value["sizes"]),
		Colors:         listValue(mf.Value["colors"]),
		ExistingImages: listValue(mf.Value["existingImages"]),
	}
	if form.Name == "" {
		return form, fmt.Errorf("%w: name is required", errInvalidForm)
	}

	price, err := decimal.NewFromString(value("price"))
	if err != nil || price.IsNegative() {
		return form, fmt.Errorf("%w: price must be a non-negative number", errInvalidForm)
	}
	form.Price = price

	if raw := value("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return form, fmt.Errorf("%w: stock must be a non-negative integer", errInvalidForm)
		}
		form.Stock = stock
	}

	for _, fh := range mf.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return form, fmt.Errorf("%w: open %s: %v", errInvalidForm, fh.Filename, err)
		}
		form.Images = append(form.Images, backend.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        f,
		})
	}
	return form, nil
}

// listValue accepts repeated fields as well as one comma separated field.
func listValue(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
