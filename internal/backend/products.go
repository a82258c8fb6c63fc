package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// ListProducts accepts {products: [...]}, {Products: [...]} or a bare array.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products"}, &raw); err != nil {
		return nil, err
	}
	return decodeProductList(raw)
}

func decodeProductList(raw json.RawMessage) ([]domain.Product, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.Product{}, nil
	}

	if raw[0] == '[' {
		var products []domain.Product
		if err := json.Unmarshal(raw, &products); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
		return products, nil
	}

	// encoding/json matches keys case-insensitively, so this covers "Products" too
	var wrapped struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	if wrapped.Products == nil {
		return []domain.Product{}, nil
	}
	return wrapped.Products, nil
}

// GetProduct accepts {product: {...}}, {products: {...}} or a bare object.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var raw json.RawMessage
	path := "/products/" + url.PathEscape(id)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &raw); err != nil {
		return nil, err
	}
	return decodeProduct(raw)
}

func decodeProduct(raw json.RawMessage) (*domain.Product, error) {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}

	body := []byte(raw)
	for _, key := range []string{"product", "products"} {
		nested := bytes.TrimSpace(wrapped[key])
		if len(nested) > 0 && nested[0] == '{' {
			body = nested
			break
		}
	}

	var p domain.Product
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	if p.ID == "" {
		return nil, &StatusError{Status: http.StatusNotFound, Message: "product not found"}
	}
	return &p, nil
}

// ImageUpload is one file part of an admin product form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// ProductForm is the admin create/update payload, sent as multipart form data.
type ProductForm struct {
	Name           string
	Price          decimal.Decimal
	Category       string
	Description    string
	Stock          int
	Sizes          []string
	Colors         []string
	ExistingImages []string
	Images         []ImageUpload
}

func (c *Client) CreateProduct(ctx context.Context, form ProductForm) error {
	req, err := multipartRequest(http.MethodPost, "/products", form, false)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, form ProductForm) error {
	req, err := multipartRequest(http.MethodPut, "/products/"+url.PathEscape(id), form, true)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/products/" + url.PathEscape(id)}, nil)
}

func multipartRequest(method, path string, form ProductForm, withExisting bool) (request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	sizes, err := json.Marshal(nonNil(form.Sizes))
	if err != nil {
		return request{}, err
	}
	colors, err := json.Marshal(nonNil(form.Colors))
	if err != nil {
		return request{}, err
	}

	fields := [][2]string{
		{"name", form.Name},
		{"price", form.Price.String()},
		{"category", form.Category},
		{"description", form.Description},
		{"stock", fmt.Sprint(form.Stock)},
		{"sizes", string(sizes)},
		{"colors", string(colors)},
	}
	if withExisting {
		existing, err := json.Marshal(nonNil(form.ExistingImages))
		if err != nil {
			return request{}, err
		}
		fields = append(fields, [2]string{"existingImages", string(existing)})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return request{}, fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}

	for _, img := range form.Images {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, img.Filename))
		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			return request{}, fmt.Errorf("create image part: %w", err)
		}
		if _, err := io.Copy(part, img.Data); err != nil {
			return request{}, fmt.Errorf("copy image %s: %w", img.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return request{}, fmt.Errorf("close multipart form: %w", err)
	}
	return request{
		method:      method,
		path:        path,
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
