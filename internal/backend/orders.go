package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fjod/go_storefront/internal/domain"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

// CreateOrder posts the order. The backend must answer 2xx with success=true.
func (c *Client) CreateOrder(ctx context.Context, order domain.OrderRequest, idempotencyKey string) (*domain.Order, error) {
	req, err := jsonRequest(http.MethodPost, "/orders", order)
	if err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		req.header = http.Header{IdempotencyHeader: []string{idempotencyKey}}
	}

	var resp struct {
		envelope
		Order *domain.Order `json:"order"`
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.requireSuccess("order failed"); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return &domain.Order{}, nil
	}
	return resp.Order, nil
}

// UpdateStock decrements stock for the given rows. Rows without a backend
// id or with a non-positive quantity are skipped. When nothing is left the
// call fails with ErrNoValidItems before touching the network.
func (c *Client) UpdateStock(ctx context.Context, items []domain.StockItem) error {
	valid := make([]domain.StockItem, 0, len(items))
	for _, item := range items {
		if !item.Valid() {
			c.logger.Warn("invalid stock item skipped",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
			)
			continue
		}
		valid = append(valid, item)
	}
	if len(valid) == 0 {
		return ErrNoValidItems
	}

	req, err := jsonRequest(http.MethodPost, "/standard/update-stock", map[string]any{"items": valid})
	if err != nil {
		return err
	}
	var resp envelope
	if err := c.do(ctx, req, &resp); err != nil {
		return err
	}
	return resp.requireSuccess("stock update failed")
}

type ordersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// ListOrders returns the orders of one user.
func (c *Client) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	path := "/orders?userId=" + url.QueryEscape(userID)
	var resp ordersResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// ListAllOrders is the admin view of every order.
func (c *Client) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	var resp ordersResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/show-orders"}, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id string, update domain.OrderUpdate) error {
	req, err := jsonRequest(http.MethodPut, "/show-orders/"+url.PathEscape(id), update)
	if err != nil {
		return err
	}
	if err := c.do(ctx, req, nil); err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	if err := c.do(ctx, request{method: http.MethodDelete, path: "/show-orders/" + url.PathEscape(id)}, nil); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}
