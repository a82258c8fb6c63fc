package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const PaymentStatusPending = "Pending"

// the backend reads prices and totals as JSON numbers
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// LineItem is a priced unit of a checkout, joined from a cart entry and its
// catalog product at checkout time. It is never persisted on its own.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Size      *string         `json:"size"`
	Color     *string         `json:"color"`
	Quantity  int             `json:"quantity"`
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderRequest is the body of POST /orders. UserID is nil for guest checkout.
type OrderRequest struct {
	UserID        *string         `json:"userId"`
	Items         []LineItem      `json:"items"`
	ShippingInfo  ShippingInfo    `json:"shippingInfo"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentStatus string          `json:"paymentStatus"`
	ShippingFee   decimal.Decimal `json:"shippingFee"`
}

type Order struct {
	ID            string          `json:"_id"`
	UserID        *string         `json:"userId,omitempty"`
	Items         []LineItem      `json:"items"`
	ShippingInfo  ShippingInfo    `json:"shippingInfo"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ShippingFee   decimal.Decimal `json:"shippingFee"`
	PaymentStatus string          `json:"paymentStatus,omitempty"`
	OrderStatus   string          `json:"orderStatus,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// OrderUpdate carries the admin-editable fields of an order.
type OrderUpdate struct {
	OrderStatus   string        `json:"orderStatus,omitempty"`
	PaymentStatus string        `json:"paymentStatus,omitempty"`
	ShippingInfo  *ShippingInfo `json:"shippingInfo,omitempty"`
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NewLineItem joins one cart entry with its product.
func NewLineItem(p Product, v Variant, quantity int) LineItem {
	return LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Size:      stringPtr(v.Size),
		Color:     stringPtr(v.Color),
		Quantity:  quantity,
	}
}
