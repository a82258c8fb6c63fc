package events

import (
	"context"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderPlaced     EventType = "OrderPlaced"
	EventStockSyncFailed EventType = "StockSyncFailed"
)

// Event is one checkout notification for operators. AggregateID is the
// order id and keys the kafka message so events of one order stay ordered.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	AggregateID string    `json:"aggregateId"`
	OccurredAt  time.Time `json:"occurredAt"`
	Payload     any       `json:"payload"`
}

type OrderPlaced struct {
	OrderID     string            `json:"orderId"`
	UserID      *string           `json:"userId"`
	Items       []domain.LineItem `json:"items"`
	ShippingFee decimal.Decimal   `json:"shippingFee"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	StockSynced bool              `json:"stockSynced"`
}

// StockSyncFailed carries the rows the backend refused so an operator can
// replay them by hand.
type StockSyncFailed struct {
	OrderID string             `json:"orderId"`
	Items   []domain.StockItem `json:"items"`
	Reason  string             `json:"reason"`
}

func NewOrderPlaced(p OrderPlaced) Event {
	return newEvent(EventOrderPlaced, p.OrderID, p)
}

func NewStockSyncFailed(p StockSyncFailed) Event {
	return newEvent(EventStockSyncFailed, p.OrderID, p)
}

func newEvent(t EventType, aggregateID string, payload any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
