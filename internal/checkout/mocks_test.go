package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/shopspring/decimal"
)

// MockBackend implements OrderBackend for testing
type MockBackend struct {
	mu sync.Mutex

	Order          *domain.Order
	CreateErr      error
	StockErr       error
	CreateRequests []domain.OrderRequest // Captures every submitted order
	IdempotencyKey string
	StockRequests  [][]domain.StockItem
	// Block, when set, holds CreateOrder until it is closed.
	Block chan struct{}
	// Entered is closed once CreateOrder has been called.
	Entered chan struct{}
}

func (m *MockBackend) CreateOrder(_ context.Context, order domain.OrderRequest, key string) (*domain.Order, error) {
	m.mu.Lock()
	m.CreateRequests = append(m.CreateRequests, order)
	m.IdempotencyKey = key
	entered, block := m.Entered, m.Block
	m.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if block != nil {
		<-block
	}
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.Order, nil
}

func (m *MockBackend) UpdateStock(_ context.Context, items []domain.StockItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StockRequests = append(m.StockRequests, items)
	return m.StockErr
}

// MockCart implements CartSource for testing
type MockCart struct {
	Items      domain.CartItems
	Subtracted domain.CartItems
}

func (m *MockCart) Snapshot() domain.CartItems {
	return m.Items.Clone()
}

func (m *MockCart) Subtract(_ context.Context, ordered domain.CartItems) {
	m.Subtracted = ordered.Clone()
	for productID, variants := range ordered {
		current, ok := m.Items[productID]
		if !ok {
			continue
		}
		for v, qty := range variants {
			if current[v] -= qty; current[v] <= 0 {
				delete(current, v)
			}
		}
		if len(current) == 0 {
			delete(m.Items, productID)
		}
	}
}

type MockCatalog map[string]domain.Product

func (m MockCatalog) Product(id string) (domain.Product, bool) {
	p, ok := m[id]
	return p, ok
}

func (m MockCatalog) Price(id string) (decimal.Decimal, bool) {
	p, ok := m[id]
	return p.Price, ok
}

type MockSession struct {
	ID string
}

func (m MockSession) UserID() (string, bool) {
	return m.ID, m.ID != ""
}

// MockPublisher implements events.Publisher for testing
type MockPublisher struct {
	Events []events.Event
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, event events.Event) error {
	m.Events = append(m.Events, event)
	return m.Err
}

func (m *MockPublisher) Close() error {
	return nil
}

func (m *MockPublisher) Types() []events.EventType {
	out := make([]events.EventType, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Type
	}
	return out
}
