package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/observability"
	"github.com/fjod/go_storefront/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DebounceWindow absorbs double-fired add-to-cart clicks.
const DebounceWindow = 400 * time.Millisecond

const persistTimeout = 5 * time.Second

// Storage is the persistence the store writes through to.
type Storage interface {
	Load(ctx context.Context) (*domain.CartDocument, error)
	Save(ctx context.Context, doc domain.CartDocument) error
	Clear(ctx context.Context) error
}

// PriceLookup returns the live unit price of a product.
type PriceLookup interface {
	Price(productID string) (decimal.Decimal, bool)
}

type Listener func(domain.CartItems)

type lastAdd struct {
	productID string
	variant   domain.Variant
	at        time.Time
}

// Store owns the cart. Every mutation is persisted before the write lock is
// released, so storage never lags behind a mutation that was reported back.
type Store struct {
	storage Storage
	prices  PriceLookup
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.RWMutex
	items     domain.CartItems
	last      lastAdd
	listeners map[int]Listener
	nextID    int
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(st Storage, prices PriceLookup, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		storage:   st,
		prices:    prices,
		logger:    observability.OrNop(logger),
		now:       time.Now,
		items:     domain.CartItems{},
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted cart. Missing, outdated or unreadable data
// leaves the cart empty; it is never fatal.
func (s *Store) Restore(ctx context.Context) {
	items := domain.CartItems{}

	doc, err := s.storage.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug("no persisted cart")
	case err != nil:
		s.logger.Warn("failed to load persisted cart, starting empty", zap.Error(err))
	default:
		decoded, err := doc.CartItems()
		if err != nil {
			s.logger.Warn("discarding persisted cart",
				zap.Error(err),
				zap.Int("version", doc.Version),
				zap.Int("expected_version", domain.CartSchemaVersion),
			)
		} else {
			items = decoded
		}
	}

	s.mu.Lock()
	s.items = items
	snapshot := s.items.Clone()
	s.mu.Unlock()

	s.logger.Info("cart restored", zap.Int("products", len(items)))
	s.notify(snapshot)
}

// AddItem adds quantity units of a variant. It is a no-op when productID or
// size is empty, quantity is not positive, or the same variant was added
// less than DebounceWindow ago.
func (s *Store) AddItem(ctx context.Context, productID, size string, quantity int, color string) bool {
	if productID == "" || size == "" || quantity <= 0 {
		return false
	}
	v := domain.Variant{Size: size, Color: color}

	s.mu.Lock()
	now := s.now()
	if s.last.productID == productID && s.last.variant == v && now.Sub(s.last.at) < DebounceWindow {
		s.mu.Unlock()
		s.logger.Debug("duplicate add ignored", zap.String("product_id", productID), zap.Stringer("variant", v))
		return false
	}
	s.last = lastAdd{productID: productID, variant: v, at: now}

	variants, ok := s.items[productID]
	if !ok {
		variants = map[domain.Variant]int{}
		s.items[productID] = variants
	}
	variants[v] += quantity

	snapshot := s.commit(ctx)
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// UpdateQuantity sets the quantity of a variant. A quantity <= 0 removes it,
// and a product without variants is removed as well.
func (s *Store) UpdateQuantity(ctx context.Context, productID, size, color string, quantity int) bool {
	if productID == "" || size == "" {
		return false
	}
	v := domain.Variant{Size: size, Color: color}

	s.mu.Lock()
	variants := s.items[productID]
	if quantity <= 0 {
		if _, ok := variants[v]; !ok {
			s.mu.Unlock()
			return false
		}
		delete(variants, v)
		if len(variants) == 0 {
			delete(s.items, productID)
		}
	} else {
		if variants == nil {
			variants = map[domain.Variant]int{}
			s.items[productID] = variants
		}
		variants[v] = quantity
	}

	snapshot := s.commit(ctx)
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// RemoveItem drops every variant of a product.
func (s *Store) RemoveItem(ctx context.Context, productID string) bool {
	s.mu.Lock()
	if _, ok := s.items[productID]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.items, productID)

	snapshot := s.commit(ctx)
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// Clear empties the cart and deletes the persisted copy.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = domain.CartItems{}
	s.last = lastAdd{}

	pctx, cancel := persistContext(ctx)
	if err := s.storage.Clear(pctx); err != nil {
		s.logger.Error("failed to clear persisted cart", zap.Error(err))
	}
	cancel()
	s.mu.Unlock()

	s.notify(domain.CartItems{})
}

// Subtract takes the quantities in ordered off the cart. Entries added after
// ordered was snapshotted stay. An emptied cart is cleared from storage.
func (s *Store) Subtract(ctx context.Context, ordered domain.CartItems) {
	s.mu.Lock()
	for productID, variants := range ordered {
		current, ok := s.items[productID]
		if !ok {
			continue
		}
		for v, qty := range variants {
			left := current[v] - qty
			if left > 0 {
				current[v] = left
				continue
			}
			delete(current, v)
		}
		if len(current) == 0 {
			delete(s.items, productID)
		}
	}

	if len(s.items) > 0 {
		snapshot := s.commit(ctx)
		s.mu.Unlock()
		s.notify(snapshot)
		return
	}

	s.last = lastAdd{}
	pctx, cancel := persistContext(ctx)
	if err := s.storage.Clear(pctx); err != nil {
		s.logger.Error("failed to clear persisted cart", zap.Error(err))
	}
	cancel()
	s.mu.Unlock()

	s.notify(domain.CartItems{})
}

// Snapshot returns a deep copy of the cart.
func (s *Store) Snapshot() domain.CartItems {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Clone()
}

// Document is the serialized form of the current cart.
func (s *Store) Document() domain.CartDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.NewCartDocument(s.items)
}

// Total sums unit price times quantity. Products the price lookup does not
// know contribute nothing.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for productID, variants := range s.items {
		price, ok := s.prices.Price(productID)
		if !ok {
			continue
		}
		for _, qty := range variants {
			total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}
	}
	return total
}

// Count is the number of units in the cart.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Units()
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// commit persists the cart. Callers hold the write lock.
func (s *Store) commit(ctx context.Context) domain.CartItems {
	pctx, cancel := persistContext(ctx)
	defer cancel()

	if err := s.storage.Save(pctx, domain.NewCartDocument(s.items)); err != nil {
		s.logger.Error("failed to persist cart", zap.Error(err))
	}
	return s.items.Clone()
}

func (s *Store) notify(snapshot domain.CartItems) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(snapshot.Clone())
	}
}

// a cancelled request must not abort the write that follows its mutation
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}
