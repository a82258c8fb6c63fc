package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/observability"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrClosed     = errors.New("catalog loader closed")
	ErrSuperseded = errors.New("catalog load superseded")
)

type State int

const (
	StateNotLoaded State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotLoaded:
		return "NOT_LOADED"
	case StateLoading:
		return "LOADING"
	case StateLoaded:
		return "LOADED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ProductSource is the remote catalog.
type ProductSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Status is a point-in-time view of the loader.
type Status struct {
	State    State     `json:"state"`
	Products int       `json:"products"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
}

// Loader fetches the catalog and keeps the last good copy. Every load is
// tagged with the generation it started in; a result that arrives after
// Invalidate or Close bumped the generation is dropped.
type Loader struct {
	source ProductSource
	logger *zap.Logger
	sfg    singleflight.Group

	mu         sync.RWMutex
	state      State
	err        error
	products   []domain.Product
	byID       map[string]domain.Product
	loadedAt   time.Time
	generation uint64
	closed     bool
}

func NewLoader(source ProductSource, logger *zap.Logger) *Loader {
	return &Loader{
		source: source,
		logger: observability.OrNop(logger),
		byID:   map[string]domain.Product{},
	}
}

// Load fetches the catalog. Concurrent calls within one generation share a
// single backend request. On failure the previous products stay visible.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	gen := l.generation
	l.state = StateLoading
	l.mu.Unlock()

	_, err, _ := l.sfg.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		// shared by every waiter, so it must not die with the first caller
		products, err := l.source.ListProducts(context.WithoutCancel(ctx))
		return nil, l.apply(gen, products, err)
	})
	return err
}

func (l *Loader) apply(gen uint64, products []domain.Product, fetchErr error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || gen != l.generation {
		l.logger.Debug("discarding stale catalog load", zap.Uint64("generation", gen))
		if l.closed {
			return ErrClosed
		}
		return ErrSuperseded
	}

	if fetchErr != nil {
		l.state = StateFailed
		l.err = fetchErr
		l.logger.Warn("catalog load failed", zap.Error(fetchErr), zap.Int("kept_products", len(l.products)))
		return fmt.Errorf("load catalog: %w", fetchErr)
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	l.products = products
	l.byID = byID
	l.state = StateLoaded
	l.err = nil
	l.loadedAt = time.Now()
	l.logger.Info("catalog loaded", zap.Int("products", len(products)))
	return nil
}

// Invalidate drops any in-flight load. The current products stay until the
// next successful load.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	if l.state == StateLoading {
		l.state = l.settledState()
	}
}

// Reload invalidates and loads again.
func (l *Loader) Reload(ctx context.Context) error {
	l.Invalidate()
	return l.Load(ctx)
}

// Close stops the loader; results still in flight are discarded.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.generation++
	if l.state == StateLoading {
		l.state = l.settledState()
	}
}

func (l *Loader) settledState() State {
	switch {
	case l.err != nil:
		return StateFailed
	case l.loadedAt.IsZero():
		return StateNotLoaded
	default:
		return StateLoaded
	}
}

func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := Status{State: l.state, Products: len(l.products), LoadedAt: l.loadedAt}
	if l.err != nil {
		s.Error = l.err.Error()
	}
	return s
}

// Products returns a copy of the catalog in arrival order.
func (l *Loader) Products() []domain.Product {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Product, len(l.products))
	copy(out, l.products)
	return out
}

func (l *Loader) Product(id string) (domain.Product, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.byID[id]
	return p, ok
}

// Price is the live unit price lookup used for cart totals.
func (l *Loader) Price(id string) (decimal.Decimal, bool) {
	p, ok := l.Product(id)
	if !ok {
		return decimal.Zero, false
	}
	return p.Price, true
}
