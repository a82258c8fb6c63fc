package catalog

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// mockSource is a hand-written ProductSource
type mockSource struct {
	mu       sync.Mutex
	calls    atomic.Int32
	products []domain.Product
	err      error
	release  chan struct{}
}

func (m *mockSource) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.calls.Add(1)
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products, m.err
}

func (m *mockSource) set(products []domain.Product, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
	m.err = err
}

func product(id, name, category string, price string) domain.Product {
	return domain.Product{ID: id, Name: name, Category: category, Price: decimal.RequireFromString(price)}
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		product("1", "Linen Shirt", "Shirts", "40"),
		product("2", "Denim Jacket", " Jackets ", "90"),
		product("3", "Oxford Shirt", "shirts", "40"),
		product("4", "Wool Socks", "Accessories", "5"),
	}
}

func TestLoader_LoadSuccess(t *testing.T) {
	src := &mockSource{products: sampleProducts()}
	l := NewLoader(src, nil)
	assert.Equal(t, StateNotLoaded, l.State())

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, StateLoaded, l.State())
	assert.Len(t, l.Products(), 4)

	price, ok := l.Price("2")
	assert.True(t, ok)
	assert.True(t, decimal.NewFromInt(90).Equal(price))

	_, ok = l.Price("missing")
	assert.False(t, ok)
}

func TestLoader_FailureKeepsPreviousProducts(t *testing.T) {
	src := &mockSource{products: sampleProducts()}
	l := NewLoader(src, nil)
	require.NoError(t, l.Load(context.Background()))

	boom := errors.New("backend down")
	src.set(nil, boom)
	err := l.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, l.State())
	assert.Len(t, l.Products(), 4)
	assert.Equal(t, "backend down", l.Status().Error)
}

func TestLoader_ConcurrentLoadsCoalesce(t *testing.T) {
	src := &mockSource{products: sampleProducts(), release: make(chan struct{})}
	l := NewLoader(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Load(context.Background()))
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateLoading, l.State())
	// let late joiners attach to the flight before it completes
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, StateLoaded, l.State())
}

func TestLoader_InvalidateDiscardsInFlightResult(t *testing.T) {
	src := &mockSource{products: sampleProducts(), release: make(chan struct{})}
	l := NewLoader(src, nil)

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background()) }()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	l.Invalidate()
	close(src.release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, StateNotLoaded, l.State())
	assert.Empty(t, l.Products())
}

func TestLoader_CloseDiscardsResult(t *testing.T) {
	src := &mockSource{products: sampleProducts(), release: make(chan struct{})}
	l := NewLoader(src, nil)

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background()) }()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	l.Close()
	close(src.release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Equal(t, StateNotLoaded, l.State())
	assert.Empty(t, l.Products())
	assert.ErrorIs(t, l.Load(context.Background()), ErrClosed)
}

func TestLoader_CloseDuringReloadSettlesState(t *testing.T) {
	src := &mockSource{products: sampleProducts()}
	l := NewLoader(src, nil)
	require.NoError(t, l.Load(context.Background()))

	src.release = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background()) }()
	require.Eventually(t, func() bool { return l.State() == StateLoading }, time.Second, 5*time.Millisecond)

	l.Close()
	assert.Equal(t, StateLoaded, l.State())

	close(src.release)
	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Equal(t, StateLoaded, l.State())
	assert.Len(t, l.Products(), len(sampleProducts()))
}

func TestLoader_Reload(t *testing.T) {
	src := &mockSource{products: sampleProducts()}
	l := NewLoader(src, nil)
	require.NoError(t, l.Load(context.Background()))

	src.set(sampleProducts()[:1], nil)
	require.NoError(t, l.Reload(context.Background()))
	assert.Len(t, l.Products(), 1)
	_, ok := l.Product("2")
	assert.False(t, ok)
}

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestView_Search(t *testing.T) {
	products := sampleProducts()
	products[3].Description = "Warm merino SHIRT companion"

	got := View(products, Criteria{Search: "  SHIRT "})
	assert.Equal(t, []string{"1", "3", "4"}, ids(got))

	got = View(products, Criteria{Search: "jackets"})
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestView_Category(t *testing.T) {
	products := sampleProducts()

	assert.Equal(t, []string{"1", "3"}, ids(View(products, Criteria{Category: " SHIRTS"})))
	assert.Equal(t, []string{"2"}, ids(View(products, Criteria{Category: "jackets"})))
	assert.Len(t, View(products, Criteria{Category: "all"}), 4)
	assert.Len(t, View(products, Criteria{Category: ""}), 4)
	assert.Empty(t, View(products, Criteria{Category: "shirt"}))
}

func TestView_SortStable(t *testing.T) {
	products := sampleProducts()

	assert.Equal(t, []string{"4", "1", "3", "2"}, ids(View(products, Criteria{Sort: SortPriceAsc})))
	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(View(products, Criteria{Sort: SortPriceDesc})))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(View(products, Criteria{Sort: SortDefault})))

	// source untouched
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(products))
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortPriceAsc, ParseSort("price_asc"))
	assert.Equal(t, SortPriceDesc, ParseSort(" PRICE_DESC "))
	assert.Equal(t, SortDefault, ParseSort("newest"))
	assert.Equal(t, SortDefault, ParseSort(""))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"accessories", "jackets", "shirts"}, Categories(sampleProducts()))
	assert.Equal(t, []string{}, Categories(nil))
}

func TestView_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		products := make([]domain.Product, n)
		for i := range products {
			products[i] = domain.Product{
				ID:       rapid.StringMatching(`[a-z0-9]{4}`).Draw(t, "id"),
				Name:     rapid.SampledFrom([]string{"Shirt", "Jacket", "Sock", "Hat"}).Draw(t, "name"),
				Category: rapid.SampledFrom([]string{"Tops", " tops", "Bottoms", ""}).Draw(t, "category"),
				Price:    decimal.NewFromInt(int64(rapid.IntRange(0, 100).Draw(t, "price"))),
			}
		}
		before := slices.Clone(products)
		c := Criteria{
			Search:   rapid.SampledFrom([]string{"", "s", "SHIRT", "top"}).Draw(t, "search"),
			Category: rapid.SampledFrom([]string{"", "all", "tops", "bottoms"}).Draw(t, "category"),
			Sort:     rapid.SampledFrom([]Sort{SortDefault, SortPriceAsc, SortPriceDesc}).Draw(t, "sort"),
		}

		first := View(products, c)
		second := View(products, c)
		assert.Equal(t, first, second)
		assert.Equal(t, before, products)
		assert.LessOrEqual(t, len(first), len(products))

		for i := 1; i < len(first); i++ {
			switch c.Sort {
			case SortPriceAsc:
				assert.True(t, first[i-1].Price.LessThanOrEqual(first[i].Price))
			case SortPriceDesc:
				assert.True(t, first[i-1].Price.GreaterThanOrEqual(first[i].Price))
			}
		}
	})
}
