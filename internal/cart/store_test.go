package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// memoryStorage is a hand-written Storage
type memoryStorage struct {
	mu      sync.Mutex
	doc     *domain.CartDocument
	loadErr error
	saveErr error
	saves   int
	clears  int
}

func (m *memoryStorage) Load(context.Context) (*domain.CartDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.doc == nil {
		return nil, storage.ErrNotFound
	}
	doc := *m.doc
	return &doc, nil
}

func (m *memoryStorage) Save(_ context.Context, doc domain.CartDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = &doc
	return nil
}

func (m *memoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.doc = nil
	return nil
}

type priceMap map[string]decimal.Decimal

func (p priceMap) Price(id string) (decimal.Decimal, bool) {
	price, ok := p[id]
	return price, ok
}

// fakeClock advances only when told to
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T, prices priceMap) (*Store, *memoryStorage, *fakeClock) {
	t.Helper()
	st := &memoryStorage{}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(st, prices, nil, WithClock(clock.Now)), st, clock
}

func TestAddThenRemoveScenario(t *testing.T) {
	s, st, _ := newTestStore(t, nil)
	ctx := context.Background()

	require.True(t, s.AddItem(ctx, "A", "s", 2, ""))
	assert.Equal(t, domain.CartItems{"A": {{Size: "s"}: 2}}, s.Snapshot())
	assert.Equal(t, map[string]map[string]int{"A": {"s_none": 2}}, st.doc.Items)

	require.True(t, s.UpdateQuantity(ctx, "A", "s", "", 0))
	assert.Empty(t, s.Snapshot())
	assert.Empty(t, st.doc.Items)
}

func TestAddItem_IsAdditive(t *testing.T) {
	s, _, clock := newTestStore(t, nil)
	ctx := context.Background()

	s.AddItem(ctx, "A", "M", 1, "red")
	clock.Advance(DebounceWindow)
	s.AddItem(ctx, "A", "M", 3, "red")
	s.AddItem(ctx, "A", "L", 1, "red")

	assert.Equal(t, domain.CartItems{"A": {
		{Size: "M", Color: "red"}: 4,
		{Size: "L", Color: "red"}: 1,
	}}, s.Snapshot())
}

func TestAddItem_Debounce(t *testing.T) {
	s, st, clock := newTestStore(t, nil)
	ctx := context.Background()

	assert.True(t, s.AddItem(ctx, "A", "M", 1, ""))
	clock.Advance(DebounceWindow - time.Millisecond)
	assert.False(t, s.AddItem(ctx, "A", "M", 1, ""))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 1, st.saves)

	// other variants are not debounced
	assert.True(t, s.AddItem(ctx, "A", "M", 1, "blue"))
	assert.True(t, s.AddItem(ctx, "B", "M", 1, ""))

	clock.Advance(DebounceWindow)
	assert.True(t, s.AddItem(ctx, "A", "M", 1, ""))
	assert.Equal(t, 4, s.Count())
}

func TestAddItem_DebounceMeasuresFromLastAcceptedAdd(t *testing.T) {
	s, _, clock := newTestStore(t, nil)
	ctx := context.Background()

	assert.True(t, s.AddItem(ctx, "A", "M", 1, ""))
	clock.Advance(300 * time.Millisecond)
	assert.False(t, s.AddItem(ctx, "A", "M", 1, ""))
	clock.Advance(150 * time.Millisecond)
	assert.True(t, s.AddItem(ctx, "A", "M", 1, ""))
}

func TestAddItem_InvalidInputsAreNoops(t *testing.T) {
	s, st, _ := newTestStore(t, nil)
	ctx := context.Background()

	assert.False(t, s.AddItem(ctx, "", "M", 1, ""))
	assert.False(t, s.AddItem(ctx, "A", "", 1, ""))
	assert.False(t, s.AddItem(ctx, "A", "M", 0, ""))
	assert.False(t, s.AddItem(ctx, "A", "M", -2, ""))

	assert.Empty(t, s.Snapshot())
	assert.Zero(t, st.saves)
}

func TestUpdateQuantity(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	ctx := context.Background()

	s.AddItem(ctx, "A", "M", 1, "")
	assert.True(t, s.UpdateQuantity(ctx, "A", "M", "", 7))
	assert.Equal(t, 7, s.Snapshot()["A"][domain.Variant{Size: "M"}])

	// sets a variant that was not there yet
	assert.True(t, s.UpdateQuantity(ctx, "B", "L", "green", 2))
	assert.Equal(t, 9, s.Count())

	// removing an absent variant changes nothing
	assert.False(t, s.UpdateQuantity(ctx, "A", "XL", "", 0))
	assert.False(t, s.UpdateQuantity(ctx, "", "M", "", 3))
	assert.False(t, s.UpdateQuantity(ctx, "A", "", "", 3))

	assert.True(t, s.UpdateQuantity(ctx, "A", "M", "", -1))
	_, ok := s.Snapshot()["A"]
	assert.False(t, ok)
}

func TestRemoveItem(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	ctx := context.Background()

	s.AddItem(ctx, "A", "M", 1, "")
	s.AddItem(ctx, "A", "L", 2, "red")
	s.AddItem(ctx, "B", "M", 1, "")

	assert.True(t, s.RemoveItem(ctx, "A"))
	assert.False(t, s.RemoveItem(ctx, "A"))
	assert.Equal(t, domain.CartItems{"B": {{Size: "M"}: 1}}, s.Snapshot())
}

func TestClear(t *testing.T) {
	s, st, _ := newTestStore(t, nil)
	ctx := context.Background()

	s.AddItem(ctx, "A", "M", 1, "")
	s.Clear(ctx)

	assert.Empty(t, s.Snapshot())
	assert.Nil(t, st.doc)
	assert.Equal(t, 1, st.clears)

	// a cleared cart accepts the same add immediately
	assert.True(t, s.AddItem(ctx, "A", "M", 1, ""))
}

func TestSubtract_KeepsLaterAdditions(t *testing.T) {
	s, st, _ := newTestStore(t, nil)
	ctx := context.Background()

	s.AddItem(ctx, "A", "M", 2, "red")
	s.AddItem(ctx, "B", "L", 1, "")
	ordered := s.Snapshot()

	s.AddItem(ctx, "C", "S", 1, "")
	s.UpdateQuantity(ctx, "A", "M", "red", 5)

	s.Subtract(ctx, ordered)

	assert.Equal(t, domain.CartItems{
		"A": {{Size: "M", Color: "red"}: 3},
		"C": {{Size: "S"}: 1},
	}, s.Snapshot())
	require.NotNil(t, st.doc)
	assert.Equal(t, 0, st.clears)
}

func TestSubtract_EmptiedCartClearsStorage(t *testing.T) {
	s, st, _ := newTestStore(t, nil)
	ctx := context.Background()

	s.AddItem(ctx, "A", "M", 1, "")
	ordered := s.Snapshot()
	s.UpdateQuantity(ctx, "A", "M", "", 0)
	s.Subtract(ctx, ordered)
	assert.Empty(t, s.Snapshot())

	s.AddItem(ctx, "B", "M", 2, "")
	s.Subtract(ctx, s.Snapshot())

	assert.Empty(t, s.Snapshot())
	assert.Nil(t, st.doc)
	assert.Equal(t, 2, st.clears)
}

func TestTotal_SkipsUnknownProducts(t *testing.T) {
	s, _, _ := newTestStore(t, priceMap{
		"A": decimal.RequireFromString("19.99"),
		"B": decimal.RequireFromString("5"),
	})
	ctx := context.Background()

	s.AddItem(ctx, "A", "M", 2, "")
	s.AddItem(ctx, "A", "L", 1, "red")
	s.AddItem(ctx, "B", "M", 3, "")
	s.AddItem(ctx, "gone", "M", 10, "")

	assert.True(t, decimal.RequireFromString("74.97").Equal(s.Total()), s.Total().String())
	assert.Equal(t, 16, s.Count())
}

func TestTotal_EmptyCart(t *testing.T) {
	s, _, _ := newTestStore(t, priceMap{})
	assert.True(t, s.Total().IsZero())
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	s, st, _ := newTestStore(t, nil)
	st.saveErr = errors.New("disk full")

	assert.True(t, s.AddItem(context.Background(), "A", "M", 1, ""))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 1, st.saves)
}

func TestPersistUsesDetachedContext(t *testing.T) {
	s, st, _ := newTestStore(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, s.AddItem(ctx, "A", "M", 1, ""))
	require.NotNil(t, st.doc)
}

func TestRestore(t *testing.T) {
	st := &memoryStorage{doc: &domain.CartDocument{
		Version: domain.CartSchemaVersion,
		Items:   map[string]map[string]int{"A": {"M_red": 2, "L_none": 1}},
	}}
	s := NewStore(st, nil, nil)
	s.Restore(context.Background())

	assert.Equal(t, domain.CartItems{"A": {
		{Size: "M", Color: "red"}: 2,
		{Size: "L"}:               1,
	}}, s.Snapshot())
}

func TestRestore_StartsEmptyOnBadData(t *testing.T) {
	tests := []struct {
		name string
		st   *memoryStorage
	}{
		{name: "missing", st: &memoryStorage{}},
		{name: "schema mismatch", st: &memoryStorage{doc: &domain.CartDocument{
			Version: 0,
			Items:   map[string]map[string]int{"A": {"M_red": 2}},
		}}},
		{name: "load error", st: &memoryStorage{loadErr: errors.New("corrupt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.st, nil, nil)
			s.Restore(context.Background())
			assert.Empty(t, s.Snapshot())
		})
	}
}

func TestSubscribe(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	ctx := context.Background()

	var got []int
	unsubscribe := s.Subscribe(func(items domain.CartItems) {
		count := 0
		for _, variants := range items {
			for _, qty := range variants {
				count += qty
			}
		}
		got = append(got, count)
	})

	s.AddItem(ctx, "A", "M", 2, "")
	s.AddItem(ctx, "A", "M", 2, "") // debounced, no event
	s.UpdateQuantity(ctx, "A", "M", "", 5)
	unsubscribe()
	s.Clear(ctx)

	assert.Equal(t, []int{2, 5}, got)
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	s.AddItem(context.Background(), "A", "M", 1, "")

	snap := s.Snapshot()
	snap["A"][domain.Variant{Size: "M"}] = 50
	delete(snap, "A")

	assert.Equal(t, 1, s.Count())
}

func TestConcurrentMutations(t *testing.T) {
	s := NewStore(&memoryStorage{}, priceMap{}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			size := string(rune('A' + i))
			s.AddItem(ctx, "P", size, 1, "")
			_ = s.Total()
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, s.Count())
}

// TestStoreInvariants drives random operations and checks that quantities
// stay positive, no product keeps an empty variant set, the persisted
// document always mirrors memory, and Total matches a reference sum.
func TestStoreInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prices := priceMap{
			"A": decimal.RequireFromString("2.50"),
			"B": decimal.RequireFromString("10"),
		}
		st := &memoryStorage{}
		clock := &fakeClock{now: time.Unix(0, 0)}
		s := NewStore(st, prices, nil, WithClock(clock.Now))
		ctx := context.Background()

		products := []string{"A", "B", "C", ""}
		sizes := []string{"S", "M", "X_L", ""}
		colors := []string{"", "red", "none"}

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			productID := rapid.SampledFrom(products).Draw(t, "product")
			size := rapid.SampledFrom(sizes).Draw(t, "size")
			color := rapid.SampledFrom(colors).Draw(t, "color")

			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				s.AddItem(ctx, productID, size, rapid.IntRange(-1, 5).Draw(t, "qty"), color)
			case 1:
				s.UpdateQuantity(ctx, productID, size, color, rapid.IntRange(-2, 5).Draw(t, "qty"))
			case 2:
				s.RemoveItem(ctx, productID)
			case 3:
				clock.Advance(time.Duration(rapid.IntRange(0, 800).Draw(t, "ms")) * time.Millisecond)
			case 4:
				if rapid.IntRange(0, 9).Draw(t, "clear") == 0 {
					s.Clear(ctx)
				}
			}

			snap := s.Snapshot()
			expected := decimal.Zero
			for productID, variants := range snap {
				if len(variants) == 0 {
					t.Fatalf("product %q has no variants", productID)
				}
				for v, qty := range variants {
					if qty <= 0 {
						t.Fatalf("non-positive quantity %d for %s/%s", qty, productID, v)
					}
					if price, ok := prices[productID]; ok {
						expected = expected.Add(price.Mul(decimal.NewFromInt(int64(qty))))
					}
				}
			}
			if !expected.Equal(s.Total()) {
				t.Fatalf("total %s, expected %s", s.Total(), expected)
			}

			persisted := domain.CartItems{}
			if st.doc != nil {
				decoded, err := st.doc.CartItems()
				if err != nil {
					t.Fatal(err)
				}
				persisted = decoded
			}
			assert.Equal(t, snap, persisted)
		}
	})
}
