package orders

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrUnknownRange = errors.New("unknown order range")

type Range string

const (
	RangeAll    Range = "all"
	RangeLast7  Range = "last7"
	RangeLast30 Range = "last30"
)

// ParseRange maps an empty value to RangeAll.
func ParseRange(raw string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(raw))); r {
	case "", RangeAll:
		return RangeAll, nil
	case RangeLast7, RangeLast30:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRange, raw)
	}
}

// Source is the order side of the backend.
type Source interface {
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	ListAllOrders(ctx context.Context) ([]domain.Order, error)
}

type Service struct {
	source Source
	now    func() time.Time
}

func NewService(source Source) *Service {
	return &Service{source: source, now: time.Now}
}

// History returns the orders of one user, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]domain.Order, error) {
	list, err := s.source.ListOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders of %s: %w", userID, err)
	}
	return NewestFirst(list), nil
}

// All returns every order inside r, newest first.
func (s *Service) All(ctx context.Context, r Range) ([]domain.Order, error) {
	list, err := s.source.ListAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return FilterRange(NewestFirst(list), r, s.now()), nil
}

func (s *Service) Analytics(ctx context.Context) (Metrics, error) {
	list, err := s.source.ListAllOrders(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("list all orders: %w", err)
	}
	return MonthlyMetrics(list), nil
}

// NewestFirst sorts a copy of list by creation time, descending.
func NewestFirst(list []domain.Order) []domain.Order {
	out := slices.Clone(list)
	if out == nil {
		out = []domain.Order{}
	}
	slices.SortStableFunc(out, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// FilterRange keeps orders created at or after the start of r relative to now.
func FilterRange(list []domain.Order, r Range, now time.Time) []domain.Order {
	var days int
	switch r {
	case RangeLast7:
		days = 7
	case RangeLast30:
		days = 30
	default:
		return slices.Clone(list)
	}

	since := now.AddDate(0, 0, -days)
	out := make([]domain.Order, 0, len(list))
	for _, o := range list {
		if !o.CreatedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out
}

type MonthMetric struct {
	Month  string          `json:"month"`
	Sales  decimal.Decimal `json:"sales"`
	Orders int             `json:"orders"`
}

type Metrics struct {
	TotalOrders int             `json:"totalOrders"`
	TotalSales  decimal.Decimal `json:"totalSales"`
	Months      []MonthMetric   `json:"months"`
}

// MonthlyMetrics buckets orders by UTC calendar month ("YYYY-MM"), oldest
// month first.
func MonthlyMetrics(list []domain.Order) Metrics {
	buckets := map[string]*MonthMetric{}
	m := Metrics{TotalSales: decimal.Zero, Months: []MonthMetric{}}

	for _, o := range list {
		m.TotalOrders++
		m.TotalSales = m.TotalSales.Add(o.TotalAmount)

		key := o.CreatedAt.UTC().Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &MonthMetric{Month: key, Sales: decimal.Zero}
			buckets[key] = b
		}
		b.Sales = b.Sales.Add(o.TotalAmount)
		b.Orders++
	}

	for _, b := range buckets {
		m.Months = append(m.Months, *b)
	}
	slices.SortFunc(m.Months, func(a, b MonthMetric) int {
		return cmp.Compare(a.Month, b.Month)
	})
	return m
}
