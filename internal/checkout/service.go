package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const StockWarning = "Order placed, but stock update failed. Please contact support."

const followUpTimeout = 10 * time.Second

var (
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrInvalidShipping    = errors.New("invalid shipping info")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition  = errors.New("illegal transition of checkout status")
)

// OrderBackend is the remote side of a checkout.
type OrderBackend interface {
	CreateOrder(ctx context.Context, order domain.OrderRequest, idempotencyKey string) (*domain.Order, error)
	UpdateStock(ctx context.Context, items []domain.StockItem) error
}

type CartSource interface {
	Snapshot() domain.CartItems
	Subtract(ctx context.Context, ordered domain.CartItems)
}

// SessionSource reports the logged-in user. ok is false for guests.
type SessionSource interface {
	UserID() (id string, ok bool)
}

type Request struct {
	ShippingInfo domain.ShippingInfo `json:"shippingInfo"`
}

type Result struct {
	Order        *domain.Order         `json:"order"`
	Items        []domain.LineItem     `json:"items"`
	Subtotal     decimal.Decimal       `json:"subtotal"`
	ShippingFee  decimal.Decimal       `json:"shippingFee"`
	Total        decimal.Decimal       `json:"total"`
	Status       domain.CheckoutStatus `json:"status"`
	StockWarning string                `json:"stockWarning,omitempty"`
}

type Preview struct {
	Items       []domain.LineItem `json:"items"`
	Count       int               `json:"count"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	ShippingFee decimal.Decimal   `json:"shippingFee"`
	Total       decimal.Decimal   `json:"total"`
}

// StatusReport is the current state plus the outcome of the last attempt.
type StatusReport struct {
	Status      domain.CheckoutStatus  `json:"status"`
	LastOutcome *domain.CheckoutStatus `json:"lastOutcome,omitempty"`
	LastOrderID string                 `json:"lastOrderId,omitempty"`
	LastError   string                 `json:"lastError,omitempty"`
}

type Service struct {
	backend     OrderBackend
	cart        CartSource
	products    ProductLookup
	session     SessionSource
	publisher   events.Publisher
	shippingFee decimal.Decimal
	logger      *zap.Logger

	mu     sync.Mutex
	status domain.CheckoutStatus
	last   StatusReport
}

func NewService(
	backend OrderBackend,
	cart CartSource,
	products ProductLookup,
	session SessionSource,
	publisher events.Publisher,
	shippingFee decimal.Decimal,
	logger *zap.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		backend:     backend,
		cart:        cart,
		products:    products,
		session:     session,
		publisher:   publisher,
		shippingFee: shippingFee,
		logger:      observability.OrNop(logger),
		status:      domain.CheckoutStatusIdle,
	}
}

func (s *Service) Preview() Preview {
	snapshot := s.cart.Snapshot()
	items := BuildLineItems(snapshot, s.products)
	subtotal := Subtotal(items)
	return Preview{
		Items:       items,
		Count:       countUnits(items),
		Subtotal:    subtotal,
		ShippingFee: s.shippingFee,
		Total:       subtotal.Add(s.shippingFee),
	}
}

func (s *Service) Status() StatusReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	report := s.last
	report.Status = s.status
	return report
}

// Submit runs one checkout attempt. A failed order leaves the cart as it was
// and returns the error. Once the order is placed the attempt succeeds even
// when the stock update does not; the result then carries StockWarning.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	shipping := req.ShippingInfo.Normalize()
	if err := shipping.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShipping, err)
	}

	if err := s.begin(); err != nil {
		return nil, err
	}
	logger := observability.FromContextOr(ctx, s.logger)

	items := BuildLineItems(s.cart.Snapshot(), s.products)
	if len(items) == 0 {
		s.fail(ErrEmptyCart)
		return nil, ErrEmptyCart
	}

	subtotal := Subtotal(items)
	orderReq := domain.OrderRequest{
		Items:         items,
		ShippingInfo:  shipping,
		TotalAmount:   subtotal.Add(s.shippingFee),
		PaymentStatus: domain.PaymentStatusPending,
		ShippingFee:   s.shippingFee,
	}
	if s.session != nil {
		if id, ok := s.session.UserID(); ok {
			orderReq.UserID = &id
		}
	}

	key := uuid.NewString()
	order, err := s.backend.CreateOrder(ctx, orderReq, key)
	if err != nil {
		logger.Warn("order submission failed", zap.String("idempotency_key", key), zap.Error(err))
		s.fail(err)
		return nil, fmt.Errorf("place order: %w", err)
	}
	s.transition(domain.CheckoutStatusOrderPlaced)
	logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int("line_items", len(items)),
		zap.Stringer("total", orderReq.TotalAmount),
	)

	// the order stands from here on; a cancelled caller must not skip the follow-up
	followCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), followUpTimeout)
	defer cancel()

	outcome := domain.CheckoutStatusStockSyncOk
	warning := ""
	stockItems := domain.StockItemsFrom(items)
	if err := s.backend.UpdateStock(followCtx, stockItems); err != nil {
		outcome = domain.CheckoutStatusStockSyncFailed
		warning = StockWarning
		logger.Error("stock update failed after order placement",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		s.publish(followCtx, logger, events.NewStockSyncFailed(events.StockSyncFailed{
			OrderID: order.ID,
			Items:   stockItems,
			Reason:  err.Error(),
		}))
	}
	s.transition(outcome)

	s.cart.Subtract(followCtx, snapshot)
	s.publish(followCtx, logger, events.NewOrderPlaced(events.OrderPlaced{
		OrderID:     order.ID,
		UserID:      orderReq.UserID,
		Items:       items,
		ShippingFee: s.shippingFee,
		TotalAmount: orderReq.TotalAmount,
		StockSynced: outcome == domain.CheckoutStatusStockSyncOk,
	}))

	s.finish(outcome, order.ID)

	return &Result{
		Order:        order,
		Items:        items,
		Subtotal:     subtotal,
		ShippingFee:  s.shippingFee,
		Total:        orderReq.TotalAmount,
		Status:       outcome,
		StockWarning: warning,
	}, nil
}

func (s *Service) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.CheckoutStatusIdle {
		return ErrCheckoutInProgress
	}
	s.status = domain.CheckoutStatusSubmitting
	return nil
}

func (s *Service) transition(to domain.CheckoutStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(to)
}

func (s *Service) transitionLocked(to domain.CheckoutStatus) {
	if !domain.CanTransitionTo(s.status, to) {
		s.logger.Error("checkout status not changed",
			zap.Stringer("from", s.status),
			zap.Stringer("to", to),
			zap.Error(ErrIllegalTransition),
		)
		return
	}
	s.status = to
}

// fail records an OrderFailed outcome and reopens the service for a resubmit.
func (s *Service) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(domain.CheckoutStatusOrderFailed)
	outcome := s.status
	s.last = StatusReport{LastOutcome: &outcome, LastError: err.Error()}
	s.transitionLocked(domain.CheckoutStatusIdle)
}

func (s *Service) finish(outcome domain.CheckoutStatus, orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = StatusReport{LastOutcome: &outcome, LastOrderID: orderID}
	s.transitionLocked(domain.CheckoutStatusIdle)
}

func (s *Service) publish(ctx context.Context, logger *zap.Logger, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish checkout event",
			zap.String("event_type", string(event.Type)),
			zap.String("order_id", event.AggregateID),
			zap.Error(err),
		)
	}
}
