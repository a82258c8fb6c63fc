package http

import (
	"context"

	"github.com/fjod/go_storefront/internal/backend"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/fjod/go_storefront/internal/session"
)

type CatalogService interface {
	Status() catalog.Status
	Reload(ctx context.Context) error
	Products() []domain.Product
	Product(id string) (domain.Product, bool)
}

type ProductBackend interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type CartStore interface {
	AddItem(ctx context.Context, productID, size string, quantity int, color string) bool
	UpdateQuantity(ctx context.Context, productID, size, color string, quantity int) bool
	RemoveItem(ctx context.Context, productID string) bool
	Clear(ctx context.Context)
	Snapshot() domain.CartItems
}

type CheckoutService interface {
	Submit(ctx context.Context, req checkout.Request) (*checkout.Result, error)
	Preview() checkout.Preview
	Status() checkout.StatusReport
}

type OrdersService interface {
	History(ctx context.Context, userID string) ([]domain.Order, error)
	All(ctx context.Context, r orders.Range) ([]domain.Order, error)
	Analytics(ctx context.Context) (orders.Metrics, error)
}

type SessionManager interface {
	Login(ctx context.Context, creds backend.Credentials) (session.State, error)
	Logout(ctx context.Context) error
	Validate(ctx context.Context) (session.State, error)
	AdminLogin(ctx context.Context, creds backend.Credentials) error
	AdminLogout()
	IsAdmin() bool
	RequireUser() (string, error)
	State() session.State
}

// AccountBackend covers the account endpoints that keep no local state.
type AccountBackend interface {
	Signup(ctx context.Context, signup backend.SignupRequest) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, password string) error
}

type AdminBackend interface {
	CreateProduct(ctx context.Context, form backend.ProductForm) error
	UpdateProduct(ctx context.Context, id string, form backend.ProductForm) error
	DeleteProduct(ctx context.Context, id string) error
	UpdateOrder(ctx context.Context, id string, update domain.OrderUpdate) error
	DeleteOrder(ctx context.Context, id string) error
}
