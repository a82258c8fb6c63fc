package http

import (
	"context"
	"io"
	"sync"

	"github.com/fjod/go_storefront/internal/backend"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/fjod/go_storefront/internal/session"
)

type fakeCatalog struct {
	products  []domain.Product
	reloadErr error
	reloads   int
}

func (f *fakeCatalog) Status() catalog.Status {
	return catalog.Status{State: catalog.StateLoaded, Products: len(f.products)}
}

func (f *fakeCatalog) Reload(context.Context) error {
	f.reloads++
	return f.reloadErr
}

func (f *fakeCatalog) Products() []domain.Product {
	return append([]domain.Product(nil), f.products...)
}

func (f *fakeCatalog) Product(id string) (domain.Product, bool) {
	for _, p := range f.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

type fakeProducts struct {
	product *domain.Product
	err     error
}

func (f *fakeProducts) GetProduct(context.Context, string) (*domain.Product, error) {
	return f.product, f.err
}

type addCall struct {
	productID, size, color string
	quantity               int
}

type fakeCart struct {
	mu      sync.Mutex
	items   domain.CartItems
	adds    []addCall
	accept  bool
	cleared bool
}

func newFakeCart() *fakeCart {
	return &fakeCart{items: domain.CartItems{}, accept: true}
}

func (f *fakeCart) AddItem(_ context.Context, productID, size string, quantity int, color string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, addCall{productID: productID, size: size, color: color, quantity: quantity})
	if !f.accept {
		return false
	}
	if f.items[productID] == nil {
		f.items[productID] = map[domain.Variant]int{}
	}
	f.items[productID][domain.Variant{Size: size, Color: color}] += quantity
	return true
}

func (f *fakeCart) UpdateQuantity(_ context.Context, productID, size, color string, quantity int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := domain.Variant{Size: size, Color: color}
	if quantity <= 0 {
		delete(f.items[productID], v)
		if len(f.items[productID]) == 0 {
			delete(f.items, productID)
		}
		return true
	}
	if f.items[productID] == nil {
		f.items[productID] = map[domain.Variant]int{}
	}
	f.items[productID][v] = quantity
	return true
}

func (f *fakeCart) RemoveItem(_ context.Context, productID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[productID]; !ok {
		return false
	}
	delete(f.items, productID)
	return true
}

func (f *fakeCart) Clear(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = domain.CartItems{}
	f.cleared = true
}

func (f *fakeCart) Snapshot() domain.CartItems {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items.Clone()
}

func (f *fakeCart) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items.Units()
}

type fakeCheckout struct {
	result  *checkout.Result
	err     error
	lastReq checkout.Request
	preview checkout.Preview
}

func (f *fakeCheckout) Submit(_ context.Context, req checkout.Request) (*checkout.Result, error) {
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeCheckout) Preview() checkout.Preview { return f.preview }

func (f *fakeCheckout) Status() checkout.StatusReport {
	return checkout.StatusReport{Status: domain.CheckoutStatusIdle}
}

type fakeOrders struct {
	list      []domain.Order
	err       error
	lastUser  string
	lastRange orders.Range
}

func (f *fakeOrders) History(_ context.Context, userID string) ([]domain.Order, error) {
	f.lastUser = userID
	return f.list, f.err
}

func (f *fakeOrders) All(_ context.Context, r orders.Range) ([]domain.Order, error) {
	f.lastRange = r
	return f.list, f.err
}

func (f *fakeOrders) Analytics(context.Context) (orders.Metrics, error) {
	return orders.MonthlyMetrics(f.list), f.err
}

type fakeSessions struct {
	userID    string
	admin     bool
	loginErr  error
	logoutErr error
}

func (f *fakeSessions) Login(_ context.Context, creds backend.Credentials) (session.State, error) {
	if f.loginErr != nil {
		return session.State{}, f.loginErr
	}
	f.userID = "user-" + creds.Email
	return f.State(), nil
}

func (f *fakeSessions) Logout(context.Context) error {
	f.userID = ""
	return f.logoutErr
}

func (f *fakeSessions) Validate(context.Context) (session.State, error) {
	return f.State(), nil
}

func (f *fakeSessions) AdminLogin(context.Context, backend.Credentials) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.admin = true
	return nil
}

func (f *fakeSessions) AdminLogout()  { f.admin = false }
func (f *fakeSessions) IsAdmin() bool { return f.admin }

func (f *fakeSessions) RequireUser() (string, error) {
	if f.userID == "" {
		return "", session.ErrNotLoggedIn
	}
	return f.userID, nil
}

func (f *fakeSessions) State() session.State {
	return session.State{LoggedIn: f.userID != "", UserID: f.userID, Admin: f.admin}
}

type fakeAccounts struct {
	signups []backend.SignupRequest
	err     error
}

func (f *fakeAccounts) Signup(_ context.Context, req backend.SignupRequest) error {
	f.signups = append(f.signups, req)
	return f.err
}

func (f *fakeAccounts) ForgotPassword(context.Context, string) error { return f.err }

func (f *fakeAccounts) ResetPassword(context.Context, string, string) error { return f.err }

type fakeAdmin struct {
	created   []backend.ProductForm
	imageData []string
	deleted   []string
	updates   map[string]domain.OrderUpdate
	err       error
}

func (f *fakeAdmin) CreateProduct(_ context.Context, form backend.ProductForm) error {
	f.created = append(f.created, form)
	for _, img := range form.Images {
		data, _ := io.ReadAll(img.Data)
		f.imageData = append(f.imageData, string(data))
	}
	return f.err
}

func (f *fakeAdmin) UpdateProduct(_ context.Context, _ string, form backend.ProductForm) error {
	f.created = append(f.created, form)
	return f.err
}

func (f *fakeAdmin) DeleteProduct(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeAdmin) UpdateOrder(_ context.Context, id string, update domain.OrderUpdate) error {
	if f.updates == nil {
		f.updates = map[string]domain.OrderUpdate{}
	}
	f.updates[id] = update
	return f.err
}

func (f *fakeAdmin) DeleteOrder(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}
