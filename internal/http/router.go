package http

import (
	"net/http"

	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Deps are the services behind the local API.
type Deps struct {
	Catalog  CatalogService
	Products ProductBackend
	Cart     CartStore
	Checkout CheckoutService
	Orders   OrdersService
	Sessions SessionManager
	Accounts AccountBackend
	Admin    AdminBackend
	Logger   *zap.Logger
}

// NewRouter builds the chi router. The returned handler is wrapped with
// otelhttp so every request starts a server span.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	logger := observability.OrNop(deps.Logger)
	timeout := cfg.Server.RequestTimeout

	catalogHandler := NewCatalogHandler(deps.Catalog, deps.Products, timeout)
	cartHandler := NewCartHandler(deps.Cart, deps.Catalog)
	checkoutHandler := NewCheckoutHandler(deps.Checkout, timeout)
	ordersHandler := NewOrdersHandler(deps.Orders, deps.Sessions, deps.Admin, timeout)
	authHandler := NewAuthHandler(deps.Sessions, deps.Accounts, timeout)
	adminProducts := NewAdminProductHandler(deps.Admin, deps.Catalog, timeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLoggerMiddleware(logger))
	r.Use(observability.RecoveryMiddleware(logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(MaxBodyMiddleware(cfg.Server.MaxRequestBodySize))
	if cfg.RateLimit.RequestsPerSecond > 0 {
		r.Use(NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst).Middleware)
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", catalogHandler.Status)
		r.Post("/catalog/reload", catalogHandler.Reload)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogHandler.List)
			r.Get("/categories", catalogHandler.Categories)
			r.Get("/{id}", catalogHandler.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.Preview)
			r.Post("/", checkoutHandler.Submit)
			r.Get("/status", checkoutHandler.Status)
		})

		r.Get("/orders", ordersHandler.ListOrders)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/signup", authHandler.Signup)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
			r.Get("/session", authHandler.Session)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", authHandler.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly(deps.Sessions))

				r.Post("/logout", authHandler.AdminLogout)
				r.Post("/products", adminProducts.Create)
				r.Put("/products/{id}", adminProducts.Update)
				r.Delete("/products/{id}", adminProducts.Delete)
				r.Get("/orders", ordersHandler.ListAll)
				r.Put("/orders/{id}", ordersHandler.Update)
				r.Delete("/orders/{id}", ordersHandler.Delete)
				r.Get("/analytics", ordersHandler.Analytics)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
