package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tapandbuy/internal/auth"
	"tapandbuy/internal/handler"
	"tapandbuy/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups every HTTP handler the API serves.
type Handlers struct {
	Products      *handler.ProductHandler
	Catalog       *handler.CatalogHandler
	Cart          *handler.CartHandler
	Checkout      *handler.CheckoutHandler
	Orders        *handler.OrderHandler
	Coupons       *handler.CouponHandler
	Addresses     *handler.AddressHandler
	Notifications *handler.NotificationHandler
}

// Options configures the cross-cutting middleware.
type Options struct {
	Verifier       *auth.Verifier
	AllowedOrigin  string
	RequestTimeout time.Duration

	// Ping reports whether the database is reachable. Nil skips the check.
	Ping func(ctx context.Context) error
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	user := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireUser(opts.Verifier, logger)(fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.Chain(fn,
			middleware.RequireUser(opts.Verifier, logger),
			middleware.RequireAdmin(logger),
		)
	}

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", health(opts.Ping))

	// Storefront
	mux.HandleFunc("GET /api/products", h.Products.List)
	mux.HandleFunc("GET /api/products/{id}", h.Products.GetByID)
	mux.HandleFunc("GET /api/categories", h.Catalog.ListCategories)
	mux.HandleFunc("GET /api/banners", h.Catalog.ListBanners)

	// Cart and checkout
	mux.Handle("GET /api/cart", user(h.Cart.List))
	mux.Handle("POST /api/cart", user(h.Cart.Add))
	mux.Handle("DELETE /api/cart", user(h.Cart.Clear))
	mux.Handle("PUT /api/cart/{productID}", user(h.Cart.Update))
	mux.Handle("DELETE /api/cart/{productID}", user(h.Cart.Remove))
	mux.Handle("POST /api/cart/summary", user(h.Cart.Summary))
	mux.Handle("GET /api/coupons/eligible", user(h.Coupons.Eligible))
	mux.Handle("POST /api/coupons/validate", user(h.Coupons.Validate))
	mux.Handle("POST /api/checkout/quote", user(h.Checkout.Quote))

	// Orders and returns
	mux.Handle("POST /api/orders", user(h.Checkout.PlaceOrder))
	mux.Handle("GET /api/orders", user(h.Orders.ListMine))
	mux.Handle("GET /api/orders/{id}", user(h.Orders.GetMine))
	mux.Handle("POST /api/orders/{id}/cancellation", user(h.Orders.RequestCancellation))
	mux.Handle("POST /api/orders/{id}/returns", user(h.Orders.RequestReturn))
	mux.Handle("GET /api/returns", user(h.Orders.ListMyReturns))

	// Addresses
	mux.Handle("GET /api/addresses", user(h.Addresses.List))
	mux.Handle("POST /api/addresses", user(h.Addresses.Create))
	mux.Handle("PUT /api/addresses/{id}", user(h.Addresses.Update))
	mux.Handle("DELETE /api/addresses/{id}", user(h.Addresses.Delete))
	mux.Handle("POST /api/addresses/{id}/default", user(h.Addresses.SetDefault))

	// Notifications
	mux.Handle("GET /api/notifications", user(h.Notifications.List))
	mux.Handle("GET /api/notifications/unread-count", user(h.Notifications.UnreadCount))
	mux.Handle("POST /api/notifications/{id}/read", user(h.Notifications.MarkRead))
	mux.Handle("POST /api/notifications/read-all", user(h.Notifications.MarkAllRead))

	// Admin
	mux.Handle("GET /api/admin/products", admin(h.Products.AdminList))
	mux.Handle("POST /api/admin/products", admin(h.Products.Create))
	mux.Handle("PUT /api/admin/products/{id}", admin(h.Products.Update))
	mux.Handle("DELETE /api/admin/products/{id}", admin(h.Products.Delete))
	mux.Handle("POST /api/admin/products/{id}/image", admin(h.Products.UploadImage))

	mux.Handle("GET /api/admin/categories", admin(h.Catalog.AdminListCategories))
	mux.Handle("POST /api/admin/categories", admin(h.Catalog.CreateCategory))
	mux.Handle("PUT /api/admin/categories/{id}", admin(h.Catalog.UpdateCategory))
	mux.Handle("DELETE /api/admin/categories/{id}", admin(h.Catalog.DeleteCategory))

	mux.Handle("GET /api/admin/banners", admin(h.Catalog.AdminListBanners))
	mux.Handle("POST /api/admin/banners", admin(h.Catalog.CreateBanner))
	mux.Handle("PUT /api/admin/banners/{id}", admin(h.Catalog.UpdateBanner))
	mux.Handle("DELETE /api/admin/banners/{id}", admin(h.Catalog.DeleteBanner))
	mux.Handle("POST /api/admin/banners/{id}/image", admin(h.Catalog.UploadBannerImage))

	mux.Handle("GET /api/admin/coupons", admin(h.Coupons.List))
	mux.Handle("POST /api/admin/coupons", admin(h.Coupons.Create))
	mux.Handle("PUT /api/admin/coupons/{id}", admin(h.Coupons.Update))
	mux.Handle("DELETE /api/admin/coupons/{id}", admin(h.Coupons.Delete))

	mux.Handle("GET /api/admin/orders", admin(h.Orders.List))
	mux.Handle("GET /api/admin/orders/{id}", admin(h.Orders.Get))
	mux.Handle("PUT /api/admin/orders/{id}/status", admin(h.Orders.UpdateStatus))
	mux.Handle("POST /api/admin/orders/{id}/cancellation", admin(h.Orders.DecideCancellation))
	mux.Handle("GET /api/admin/returns", admin(h.Orders.ListReturns))
	mux.Handle("PUT /api/admin/returns/{id}", admin(h.Orders.ReviewReturn))

	// Apply middleware in order: Recovery -> Logging -> CORS -> Timeout
	return middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.CORS(opts.AllowedOrigin),
		middleware.Timeout(opts.RequestTimeout),
	)
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}
