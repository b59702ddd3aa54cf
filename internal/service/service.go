package service

import (
	"context"

	"tapandbuy/internal/coupon"
	"tapandbuy/internal/model"
	"tapandbuy/internal/pricing"

	"github.com/google/uuid"
)

// Pagination bounds shared by list endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ProductService defines operations for the product catalogue.
type ProductService interface {
	// List returns active products, optionally filtered by category.
	List(ctx context.Context, categoryID *uuid.UUID, limit, offset int) ([]model.Product, error)

	// GetByID returns an active product, served from the cache when possible.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// AdminList returns products regardless of status.
	AdminList(ctx context.Context, limit, offset int) ([]model.Product, error)
	Create(ctx context.Context, in model.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in model.ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// UploadImage stores a new product image and removes the previous one.
	UploadImage(ctx context.Context, id uuid.UUID, contentType string, data []byte) (*model.Product, error)
}

// CatalogService manages categories and banners.
type CatalogService interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error)
	CreateCategory(ctx context.Context, c *model.Category) error
	UpdateCategory(ctx context.Context, c *model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListBanners(ctx context.Context, activeOnly bool) ([]model.Banner, error)
	CreateBanner(ctx context.Context, b *model.Banner) error
	UpdateBanner(ctx context.Context, b *model.Banner) error
	DeleteBanner(ctx context.Context, id uuid.UUID) error
	UploadBannerImage(ctx context.Context, id uuid.UUID, contentType string, data []byte) (*model.Banner, error)
}

// CartService manages the caller's cart.
type CartService interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	Add(ctx context.Context, userID uuid.UUID, req model.CartAddRequest) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// QuoteResult is the priced cart.
type QuoteResult struct {
	Items []model.CartItem `json:"items"`
	pricing.Quote

	// CouponMessage explains the outcome of the requested coupon, if any.
	CouponMessage string `json:"couponMessage,omitempty"`
}

// EmptyCartQuote is the summary shown for a cart with nothing in it. No
// fees apply until something is added.
func EmptyCartQuote() *QuoteResult {
	return &QuoteResult{
		Items: []model.CartItem{},
		Quote: pricing.Quote{Selection: model.DiscountNone},
	}
}

// CheckoutService prices carts and places orders.
type CheckoutService interface {
	// Quote prices the caller's cart exactly as PlaceOrder would.
	Quote(ctx context.Context, userID uuid.UUID, req model.QuoteRequest) (*QuoteResult, error)

	// PlaceOrder converts the cart into an order in a single transaction.
	PlaceOrder(ctx context.Context, userID uuid.UUID, req model.PlaceOrderRequest) (*model.OrderResponse, error)
}

// OrderService covers the order lifecycle for customers and admins.
type OrderService interface {
	ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)
	GetMine(ctx context.Context, userID, orderID uuid.UUID) (*model.OrderResponse, error)
	RequestCancellation(ctx context.Context, userID, orderID uuid.UUID, req model.CancellationRequest) (*model.Order, error)
	RequestReturn(ctx context.Context, userID, orderID uuid.UUID, req model.ReturnCreateRequest) (*model.ReturnRequest, error)
	ListMyReturns(ctx context.Context, userID uuid.UUID) ([]model.ReturnRequest, error)

	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*model.OrderResponse, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req model.StatusUpdateRequest) (*model.Order, error)
	DecideCancellation(ctx context.Context, orderID uuid.UUID, req model.CancellationDecision) (*model.Order, error)
	ListReturns(ctx context.Context, status *model.ReturnStatus) ([]model.ReturnRequest, error)
	ReviewReturn(ctx context.Context, returnID uuid.UUID, req model.ReturnReview) (*model.ReturnRequest, error)
}

// CouponService validates coupons against the caller's cart and manages them.
type CouponService interface {
	Validate(ctx context.Context, userID uuid.UUID, code string) (*coupon.Result, error)
	Eligible(ctx context.Context, userID uuid.UUID) ([]model.EligibleCoupon, error)

	List(ctx context.Context) ([]model.Coupon, error)
	Create(ctx context.Context, c *model.Coupon) error
	Update(ctx context.Context, c *model.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AddressService manages delivery addresses.
type AddressService interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	Create(ctx context.Context, userID uuid.UUID, a *model.Address) error
	Update(ctx context.Context, userID uuid.UUID, a *model.Address) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
}

// NotificationService exposes the caller's in-app notifications.
type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}
