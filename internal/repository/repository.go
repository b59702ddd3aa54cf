package repository

import (
	"context"

	"tapandbuy/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxBeginner starts database transactions.
type TxBeginner interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List retrieves products matching the filter, newest first.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	SetImage(ctx context.Context, id uuid.UUID, imageURL string) error

	// Delete removes a product. It reports whether a row was deleted.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// DecrementStock takes quantity units of stock inside tx. It returns
	// ErrInsufficientStock when fewer units remain.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error
}

// CategoryRepository defines data access for product categories.
type CategoryRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// BannerRepository defines data access for storefront banners.
type BannerRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.Banner, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Banner, error)
	Create(ctx context.Context, b *model.Banner) error
	Update(ctx context.Context, b *model.Banner) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// CartRepository defines data access for cart lines. Every method is scoped
// to the owning user.
type CartRepository interface {
	// List returns the user's cart joined with live product data, oldest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)

	// Add inserts a line or increments the quantity of an existing one.
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) error

	// SetQuantity reports whether the line existed.
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (bool, error)

	// Remove reports whether the line existed.
	Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error)

	// Clear empties the cart. A nil tx runs on the pool.
	Clear(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
}

// AddressRepository defines data access for delivery addresses.
type AddressRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Address, error)

	// Create inserts the address. When it is the default, the user's other
	// addresses are unset in the same transaction.
	Create(ctx context.Context, a *model.Address) error
	Update(ctx context.Context, a *model.Address) (bool, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	SetDefault(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	TxBeginner

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// Update writes the mutable lifecycle fields if the stored version still
	// equals order.Version, then bumps order.Version. A stale version yields
	// ErrConcurrentUpdate.
	Update(ctx context.Context, order *model.Order) error
}

// CouponRepository defines data access for coupons and their usage ledger.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)

	// ListActive returns active coupons. Date and usage checks are left to
	// the caller so results are evaluated against one clock.
	ListActive(ctx context.Context) ([]model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)

	Create(ctx context.Context, c *model.Coupon) error
	Update(ctx context.Context, c *model.Coupon) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// Upsert inserts or replaces a coupon by code. A zero ValidFrom leaves
	// the stored start date alone and means now for a new code.
	Upsert(ctx context.Context, c *model.Coupon) error

	// RecordUsage appends the usage row and increments used_count inside tx.
	// It returns ErrCouponIneligible when the usage cap is already reached.
	RecordUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error
}

// ReturnRepository defines data access for return requests.
type ReturnRepository interface {
	Create(ctx context.Context, r *model.ReturnRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ReturnRequest, error)
	List(ctx context.Context, status *model.ReturnStatus) ([]model.ReturnRequest, error)

	// Update is a compare-and-swap on r.Version, like OrderRepository.Update.
	Update(ctx context.Context, r *model.ReturnRequest) error
}

// NotificationRepository defines data access for in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead reports whether the notification exists for the user.
	MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error)

	// MarkAllRead returns the number of notifications changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ProfileRepository defines data access for account profiles.
type ProfileRepository interface {
	// GetProfile returns the user's profile, creating an empty one on first access.
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	MarkFirstOrderUsed(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
}

// DeviceRepository records devices that redeemed the first-order discount.
type DeviceRepository interface {
	DeviceRedeemed(ctx context.Context, deviceID string) (bool, error)

	// RecordDevice inserts the device inside tx. An existing row is left
	// untouched and ErrCouponIneligible is returned.
	RecordDevice(ctx context.Context, tx pgx.Tx, device *model.FirstOrderDevice) error
}
