package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile holds the account attributes the business rules depend on.
type Profile struct {
	UserID               uuid.UUID `json:"userId" db:"user_id"`
	FullName             string    `json:"fullName" db:"full_name"`
	Phone                string    `json:"phone,omitempty" db:"phone"`
	IsAdmin              bool      `json:"isAdmin" db:"is_admin"`
	FirstOrderCouponUsed bool      `json:"firstOrderCouponUsed" db:"first_order_coupon_used"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
}

// CartLine is a product in a user's cart.
type CartLine struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"-" db:"user_id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	AddedAt   time.Time `json:"addedAt" db:"added_at"`
}

// CartItem is a cart line joined with the live product record.
type CartItem struct {
	CartLine
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	StockQuantity int             `json:"stockQuantity"`
	IsActive      bool            `json:"isActive"`
	ImageURL      string          `json:"imageUrl,omitempty"`
}

// CartAddRequest adds quantity of a product to the cart.
type CartAddRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// CartUpdateRequest sets the quantity of a cart line.
type CartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

// Address is a delivery address owned by one account.
type Address struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"-" db:"user_id"`
	FullName  string    `json:"fullName" db:"full_name"`
	Phone     string    `json:"phone" db:"phone"`
	Line1     string    `json:"line1" db:"line1"`
	Line2     string    `json:"line2,omitempty" db:"line2"`
	City      string    `json:"city" db:"city"`
	State     string    `json:"state" db:"state"`
	Pincode   string    `json:"pincode" db:"pincode"`
	IsDefault bool      `json:"isDefault" db:"is_default"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// FirstOrderDevice marks a device as having redeemed the first-order discount.
type FirstOrderDevice struct {
	DeviceID        string          `json:"deviceId" db:"device_id"`
	UserID          uuid.UUID       `json:"userId" db:"user_id"`
	OrderID         uuid.UUID       `json:"orderId" db:"order_id"`
	DiscountApplied decimal.Decimal `json:"discountApplied" db:"discount_applied"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}

// DeviceContext carries the environment signals a client reports so the
// server can derive a device fingerprint. ID is a previously issued
// fingerprint persisted on the device.
type DeviceContext struct {
	ID               string `json:"id,omitempty"`
	UserAgent        string `json:"userAgent,omitempty"`
	Language         string `json:"language,omitempty"`
	ColorDepth       int    `json:"colorDepth,omitempty"`
	ScreenWidth      int    `json:"screenWidth,omitempty"`
	ScreenHeight     int    `json:"screenHeight,omitempty"`
	TimezoneOffset   int    `json:"timezoneOffset,omitempty"`
	StorageAvailable bool   `json:"storageAvailable,omitempty"`
	CanvasHash       string `json:"canvasHash,omitempty"`
}

// Notification is an in-app message for one account.
type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"-" db:"user_id"`
	Title     string     `json:"title" db:"title"`
	Message   string     `json:"message" db:"message"`
	Type      string     `json:"type" db:"type"`
	RelatedID *uuid.UUID `json:"relatedId,omitempty" db:"related_id"`
	IsRead    bool       `json:"isRead" db:"is_read"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// Notification types.
const (
	NotificationOrder  = "order"
	NotificationReturn = "return"
)
