package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order represents a customer order.
type Order struct {
	ID                    uuid.UUID       `json:"id" db:"id"`
	OrderCode             string          `json:"orderCode" db:"order_code"`
	UserID                uuid.UUID       `json:"userId" db:"user_id"`
	AddressID             uuid.UUID       `json:"addressId" db:"address_id"`
	Subtotal              decimal.Decimal `json:"subtotal" db:"subtotal"`
	PlatformFee           decimal.Decimal `json:"platformFee" db:"platform_fee"`
	DeliveryFee           decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	OfferDiscount         decimal.Decimal `json:"offerDiscount" db:"offer_discount"`
	CouponID              *uuid.UUID      `json:"couponId,omitempty" db:"coupon_id"`
	CouponDiscount        decimal.Decimal `json:"couponDiscount" db:"coupon_discount"`
	FirstOrderDiscount    decimal.Decimal `json:"firstOrderDiscount" db:"first_order_discount"`
	Discount              decimal.Decimal `json:"discount" db:"discount"`
	Total                 decimal.Decimal `json:"total" db:"total"`
	PaymentReference      string          `json:"paymentReference,omitempty" db:"payment_reference"`
	Status                OrderStatus     `json:"status" db:"status"`
	TrackingInfo          string          `json:"trackingInfo,omitempty" db:"tracking_info"`
	CancellationRequested bool            `json:"cancellationRequested" db:"cancellation_requested"`
	CancellationReason    string          `json:"cancellationReason,omitempty" db:"cancellation_reason"`
	DeliveredAt           *time.Time      `json:"deliveredAt,omitempty" db:"delivered_at"`
	Version               int             `json:"version" db:"version"`
	CreatedAt             time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is an immutable snapshot of a purchased product.
type OrderItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrderID      uuid.UUID       `json:"-" db:"order_id"`
	ProductID    uuid.UUID       `json:"productId" db:"product_id"`
	ProductName  string          `json:"productName" db:"product_name"`
	ProductPrice decimal.Decimal `json:"productPrice" db:"product_price"`
	Quantity     int             `json:"quantity" db:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// OrderResponse is an order together with its item snapshots.
type OrderResponse struct {
	Order
	Items []OrderItem `json:"items"`
}

// PlaceOrderRequest is the checkout payload.
type PlaceOrderRequest struct {
	AddressID        uuid.UUID     `json:"addressId"`
	Selection        DiscountKind  `json:"selection"`
	CouponCode       string        `json:"couponCode,omitempty"`
	PaymentReference string        `json:"paymentReference,omitempty"`
	Device           DeviceContext `json:"device"`
}

// QuoteRequest asks for a price breakdown of the caller's cart.
type QuoteRequest struct {
	Selection  DiscountKind  `json:"selection"`
	CouponCode string        `json:"couponCode,omitempty"`
	Device     DeviceContext `json:"device"`
}

// StatusUpdateRequest is the admin payload for moving an order forward.
type StatusUpdateRequest struct {
	Status          OrderStatus `json:"status"`
	TrackingInfo    string      `json:"trackingInfo,omitempty"`
	ExpectedVersion *int        `json:"expectedVersion,omitempty"`
}

// CancellationRequest is the customer payload for asking to cancel.
type CancellationRequest struct {
	Reason string `json:"reason"`
}

// CancellationDecision is the admin payload for approving or rejecting a
// pending cancellation request.
type CancellationDecision struct {
	Approve         bool `json:"approve"`
	ExpectedVersion *int `json:"expectedVersion,omitempty"`
}

// OrderFilter narrows an admin order listing.
type OrderFilter struct {
	Status *OrderStatus
	Limit  int
	Offset int
}
