package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon's value is interpreted.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// DiscountKind is the single promotional discount applied to an order.
// A coupon and the quantity-tier offer are mutually exclusive.
type DiscountKind string

const (
	DiscountNone   DiscountKind = "none"
	DiscountCoupon DiscountKind = "coupon"
	DiscountOffer  DiscountKind = "offer"
)

// Valid reports whether k is one of the three selector states. The empty
// string is treated as none by callers.
func (k DiscountKind) Valid() bool {
	switch k {
	case DiscountNone, DiscountCoupon, DiscountOffer, "":
		return true
	}
	return false
}

// Coupon is a promotional code.
type Coupon struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Code          string           `json:"code" db:"code"`
	Description   string           `json:"description,omitempty" db:"description"`
	DiscountType  DiscountType     `json:"discountType" db:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discountValue" db:"discount_value"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount,omitempty" db:"max_discount"`
	MinOrderValue decimal.Decimal  `json:"minOrderValue" db:"min_order_value"`
	MinItems      int              `json:"minItems" db:"min_items"`
	MaxUses       *int             `json:"maxUses,omitempty" db:"max_uses"`
	UsedCount     int              `json:"usedCount" db:"used_count"`
	ValidFrom     time.Time        `json:"validFrom" db:"valid_from"`
	ValidUntil    *time.Time       `json:"validUntil,omitempty" db:"valid_until"`
	IsActive      bool             `json:"isActive" db:"is_active"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
}

// CouponUsage links a redeemed coupon to the order that used it.
type CouponUsage struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	CouponID       uuid.UUID       `json:"couponId" db:"coupon_id"`
	OrderID        uuid.UUID       `json:"orderId" db:"order_id"`
	UserID         uuid.UUID       `json:"userId" db:"user_id"`
	DiscountAmount decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	UsedAt         time.Time       `json:"usedAt" db:"used_at"`
}

// EligibleCoupon annotates a coupon with whether the current cart qualifies.
type EligibleCoupon struct {
	Coupon
	IsEligible       bool            `json:"isEligible"`
	IneligibleReason string          `json:"ineligibleReason,omitempty"`
	Discount         decimal.Decimal `json:"discount"`
}

// CouponValidateRequest is the payload for checking a code against the cart.
type CouponValidateRequest struct {
	Code string `json:"code"`
}
