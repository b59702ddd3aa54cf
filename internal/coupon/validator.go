package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tapandbuy/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	minCodeLength = 3
	maxCodeLength = 32
)

// Ineligibility messages, one per check.
const (
	MsgInvalidCode   = "Invalid coupon code"
	MsgNotStarted    = "This coupon is not active yet"
	MsgExpired       = "This coupon has expired"
	MsgUsageExceeded = "This coupon has reached its usage limit"
	MsgApplied       = "Coupon applied"
)

var hundred = decimal.NewFromInt(100)

// validator implements Validator on top of a coupon Store.
type validator struct {
	store  Store
	now    func() time.Time
	logger zerolog.Logger
}

// ValidatorConfig holds configuration for the coupon validator.
type ValidatorConfig struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultValidatorConfig returns the default validator configuration.
func DefaultValidatorConfig() *ValidatorConfig {
	return &ValidatorConfig{Now: time.Now}
}

// NewValidator creates a new coupon validator.
func NewValidator(config *ValidatorConfig, store Store, logger zerolog.Logger) Validator {
	if config == nil {
		config = DefaultValidatorConfig()
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &validator{
		store:  store,
		now:    config.Now,
		logger: logger.With().Str("component", "coupon-validator").Logger(),
	}
}

// NormalizeCode trims and upper-cases a code and checks its length.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < minCodeLength {
		return "", model.ValidationError("coupon code is too short")
	}
	if len(code) > maxCodeLength {
		return "", model.ValidationError("coupon code is too long")
	}
	return code, nil
}

// Validate checks a coupon code against the cart totals.
func (v *validator) Validate(ctx context.Context, code string, subtotal decimal.Decimal, totalQuantity int) (*Result, error) {
	normalized, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	c, err := v.store.GetByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	if c == nil || !c.IsActive {
		v.logger.Debug().Str("coupon_code", normalized).Msg("coupon not found or inactive")
		return &Result{Valid: false, Discount: decimal.Zero, Message: MsgInvalidCode}, nil
	}

	if msg := checkAvailability(c, v.now()); msg != "" {
		v.logger.Debug().Str("coupon_code", normalized).Str("reason", msg).Msg("coupon unavailable")
		return &Result{Valid: false, Coupon: c, Discount: decimal.Zero, Message: msg}, nil
	}

	if msg := checkMinimums(c, subtotal, totalQuantity); msg != "" {
		v.logger.Debug().Str("coupon_code", normalized).Str("reason", msg).Msg("cart does not meet coupon minimums")
		return &Result{Valid: false, Coupon: c, Discount: decimal.Zero, Message: msg}, nil
	}

	discount := Discount(c, subtotal)

	v.logger.Debug().
		Str("coupon_code", normalized).
		Str("discount", discount.String()).
		Msg("coupon validated successfully")

	return &Result{Valid: true, Coupon: c, Discount: discount, Message: MsgApplied}, nil
}

// Eligible lists active, in-window coupons with remaining uses, annotated
// with the outcome of the minimum order value and item count checks.
func (v *validator) Eligible(ctx context.Context, subtotal decimal.Decimal, totalQuantity int) ([]model.EligibleCoupon, error) {
	coupons, err := v.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	now := v.now()
	result := make([]model.EligibleCoupon, 0, len(coupons))
	for i := range coupons {
		c := coupons[i]
		if !c.IsActive || checkAvailability(&c, now) != "" {
			continue
		}

		ec := model.EligibleCoupon{Coupon: c, Discount: decimal.Zero}
		if msg := checkMinimums(&c, subtotal, totalQuantity); msg != "" {
			ec.IneligibleReason = msg
		} else {
			ec.IsEligible = true
			ec.Discount = Discount(&c, subtotal)
		}
		result = append(result, ec)
	}

	return result, nil
}

// RecordUsage appends a usage row and bumps used_count inside tx.
func (v *validator) RecordUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error {
	if err := v.store.RecordUsage(ctx, tx, usage); err != nil {
		v.logger.Error().
			Err(err).
			Str("coupon_id", usage.CouponID.String()).
			Str("order_id", usage.OrderID.String()).
			Msg("failed to record coupon usage")
		return err
	}
	return nil
}

// Discount computes what a coupon takes off the subtotal. Fixed coupons
// apply their full value and MaxDiscount caps either type when set. An
// amount above what the order costs is left for pricing to clamp and flag.
func Discount(c *model.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.DiscountType {
	case model.DiscountTypeFixed:
		amount = c.DiscountValue
	case model.DiscountTypePercentage:
		amount = subtotal.Mul(c.DiscountValue).Div(hundred).Round(2)
	default:
		return decimal.Zero
	}

	if c.MaxDiscount != nil && c.MaxDiscount.IsPositive() && amount.GreaterThan(*c.MaxDiscount) {
		amount = *c.MaxDiscount
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// checkAvailability runs the date window and usage cap checks.
func checkAvailability(c *model.Coupon, now time.Time) string {
	if now.Before(c.ValidFrom) {
		return MsgNotStarted
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return MsgExpired
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return MsgUsageExceeded
	}
	return ""
}

// checkMinimums runs the minimum order value and item count checks.
func checkMinimums(c *model.Coupon, subtotal decimal.Decimal, totalQuantity int) string {
	if subtotal.LessThan(c.MinOrderValue) {
		return fmt.Sprintf("Minimum order value of ₹%s required", c.MinOrderValue.String())
	}
	if totalQuantity < c.MinItems {
		return fmt.Sprintf("Add at least %d items to use this coupon", c.MinItems)
	}
	return ""
}
