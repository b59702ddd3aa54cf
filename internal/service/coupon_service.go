package service

import (
	"context"
	"fmt"

	"tapandbuy/internal/coupon"
	"tapandbuy/internal/model"
	"tapandbuy/internal/pricing"
	"tapandbuy/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type couponService struct {
	couponRepo repository.CouponRepository
	cartRepo   repository.CartRepository
	validator  coupon.Validator
	logger     zerolog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(
	couponRepo repository.CouponRepository,
	cartRepo repository.CartRepository,
	validator coupon.Validator,
	logger zerolog.Logger,
) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		cartRepo:   cartRepo,
		validator:  validator,
		logger:     logger.With().Str("service", "coupon").Logger(),
	}
}

func (s *couponService) cartTotals(ctx context.Context, userID uuid.UUID) (decimal.Decimal, int, error) {
	items, err := s.cartRepo.List(ctx, userID)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to get cart: %w", err)
	}
	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return pricing.Subtotal(lines), pricing.TotalQuantity(lines), nil
}

// Validate checks a code against the caller's current cart.
func (s *couponService) Validate(ctx context.Context, userID uuid.UUID, code string) (*coupon.Result, error) {
	subtotal, qty, err := s.cartTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.validator.Validate(ctx, code, subtotal, qty)
}

// Eligible lists redeemable coupons for the caller's current cart.
func (s *couponService) Eligible(ctx context.Context, userID uuid.UUID) ([]model.EligibleCoupon, error) {
	subtotal, qty, err := s.cartTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.validator.Eligible(ctx, subtotal, qty)
}

func (s *couponService) List(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get coupons: %w", err)
	}
	return coupons, nil
}

func (s *couponService) Create(ctx context.Context, c *model.Coupon) error {
	if err := validateCoupon(c); err != nil {
		return err
	}
	c.ID = uuid.New()
	c.UsedCount = 0
	if err := s.couponRepo.Create(ctx, c); err != nil {
		return err
	}
	s.logger.Info().Str("coupon_code", c.Code).Msg("coupon created")
	return nil
}

func (s *couponService) Update(ctx context.Context, c *model.Coupon) error {
	if err := validateCoupon(c); err != nil {
		return err
	}
	found, err := s.couponRepo.Update(ctx, c)
	if err != nil {
		return err
	}
	if !found {
		return model.ErrCouponNotFound
	}
	return nil
}

// Delete removes a coupon, or deactivates it when orders reference it.
func (s *couponService) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.couponRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return model.ErrCouponNotFound
	}
	return nil
}

func validateCoupon(c *model.Coupon) error {
	code, err := coupon.NormalizeCode(c.Code)
	if err != nil {
		return err
	}
	c.Code = code

	switch c.DiscountType {
	case model.DiscountTypeFixed:
	case model.DiscountTypePercentage:
		if c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return model.ValidationError("percentage discount cannot exceed 100")
		}
	default:
		return model.ValidationError(fmt.Sprintf("unknown discount type %q", c.DiscountType))
	}

	if !c.DiscountValue.IsPositive() {
		return model.ValidationError("discount value must be positive")
	}
	if c.MaxDiscount != nil && c.MaxDiscount.IsNegative() {
		return model.ValidationError("max discount cannot be negative")
	}
	if c.MinOrderValue.IsNegative() {
		return model.ValidationError("minimum order value cannot be negative")
	}
	if c.MinItems < 0 {
		return model.ValidationError("minimum items cannot be negative")
	}
	if c.MaxUses != nil && *c.MaxUses <= 0 {
		return model.ValidationError("max uses must be positive")
	}
	if c.ValidUntil != nil && !c.ValidFrom.IsZero() && c.ValidUntil.Before(c.ValidFrom) {
		return model.ValidationError("valid until must be after valid from")
	}
	return nil
}
