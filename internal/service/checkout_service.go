package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"tapandbuy/internal/coupon"
	"tapandbuy/internal/events"
	"tapandbuy/internal/fraud"
	"tapandbuy/internal/model"
	"tapandbuy/internal/pricing"
	"tapandbuy/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const orderCodePrefix = "TAB-"

// NewOrderCode builds a human-readable order code such as TAB-20250114-9F3A1C.
func NewOrderCode(now time.Time) string {
	id := uuid.New()
	return orderCodePrefix + now.Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(id[:3]))
}

// checkoutService implements CheckoutService.
type checkoutService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	addressRepo repository.AddressRepository
	validator   coupon.Validator
	fraud       fraud.Checker
	notifier    *notifier
	now         func() time.Time
	logger      zerolog.Logger
}

// CheckoutDeps groups the collaborators of the checkout service.
type CheckoutDeps struct {
	Orders        repository.OrderRepository
	Cart          repository.CartRepository
	Products      repository.ProductRepository
	Addresses     repository.AddressRepository
	Notifications repository.NotificationRepository
	Coupons       coupon.Validator
	Fraud         fraud.Checker
	Publisher     events.Publisher
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(deps CheckoutDeps, logger zerolog.Logger) CheckoutService {
	logger = logger.With().Str("service", "checkout").Logger()
	return &checkoutService{
		orderRepo:   deps.Orders,
		cartRepo:    deps.Cart,
		productRepo: deps.Products,
		addressRepo: deps.Addresses,
		validator:   deps.Coupons,
		fraud:       deps.Fraud,
		notifier:    newNotifier(deps.Notifications, deps.Publisher, logger),
		now:         time.Now,
		logger:      logger,
	}
}

// pricedCart is everything a quote was computed from.
type pricedCart struct {
	result   *QuoteResult
	coupon   *coupon.Result
	deviceID string
}

func (s *checkoutService) priceCart(ctx context.Context, userID uuid.UUID, selection model.DiscountKind, code string, device model.DeviceContext) (*pricedCart, error) {
	if !selection.Valid() {
		return nil, model.ValidationError(fmt.Sprintf("unknown discount selection %q", selection))
	}
	if selection == "" {
		selection = model.DiscountNone
	}

	items, err := s.cartRepo.List(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if len(items) == 0 {
		return nil, model.ErrEmptyCart
	}

	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	subtotal := pricing.Subtotal(lines)
	qty := pricing.TotalQuantity(lines)

	deviceID := fraud.DeviceID(device)
	eligible, err := s.fraud.Eligible(ctx, userID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check first order eligibility: %w", err)
	}

	in := pricing.Input{
		Lines:              lines,
		Selection:          selection,
		CouponDiscount:     decimal.Zero,
		FirstOrderEligible: eligible,
	}

	var couponResult *coupon.Result
	if selection == model.DiscountCoupon {
		if strings.TrimSpace(code) == "" {
			return nil, model.ValidationError("coupon code is required")
		}
		couponResult, err = s.validator.Validate(ctx, code, subtotal, qty)
		if err != nil {
			return nil, err
		}
		if couponResult.Valid {
			in.CouponDiscount = couponResult.Discount
		}
	}

	q := pricing.Compute(in)
	if q.Anomaly {
		s.logger.Warn().
			Str("user_id", userID.String()).
			Str("subtotal", q.Subtotal.String()).
			Str("discount", q.Discount.String()).
			Msg("discounts exceed payable amount, total clamped to zero")
	}

	result := &QuoteResult{Items: items, Quote: q}
	if couponResult != nil {
		result.CouponMessage = couponResult.Message
	}

	return &pricedCart{result: result, coupon: couponResult, deviceID: deviceID}, nil
}

// Quote prices the caller's cart.
func (s *checkoutService) Quote(ctx context.Context, userID uuid.UUID, req model.QuoteRequest) (*QuoteResult, error) {
	priced, err := s.priceCart(ctx, userID, req.Selection, req.CouponCode, req.Device)
	if err != nil {
		return nil, err
	}
	return priced.result, nil
}

// PlaceOrder re-prices the cart server-side and writes the order, its item
// snapshots, stock, coupon usage, first-order redemption and the cleared cart
// in one transaction.
func (s *checkoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, req model.PlaceOrderRequest) (*model.OrderResponse, error) {
	if req.AddressID == uuid.Nil {
		return nil, model.ValidationError("address is required")
	}

	address, err := s.addressRepo.GetByID(ctx, userID, req.AddressID)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if address == nil {
		return nil, model.ValidationError("address not found")
	}

	priced, err := s.priceCart(ctx, userID, req.Selection, req.CouponCode, req.Device)
	if err != nil {
		return nil, err
	}
	if priced.coupon != nil && !priced.coupon.Valid {
		s.logger.Warn().
			Str("user_id", userID.String()).
			Str("coupon_code", req.CouponCode).
			Str("reason", priced.coupon.Message).
			Msg("invalid coupon code")
		return nil, model.NewDomainError(model.ErrCodeCouponIneligible, priced.coupon.Message)
	}

	if err := checkAvailability(priced.result.Items); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	q := priced.result.Quote
	order := &model.Order{
		ID:                 uuid.New(),
		OrderCode:          NewOrderCode(now),
		UserID:             userID,
		AddressID:          address.ID,
		Subtotal:           q.Subtotal,
		PlatformFee:        q.PlatformFee,
		DeliveryFee:        q.DeliveryFee,
		OfferDiscount:      q.OfferDiscount,
		CouponDiscount:     q.CouponDiscount,
		FirstOrderDiscount: q.FirstOrderDiscount,
		Discount:           q.Discount,
		Total:              q.Total,
		PaymentReference:   strings.TrimSpace(req.PaymentReference),
		Status:             model.OrderStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if priced.coupon != nil {
		couponID := priced.coupon.Coupon.ID
		order.CouponID = &couponID
	}

	orderItems := make([]model.OrderItem, len(priced.result.Items))
	for i, item := range priced.result.Items {
		orderItems[i] = model.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    item.ProductID,
			ProductName:  item.Name,
			ProductPrice: item.UnitPrice,
			Quantity:     item.Quantity,
			Subtotal:     item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
	}

	// Start transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(orderItems)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	for _, item := range orderItems {
		if err = s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if order.CouponID != nil {
		err = s.validator.RecordUsage(ctx, tx, &model.CouponUsage{
			ID:             uuid.New(),
			CouponID:       *order.CouponID,
			OrderID:        order.ID,
			UserID:         userID,
			DiscountAmount: order.CouponDiscount,
			UsedAt:         now,
		})
		if err != nil {
			return nil, err
		}
	}

	if order.FirstOrderDiscount.IsPositive() {
		err = s.fraud.RecordRedemption(ctx, tx, &model.FirstOrderDevice{
			DeviceID:        priced.deviceID,
			UserID:          userID,
			OrderID:         order.ID,
			DiscountApplied: order.FirstOrderDiscount,
			CreatedAt:       now,
		})
		if err != nil {
			return nil, err
		}
	}

	if err = s.cartRepo.Clear(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	// Commit transaction
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_code", order.OrderCode).
		Int("item_count", len(orderItems)).
		Str("total", order.Total.String()).
		Msg("order placed successfully")

	s.notifier.announce(ctx, notice{
		userID:    userID,
		entityID:  order.ID,
		kind:      model.NotificationOrder,
		title:     "Order placed",
		message:   fmt.Sprintf("Your order %s for %s has been placed.", order.OrderCode, formatAmount(order.Total)),
		eventType: events.OrderPlaced,
		payload: map[string]any{
			"orderCode": order.OrderCode,
			"total":     order.Total.String(),
			"items":     len(orderItems),
		},
	})

	return &model.OrderResponse{Order: *order, Items: orderItems}, nil
}

// checkAvailability rejects carts holding inactive products or more units
// than are in stock.
func checkAvailability(items []model.CartItem) error {
	for _, item := range items {
		if !item.IsActive {
			return model.NewDomainError(model.ErrCodeProductNotFound,
				fmt.Sprintf("%s is no longer available", item.Name))
		}
		if item.Quantity > item.StockQuantity {
			return model.NewDomainError(model.ErrCodeInsufficientStock,
				fmt.Sprintf("only %d of %s left in stock", item.StockQuantity, item.Name))
		}
	}
	return nil
}
