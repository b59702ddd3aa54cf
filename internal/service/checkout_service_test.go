package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"tapandbuy/internal/coupon"
	"tapandbuy/internal/events"
	"tapandbuy/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	orders        *MockOrderRepository
	cart          *MockCartRepository
	products      *MockProductRepository
	addresses     *MockAddressRepository
	notifications *MockNotificationRepository
	validator     *MockCouponValidator
	fraud         *MockFraudChecker
	publisher     *recordingPublisher
	service       *checkoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		orders:        new(MockOrderRepository),
		cart:          new(MockCartRepository),
		products:      new(MockProductRepository),
		addresses:     new(MockAddressRepository),
		notifications: new(MockNotificationRepository),
		validator:     new(MockCouponValidator),
		fraud:         new(MockFraudChecker),
		publisher:     &recordingPublisher{},
	}
	svc := NewCheckoutService(CheckoutDeps{
		Orders:        f.orders,
		Cart:          f.cart,
		Products:      f.products,
		Addresses:     f.addresses,
		Notifications: f.notifications,
		Coupons:       f.validator,
		Fraud:         f.fraud,
		Publisher:     f.publisher,
	}, zerolog.Nop())
	f.service = svc.(*checkoutService)
	f.service.now = func() time.Time { return time.Date(2025, 1, 14, 9, 30, 0, 0, time.UTC) }
	return f
}

func cartItem(name string, price int64, qty, stock int) model.CartItem {
	return model.CartItem{
		CartLine:      model.CartLine{ID: uuid.New(), ProductID: uuid.New(), Quantity: qty},
		Name:          name,
		UnitPrice:     decimal.NewFromInt(price),
		StockQuantity: stock,
		IsActive:      true,
	}
}

func TestNewOrderCode(t *testing.T) {
	code := NewOrderCode(time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^TAB-20250114-[0-9A-F]{6}$`), code)
	assert.NotEqual(t, code, NewOrderCode(time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)))
}

func TestCheckoutService_Quote(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name      string
		items     []model.CartItem
		selection model.DiscountKind
		firstOK   bool
		wantTotal string
		wantOffer string
		wantFirst string
	}{
		{
			name:      "offer tier on 600 over 12 units",
			items:     []model.CartItem{cartItem("Rice", 50, 6, 100), cartItem("Dal", 50, 6, 100)},
			selection: model.DiscountOffer,
			wantTotal: "630",
			wantOffer: "40",
			wantFirst: "0",
		},
		{
			name:      "free delivery on 1050 over 8 units",
			items:     []model.CartItem{cartItem("Oil", 150, 7, 100), cartItem("Salt", 0, 1, 100)},
			selection: model.DiscountOffer,
			wantTotal: "1060",
			wantOffer: "0",
			wantFirst: "0",
		},
		{
			name:      "first order discount",
			items:     []model.CartItem{cartItem("Tea", 100, 5, 100)},
			selection: model.DiscountNone,
			firstOK:   true,
			wantTotal: "560",
			wantOffer: "0",
			wantFirst: "10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture()
			f.cart.On("List", ctx, userID).Return(tt.items, nil)
			f.fraud.On("Eligible", ctx, userID, "dev_known").Return(tt.firstOK, nil)

			result, err := f.service.Quote(ctx, userID, model.QuoteRequest{
				Selection: tt.selection,
				Device:    model.DeviceContext{ID: "dev_known"},
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantTotal, result.Total.String())
			assert.Equal(t, tt.wantOffer, result.OfferDiscount.String())
			assert.Equal(t, tt.wantFirst, result.FirstOrderDiscount.String())
			assert.Len(t, result.Items, len(tt.items))
		})
	}
}

func TestCheckoutService_Quote_Coupon(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	items := []model.CartItem{cartItem("Rice", 100, 3, 10)}

	t.Run("valid coupon", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cart.On("List", ctx, userID).Return(items, nil)
		f.fraud.On("Eligible", ctx, userID, "").Return(false, nil)
		f.validator.On("Validate", ctx, "SAVE50", mock.Anything, 3).Return(&coupon.Result{
			Valid:    true,
			Coupon:   &model.Coupon{ID: uuid.New(), Code: "SAVE50"},
			Discount: decimal.NewFromInt(50),
			Message:  coupon.MsgApplied,
		}, nil)

		result, err := f.service.Quote(ctx, userID, model.QuoteRequest{Selection: model.DiscountCoupon, CouponCode: "SAVE50"})
		require.NoError(t, err)

		assert.Equal(t, "50", result.CouponDiscount.String())
		assert.Equal(t, "320", result.Total.String())
		assert.Equal(t, coupon.MsgApplied, result.CouponMessage)
	})

	t.Run("ineligible coupon prices without discount", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cart.On("List", ctx, userID).Return(items, nil)
		f.fraud.On("Eligible", ctx, userID, "").Return(false, nil)
		f.validator.On("Validate", ctx, "OLD10", mock.Anything, 3).Return(&coupon.Result{
			Valid:    false,
			Discount: decimal.Zero,
			Message:  coupon.MsgExpired,
		}, nil)

		result, err := f.service.Quote(ctx, userID, model.QuoteRequest{Selection: model.DiscountCoupon, CouponCode: "OLD10"})
		require.NoError(t, err)

		assert.True(t, result.CouponDiscount.IsZero())
		assert.Equal(t, "370", result.Total.String())
		assert.Equal(t, coupon.MsgExpired, result.CouponMessage)
	})

	t.Run("missing code", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cart.On("List", ctx, userID).Return(items, nil)
		f.fraud.On("Eligible", ctx, userID, "").Return(false, nil)

		_, err := f.service.Quote(ctx, userID, model.QuoteRequest{Selection: model.DiscountCoupon})
		assert.Equal(t, model.ErrCodeValidation, model.CodeOf(err))
	})
}

func TestCheckoutService_Quote_Errors(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("empty cart", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cart.On("List", ctx, userID).Return([]model.CartItem{}, nil)

		_, err := f.service.Quote(ctx, userID, model.QuoteRequest{})
		assert.ErrorIs(t, err, model.ErrEmptyCart)
	})

	t.Run("unknown selection", func(t *testing.T) {
		f := newCheckoutFixture()

		_, err := f.service.Quote(ctx, userID, model.QuoteRequest{Selection: "bogus"})
		assert.Equal(t, model.ErrCodeValidation, model.CodeOf(err))
		f.cart.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("fraud check failure", func(t *testing.T) {
		f := newCheckoutFixture()
		f.cart.On("List", ctx, userID).Return([]model.CartItem{cartItem("Tea", 10, 1, 5)}, nil)
		f.fraud.On("Eligible", ctx, userID, "").Return(false, errors.New("db down"))

		_, err := f.service.Quote(ctx, userID, model.QuoteRequest{})
		assert.Error(t, err)
	})
}

func TestCheckoutService_PlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	address := &model.Address{ID: uuid.New(), UserID: userID}
	items := []model.CartItem{cartItem("Rice", 50, 6, 20), cartItem("Dal", 50, 6, 20)}
	couponID := uuid.New()

	f := newCheckoutFixture()
	mockTx := new(MockTx)

	f.addresses.On("GetByID", ctx, userID, address.ID).Return(address, nil)
	f.cart.On("List", ctx, userID).Return(items, nil)
	f.fraud.On("Eligible", ctx, userID, "dev_abc").Return(true, nil)
	f.validator.On("Validate", ctx, "FLAT60", mock.Anything, 12).Return(&coupon.Result{
		Valid:    true,
		Coupon:   &model.Coupon{ID: couponID, Code: "FLAT60"},
		Discount: decimal.NewFromInt(60),
		Message:  coupon.MsgApplied,
	}, nil)
	f.orders.On("BeginTx", ctx).Return(mockTx, nil)
	f.orders.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(nil)
	f.orders.On("CreateOrderItems", ctx, mockTx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	f.products.On("DecrementStock", ctx, mockTx, items[0].ProductID, 6).Return(nil)
	f.products.On("DecrementStock", ctx, mockTx, items[1].ProductID, 6).Return(nil)
	f.validator.On("RecordUsage", ctx, mockTx, mock.MatchedBy(func(u *model.CouponUsage) bool {
		return u.CouponID == couponID && u.DiscountAmount.Equal(decimal.NewFromInt(60))
	})).Return(nil)
	f.fraud.On("RecordRedemption", ctx, mockTx, mock.MatchedBy(func(d *model.FirstOrderDevice) bool {
		return d.DeviceID == "dev_abc" && d.DiscountApplied.Equal(decimal.NewFromInt(12))
	})).Return(nil)
	f.cart.On("Clear", ctx, mockTx, userID).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)
	f.notifications.On("Create", ctx, mock.AnythingOfType("*model.Notification")).Return(nil)

	resp, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{
		AddressID:  address.ID,
		Selection:  model.DiscountCoupon,
		CouponCode: "FLAT60",
		Device:     model.DeviceContext{ID: "dev_abc"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	// 600 + 10 + 60 - 60 coupon - 12 first order
	assert.Equal(t, "598", resp.Total.String())
	assert.Equal(t, model.OrderStatusPending, resp.Status)
	assert.Equal(t, &couponID, resp.CouponID)
	assert.Regexp(t, `^TAB-20250114-[0-9A-F]{6}$`, resp.OrderCode)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Rice", resp.Items[0].ProductName)
	assert.Equal(t, "300", resp.Items[0].Subtotal.String())

	assert.True(t, mockTx.committed)
	assert.False(t, mockTx.rolledBack)
	assert.Equal(t, []string{events.OrderPlaced}, f.publisher.types())

	f.orders.AssertExpectations(t)
	f.products.AssertExpectations(t)
	f.validator.AssertExpectations(t)
	f.fraud.AssertExpectations(t)
	f.cart.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
}

func TestCheckoutService_PlaceOrder_SideEffectFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	address := &model.Address{ID: uuid.New(), UserID: userID}
	items := []model.CartItem{cartItem("Tea", 100, 1, 5)}

	f := newCheckoutFixture()
	f.publisher.err = errors.New("broker unavailable")
	mockTx := new(MockTx)

	f.addresses.On("GetByID", ctx, userID, address.ID).Return(address, nil)
	f.cart.On("List", ctx, userID).Return(items, nil)
	f.fraud.On("Eligible", ctx, userID, "").Return(false, nil)
	f.orders.On("BeginTx", ctx).Return(mockTx, nil)
	f.orders.On("CreateOrder", ctx, mockTx, mock.Anything).Return(nil)
	f.orders.On("CreateOrderItems", ctx, mockTx, mock.Anything).Return(nil)
	f.products.On("DecrementStock", ctx, mockTx, items[0].ProductID, 1).Return(nil)
	f.cart.On("Clear", ctx, mockTx, userID).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)
	f.notifications.On("Create", ctx, mock.Anything).Return(errors.New("insert failed"))

	resp, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{AddressID: address.ID})
	require.NoError(t, err)
	assert.Equal(t, "170", resp.Total.String())
	assert.Nil(t, resp.CouponID)
	f.fraud.AssertNotCalled(t, "RecordRedemption", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckoutService_PlaceOrder_Rejections(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	address := &model.Address{ID: uuid.New(), UserID: userID}

	t.Run("missing address id", func(t *testing.T) {
		f := newCheckoutFixture()
		_, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{})
		assert.Equal(t, model.ErrCodeValidation, model.CodeOf(err))
	})

	t.Run("address of another user", func(t *testing.T) {
		f := newCheckoutFixture()
		f.addresses.On("GetByID", ctx, userID, address.ID).Return(nil, nil)

		_, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{AddressID: address.ID})
		assert.Equal(t, model.ErrCodeValidation, model.CodeOf(err))
		f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("ineligible coupon", func(t *testing.T) {
		f := newCheckoutFixture()
		f.addresses.On("GetByID", ctx, userID, address.ID).Return(address, nil)
		f.cart.On("List", ctx, userID).Return([]model.CartItem{cartItem("Tea", 100, 1, 5)}, nil)
		f.fraud.On("Eligible", ctx, userID, "").Return(false, nil)
		f.validator.On("Validate", ctx, "BIG500", mock.Anything, 1).Return(&coupon.Result{
			Valid:   false,
			Message: "Minimum order value of ₹500 required",
		}, nil)

		_, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{
			AddressID: address.ID, Selection: model.DiscountCoupon, CouponCode: "BIG500",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrCouponIneligible)
		assert.Equal(t, "Minimum order value of ₹500 required", err.Error())
		f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("inactive product", func(t *testing.T) {
		f := newCheckoutFixture()
		item := cartItem("Old Soap", 40, 1, 5)
		item.IsActive = false
		f.addresses.On("GetByID", ctx, userID, address.ID).Return(address, nil)
		f.cart.On("List", ctx, userID).Return([]model.CartItem{item}, nil)
		f.fraud.On("Eligible", ctx, userID, "").Return(false, nil)

		_, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{AddressID: address.ID})
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})

	t.Run("more than in stock", func(t *testing.T) {
		f := newCheckoutFixture()
		f.addresses.On("GetByID", ctx, userID, address.ID).Return(address, nil)
		f.cart.On("List", ctx, userID).Return([]model.CartItem{cartItem("Ghee", 400, 3, 2)}, nil)
		f.fraud.On("Eligible", ctx, userID, "").Return(false, nil)

		_, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{AddressID: address.ID})
		assert.ErrorIs(t, err, model.ErrInsufficientStock)
	})
}

func TestCheckoutService_PlaceOrder_RollsBack(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	address := &model.Address{ID: uuid.New(), UserID: userID}
	items := []model.CartItem{cartItem("Tea", 100, 2, 5)}

	t.Run("stock race", func(t *testing.T) {
		f := newCheckoutFixture()
		mockTx := new(MockTx)

		f.addresses.On("GetByID", ctx, userID, address.ID).Return(address, nil)
		f.cart.On("List", ctx, userID).Return(items, nil)
		f.fraud.On("Eligible", ctx, userID, "").Return(false, nil)
		f.orders.On("BeginTx", ctx).Return(mockTx, nil)
		f.orders.On("CreateOrder", ctx, mockTx, mock.Anything).Return(nil)
		f.orders.On("CreateOrderItems", ctx, mockTx, mock.Anything).Return(nil)
		f.products.On("DecrementStock", ctx, mockTx, items[0].ProductID, 2).Return(model.ErrInsufficientStock)
		mockTx.On("Rollback", ctx).Return(nil)

		_, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{AddressID: address.ID})
		assert.ErrorIs(t, err, model.ErrInsufficientStock)
		assert.True(t, mockTx.rolledBack)
		assert.False(t, mockTx.committed)
		f.cart.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.types())
	})

	t.Run("device redeemed concurrently", func(t *testing.T) {
		f := newCheckoutFixture()
		mockTx := new(MockTx)
		raceErr := model.NewDomainError(model.ErrCodeCouponIneligible, "First order discount already used on this device")

		f.addresses.On("GetByID", ctx, userID, address.ID).Return(address, nil)
		f.cart.On("List", ctx, userID).Return(items, nil)
		f.fraud.On("Eligible", ctx, userID, "dev_1").Return(true, nil)
		f.orders.On("BeginTx", ctx).Return(mockTx, nil)
		f.orders.On("CreateOrder", ctx, mockTx, mock.Anything).Return(nil)
		f.orders.On("CreateOrderItems", ctx, mockTx, mock.Anything).Return(nil)
		f.products.On("DecrementStock", ctx, mockTx, items[0].ProductID, 2).Return(nil)
		f.fraud.On("RecordRedemption", ctx, mockTx, mock.Anything).Return(raceErr)
		mockTx.On("Rollback", ctx).Return(nil)

		_, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{
			AddressID: address.ID,
			Device:    model.DeviceContext{ID: "dev_1"},
		})
		assert.ErrorIs(t, err, model.ErrCouponIneligible)
		assert.True(t, mockTx.rolledBack)
	})

	t.Run("commit failure", func(t *testing.T) {
		f := newCheckoutFixture()
		mockTx := new(MockTx)

		f.addresses.On("GetByID", ctx, userID, address.ID).Return(address, nil)
		f.cart.On("List", ctx, userID).Return(items, nil)
		f.fraud.On("Eligible", ctx, userID, "").Return(false, nil)
		f.orders.On("BeginTx", ctx).Return(mockTx, nil)
		f.orders.On("CreateOrder", ctx, mockTx, mock.Anything).Return(nil)
		f.orders.On("CreateOrderItems", ctx, mockTx, mock.Anything).Return(nil)
		f.products.On("DecrementStock", ctx, mockTx, items[0].ProductID, 2).Return(nil)
		f.cart.On("Clear", ctx, mockTx, userID).Return(nil)
		mockTx.On("Commit", ctx).Return(errors.New("connection reset"))
		mockTx.On("Rollback", ctx).Return(nil)

		_, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{AddressID: address.ID})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to place order")
		assert.True(t, mockTx.rolledBack)
		f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("begin failure", func(t *testing.T) {
		f := newCheckoutFixture()

		f.addresses.On("GetByID", ctx, userID, address.ID).Return(address, nil)
		f.cart.On("List", ctx, userID).Return(items, nil)
		f.fraud.On("Eligible", ctx, userID, "").Return(false, nil)
		f.orders.On("BeginTx", ctx).Return(nil, errors.New("pool exhausted"))

		_, err := f.service.PlaceOrder(ctx, userID, model.PlaceOrderRequest{AddressID: address.ID})
		require.Error(t, err)
		f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	})
}
