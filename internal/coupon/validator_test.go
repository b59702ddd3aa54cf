package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"tapandbuy/internal/model"
	"tapandbuy/internal/pricing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock implementation of Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockStore) ListActive(ctx context.Context) ([]model.Coupon, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockStore) RecordUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error {
	args := m.Called(ctx, tx, usage)
	return args.Error(0)
}

func (m *MockStore) Upsert(ctx context.Context, c *model.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func testValidator(store Store) Validator {
	return NewValidator(&ValidatorConfig{Now: func() time.Time { return fixedNow }}, store, zerolog.Nop())
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func baseCoupon() *model.Coupon {
	return &model.Coupon{
		ID:            uuid.New(),
		Code:          "SAVE10",
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		MinOrderValue: decimal.NewFromInt(300),
		MinItems:      2,
		MaxUses:       intPtr(100),
		UsedCount:     5,
		ValidFrom:     fixedNow.Add(-24 * time.Hour),
		ValidUntil:    timePtr(fixedNow.Add(24 * time.Hour)),
		IsActive:      true,
	}
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name             string
		code             string
		coupon           func() *model.Coupon
		subtotal         int64
		qty              int
		expectedValid    bool
		expectedMessage  string
		expectedDiscount string
	}{
		{
			name:             "Valid percentage coupon",
			code:             " save10 ",
			coupon:           baseCoupon,
			subtotal:         600,
			qty:              3,
			expectedValid:    true,
			expectedMessage:  MsgApplied,
			expectedDiscount: "60",
		},
		{
			name:            "Unknown code",
			code:            "NOPE99",
			coupon:          func() *model.Coupon { return nil },
			subtotal:        600,
			qty:             3,
			expectedMessage: MsgInvalidCode,
		},
		{
			name: "Inactive coupon",
			code: "SAVE10",
			coupon: func() *model.Coupon {
				c := baseCoupon()
				c.IsActive = false
				return c
			},
			subtotal:        600,
			qty:             3,
			expectedMessage: MsgInvalidCode,
		},
		{
			name: "Not started",
			code: "SAVE10",
			coupon: func() *model.Coupon {
				c := baseCoupon()
				c.ValidFrom = fixedNow.Add(time.Hour)
				return c
			},
			subtotal:        600,
			qty:             3,
			expectedMessage: MsgNotStarted,
		},
		{
			name: "Expired",
			code: "SAVE10",
			coupon: func() *model.Coupon {
				c := baseCoupon()
				c.ValidUntil = timePtr(fixedNow.Add(-time.Minute))
				return c
			},
			subtotal:        600,
			qty:             3,
			expectedMessage: MsgExpired,
		},
		{
			name: "Open-ended validity",
			code: "SAVE10",
			coupon: func() *model.Coupon {
				c := baseCoupon()
				c.ValidUntil = nil
				return c
			},
			subtotal:         600,
			qty:              3,
			expectedValid:    true,
			expectedMessage:  MsgApplied,
			expectedDiscount: "60",
		},
		{
			name: "Usage cap reached",
			code: "SAVE10",
			coupon: func() *model.Coupon {
				c := baseCoupon()
				c.UsedCount = 100
				return c
			},
			subtotal:        600,
			qty:             3,
			expectedMessage: MsgUsageExceeded,
		},
		{
			name:            "Below minimum order value",
			code:            "SAVE10",
			coupon:          baseCoupon,
			subtotal:        299,
			qty:             3,
			expectedMessage: "Minimum order value of ₹300 required",
		},
		{
			name:            "Too few items",
			code:            "SAVE10",
			coupon:          baseCoupon,
			subtotal:        600,
			qty:             1,
			expectedMessage: "Add at least 2 items to use this coupon",
		},
		{
			name: "Fixed coupon",
			code: "FLAT50",
			coupon: func() *model.Coupon {
				c := baseCoupon()
				c.Code = "FLAT50"
				c.DiscountType = model.DiscountTypeFixed
				c.DiscountValue = decimal.NewFromInt(50)
				return c
			},
			subtotal:         600,
			qty:              3,
			expectedValid:    true,
			expectedMessage:  MsgApplied,
			expectedDiscount: "50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := new(MockStore)
			c := tt.coupon()
			if c == nil {
				store.On("GetByCode", ctx, mock.AnythingOfType("string")).Return(nil, nil)
			} else {
				store.On("GetByCode", ctx, mock.AnythingOfType("string")).Return(c, nil)
			}

			result, err := testValidator(store).Validate(ctx, tt.code, decimal.NewFromInt(tt.subtotal), tt.qty)

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.expectedValid, result.Valid)
			assert.Equal(t, tt.expectedMessage, result.Message)
			if tt.expectedValid {
				assert.Equal(t, tt.expectedDiscount, result.Discount.String())
			} else {
				assert.True(t, result.Discount.IsZero())
			}
			store.AssertExpectations(t)
		})
	}
}

func TestValidator_Validate_NormalizesCode(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("GetByCode", ctx, "SAVE10").Return(baseCoupon(), nil)

	_, err := testValidator(store).Validate(ctx, "  save10", decimal.NewFromInt(600), 3)

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestValidator_Validate_ShortCodeNeverHitsStore(t *testing.T) {
	store := new(MockStore)

	result, err := testValidator(store).Validate(context.Background(), " a ", decimal.NewFromInt(600), 3)

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, model.ErrValidation))
	store.AssertNotCalled(t, "GetByCode")
}

func TestValidator_Validate_StoreError(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("GetByCode", ctx, "SAVE10").Return(nil, errors.New("connection refused"))

	result, err := testValidator(store).Validate(ctx, "SAVE10", decimal.NewFromInt(600), 3)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to look up coupon")
}

func TestValidator_Validate_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("GetByCode", ctx, "SAVE10").Return(baseCoupon(), nil)
	v := testValidator(store)

	first, err := v.Validate(ctx, "SAVE10", decimal.NewFromInt(750), 4)
	require.NoError(t, err)
	second, err := v.Validate(ctx, "SAVE10", decimal.NewFromInt(750), 4)
	require.NoError(t, err)

	assert.Equal(t, first.Valid, second.Valid)
	assert.Equal(t, first.Message, second.Message)
	assert.True(t, first.Discount.Equal(second.Discount))
	assert.Equal(t, first.Coupon.ID, second.Coupon.ID)
}

func TestValidator_Eligible(t *testing.T) {
	ctx := context.Background()

	eligible := baseCoupon()
	tooBig := baseCoupon()
	tooBig.Code = "BIGSPEND"
	tooBig.MinOrderValue = decimal.NewFromInt(5000)
	exhausted := baseCoupon()
	exhausted.Code = "GONE"
	exhausted.UsedCount = 100
	expired := baseCoupon()
	expired.Code = "OLD"
	expired.ValidUntil = timePtr(fixedNow.Add(-time.Hour))

	store := new(MockStore)
	store.On("ListActive", ctx).Return([]model.Coupon{*eligible, *tooBig, *exhausted, *expired}, nil)

	result, err := testValidator(store).Eligible(ctx, decimal.NewFromInt(600), 3)

	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, "SAVE10", result[0].Code)
	assert.True(t, result[0].IsEligible)
	assert.Empty(t, result[0].IneligibleReason)
	assert.Equal(t, "60", result[0].Discount.String())

	assert.Equal(t, "BIGSPEND", result[1].Code)
	assert.False(t, result[1].IsEligible)
	assert.Equal(t, "Minimum order value of ₹5000 required", result[1].IneligibleReason)
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   model.Coupon
		subtotal string
		expected string
	}{
		{
			name:     "Percentage",
			coupon:   model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(15)},
			subtotal: "333",
			expected: "49.95",
		},
		{
			name:     "Percentage capped",
			coupon:   model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(50), MaxDiscount: decPtr(100)},
			subtotal: "1000",
			expected: "100",
		},
		{
			name:     "Hundred percent zeroes the subtotal",
			coupon:   model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(100)},
			subtotal: "80",
			expected: "80",
		},
		{
			name:     "Fixed larger than subtotal applies flat",
			coupon:   model.Coupon{DiscountType: model.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(200)},
			subtotal: "150",
			expected: "200",
		},
		{
			name:     "Fixed capped by max discount",
			coupon:   model.Coupon{DiscountType: model.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(200), MaxDiscount: decPtr(120)},
			subtotal: "150",
			expected: "120",
		},
		{
			name:     "Unknown type",
			coupon:   model.Coupon{DiscountType: "bogus", DiscountValue: decimal.NewFromInt(200)},
			subtotal: "150",
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Discount(&tt.coupon, decimal.RequireFromString(tt.subtotal))
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestDiscount_OversizedFixedReachesPricing(t *testing.T) {
	c := model.Coupon{DiscountType: model.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(500)}
	lines := []pricing.Line{{UnitPrice: decimal.NewFromInt(100), Quantity: 3}}

	q := pricing.Compute(pricing.Input{
		Lines:          lines,
		Selection:      model.DiscountCoupon,
		CouponDiscount: Discount(&c, pricing.Subtotal(lines)),
	})

	assert.Equal(t, "500", q.CouponDiscount.String())
	assert.True(t, q.Total.IsZero())
	assert.True(t, q.Anomaly)
}

func TestValidator_RecordUsage(t *testing.T) {
	ctx := context.Background()
	usage := &model.CouponUsage{ID: uuid.New(), CouponID: uuid.New(), OrderID: uuid.New()}

	store := new(MockStore)
	store.On("RecordUsage", ctx, nil, usage).Return(nil).Once()
	assert.NoError(t, testValidator(store).RecordUsage(ctx, nil, usage))

	failing := new(MockStore)
	failing.On("RecordUsage", ctx, nil, usage).Return(model.ErrCouponIneligible)
	assert.ErrorIs(t, testValidator(failing).RecordUsage(ctx, nil, usage), model.ErrCouponIneligible)
}
