package coupon

import (
	"context"

	"tapandbuy/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Result is the outcome of checking a coupon code against a cart.
// Ineligibility is reported through Valid and Message, not as an error.
type Result struct {
	Valid    bool            `json:"valid"`
	Coupon   *model.Coupon   `json:"coupon,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message"`
}

// Validator defines coupon validation and redemption.
type Validator interface {
	// Validate checks a code against the cart totals. Checks run in order:
	// exists and active, date window, usage cap, minimum order value,
	// minimum item count.
	Validate(ctx context.Context, code string, subtotal decimal.Decimal, totalQuantity int) (*Result, error)

	// Eligible lists redeemable coupons annotated with whether the cart
	// meets their minimums.
	Eligible(ctx context.Context, subtotal decimal.Decimal, totalQuantity int) ([]model.EligibleCoupon, error)

	// RecordUsage appends a usage row and bumps used_count inside tx.
	RecordUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error
}

// Store is the persistence the coupon model needs.
type Store interface {
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	ListActive(ctx context.Context) ([]model.Coupon, error)
	RecordUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error
	Upsert(ctx context.Context, c *model.Coupon) error
}

// Loader reads coupon definitions from a gzipped import file.
type Loader interface {
	Load(ctx context.Context, filePath string) ([]model.Coupon, error)
}
