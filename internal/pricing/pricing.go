// Package pricing computes the price breakdown of a cart or order.
//
// Every caller (cart summary, checkout quote, order placement) goes through
// Compute so that the quantity-tier offer, delivery fee and first-order
// discount are evaluated by one set of rules.
package pricing

import (
	"tapandbuy/internal/model"

	"github.com/shopspring/decimal"
)

var (
	// PlatformFee is charged on every order.
	PlatformFee = decimal.NewFromInt(10)

	// StandardDeliveryFee is charged unless the order qualifies for free delivery.
	StandardDeliveryFee = decimal.NewFromInt(60)

	freeDeliveryAbove       = decimal.NewFromInt(999)
	freeDeliveryMinQuantity = 7

	firstOrderRate = decimal.NewFromFloat(0.02)
)

// Line is one priced cart or order line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type offerTier struct {
	minQuantity int
	minSubtotal decimal.Decimal
	discount    decimal.Decimal
}

// offerTiers is ordered from the highest tier down; the first match wins.
var offerTiers = []offerTier{
	{minQuantity: 35, minSubtotal: decimal.NewFromInt(1500), discount: decimal.NewFromInt(150)},
	{minQuantity: 20, minSubtotal: decimal.NewFromInt(1000), discount: decimal.NewFromInt(80)},
	{minQuantity: 10, minSubtotal: decimal.NewFromInt(500), discount: decimal.NewFromInt(40)},
}

// Subtotal returns the sum of unit price times quantity over all lines.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// TotalQuantity returns the number of units across all lines.
func TotalQuantity(lines []Line) int {
	qty := 0
	for _, l := range lines {
		qty += l.Quantity
	}
	return qty
}

// OfferDiscount returns the quantity-tier discount for the highest tier whose
// quantity and subtotal minimums are both met.
func OfferDiscount(totalQuantity int, subtotal decimal.Decimal) decimal.Decimal {
	for _, t := range offerTiers {
		if totalQuantity >= t.minQuantity && subtotal.GreaterThanOrEqual(t.minSubtotal) {
			return t.discount
		}
	}
	return decimal.Zero
}

// DeliveryFee is waived when the subtotal exceeds 999 and at least seven
// units are ordered.
func DeliveryFee(subtotal decimal.Decimal, totalQuantity int) decimal.Decimal {
	if subtotal.GreaterThan(freeDeliveryAbove) && totalQuantity >= freeDeliveryMinQuantity {
		return decimal.Zero
	}
	return StandardDeliveryFee
}

// FirstOrderDiscount is 2% of the subtotal rounded to a whole unit, or zero
// when the account or device has already redeemed it.
func FirstOrderDiscount(subtotal decimal.Decimal, eligible bool) decimal.Decimal {
	if !eligible {
		return decimal.Zero
	}
	return subtotal.Mul(firstOrderRate).Round(0)
}

// Input describes everything Compute needs. CouponDiscount is only honoured
// when Selection is DiscountCoupon.
type Input struct {
	Lines              []Line
	Selection          model.DiscountKind
	CouponDiscount     decimal.Decimal
	FirstOrderEligible bool
}

// Quote is the full price breakdown.
type Quote struct {
	Subtotal           decimal.Decimal    `json:"subtotal"`
	TotalQuantity      int                `json:"totalQuantity"`
	PlatformFee        decimal.Decimal    `json:"platformFee"`
	DeliveryFee        decimal.Decimal    `json:"deliveryFee"`
	Selection          model.DiscountKind `json:"selection"`
	OfferDiscount      decimal.Decimal    `json:"offerDiscount"`
	CouponDiscount     decimal.Decimal    `json:"couponDiscount"`
	FirstOrderDiscount decimal.Decimal    `json:"firstOrderDiscount"`
	Discount           decimal.Decimal    `json:"discount"`
	Total              decimal.Decimal    `json:"total"`

	// Anomaly is set when discounts exceeded the amount payable and the
	// total had to be clamped to zero.
	Anomaly bool `json:"-"`
}

// Compute prices a set of lines.
func Compute(in Input) Quote {
	subtotal := Subtotal(in.Lines)
	qty := TotalQuantity(in.Lines)

	q := Quote{
		Subtotal:           subtotal,
		TotalQuantity:      qty,
		PlatformFee:        PlatformFee,
		DeliveryFee:        DeliveryFee(subtotal, qty),
		Selection:          in.Selection,
		OfferDiscount:      decimal.Zero,
		CouponDiscount:     decimal.Zero,
		FirstOrderDiscount: FirstOrderDiscount(subtotal, in.FirstOrderEligible),
	}

	switch in.Selection {
	case model.DiscountCoupon:
		if in.CouponDiscount.IsPositive() {
			q.CouponDiscount = in.CouponDiscount
		}
	case model.DiscountOffer:
		q.OfferDiscount = OfferDiscount(qty, subtotal)
	default:
		q.Selection = model.DiscountNone
	}

	q.Discount = q.OfferDiscount.Add(q.CouponDiscount).Add(q.FirstOrderDiscount)

	total := subtotal.Add(q.PlatformFee).Add(q.DeliveryFee).Sub(q.Discount)
	if total.IsNegative() {
		q.Anomaly = true
		total = decimal.Zero
	}
	q.Total = total

	return q
}
