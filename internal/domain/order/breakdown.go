package order

import (
	"github.com/shopspring/decimal"
)

// Breakdown is the computed decomposition of an order's total: merchandise
// subtotal, delivery fee, the itemized discounts that actually apply, and the
// net payable total. Amounts keep their full decimal precision; rounding to
// two fractional digits is a presentation concern.
type Breakdown struct {
	Subtotal  decimal.Decimal
	Delivery  decimal.Decimal
	Discounts map[DiscountKind]decimal.Decimal
	Total     decimal.Decimal

	// Adjusted reports that the raw total was negative and has been clamped
	// to zero.
	Adjusted bool
}

// ComputeBreakdown derives the pricing breakdown from an order's persisted
// monetary fields:
//
//	total = amount + delivery - bundle - renewal - coupon - promotion
//
// Only discounts with a positive value appear in the Discounts map. A total
// below zero is clamped to zero and flagged via Adjusted. The computation is
// pure; calling it twice on an unchanged order yields identical results.
func ComputeBreakdown(o *Order) (Breakdown, error) {
	if o.Amount.IsNegative() {
		return Breakdown{}, &InvalidOrderDataError{Field: "amount", Value: o.Amount}
	}
	if o.Delivery.IsNegative() {
		return Breakdown{}, &InvalidOrderDataError{Field: "delivery", Value: o.Delivery}
	}

	discounts := make(map[DiscountKind]decimal.Decimal, 4)
	total := o.Amount.Add(o.Delivery)
	for _, d := range []struct {
		kind  DiscountKind
		value decimal.Decimal
	}{
		{DiscountBundle, o.BundleDiscount},
		{DiscountRenewal, o.RenewalDiscount},
		{DiscountCoupon, o.CouponDiscount},
		{DiscountPromotion, o.PromotionDiscount},
	} {
		if d.value.IsNegative() {
			return Breakdown{}, &InvalidOrderDataError{Field: string(d.kind), Value: d.value}
		}
		if d.value.IsPositive() {
			discounts[d.kind] = d.value
		}
		total = total.Sub(d.value)
	}

	b := Breakdown{
		Subtotal:  o.Amount,
		Delivery:  o.Delivery,
		Discounts: discounts,
		Total:     total,
	}
	if total.IsNegative() {
		b.Total = decimal.Zero
		b.Adjusted = true
	}
	return b, nil
}
