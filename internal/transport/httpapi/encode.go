package httpapi

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/kasamart/sales-api/internal/domain/order"
	"github.com/kasamart/sales-api/internal/domain/status"
)

// num writes a decimal as a JSON number, preserving its exact representation.
func num(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func timestamp(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func writeJSON(w http.ResponseWriter, code int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// encodeOrderView writes the full breakdown payload: the order's monetary
// fields under their storage names, the positive-only discounts object, the
// net total, the current status, and the line items.
func encodeOrderView(e *jx.Encoder, v *order.OrderView, st *status.Status) {
	o, bd := v.Order, v.Breakdown
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("code", func(e *jx.Encoder) { e.Str(o.Code) })
		e.Field("amount", func(e *jx.Encoder) { num(e, bd.Subtotal) })
		e.Field("delivery", func(e *jx.Encoder) { num(e, bd.Delivery) })
		e.Field("bundle_discount", func(e *jx.Encoder) { num(e, o.BundleDiscount) })
		e.Field("renewal_discount", func(e *jx.Encoder) { num(e, o.RenewalDiscount) })
		e.Field("coupon_discount", func(e *jx.Encoder) { num(e, o.CouponDiscount) })
		e.Field("promotion_discount", func(e *jx.Encoder) { num(e, o.PromotionDiscount) })
		e.Field("discounts", func(e *jx.Encoder) { encodeDiscounts(e, bd) })
		e.Field("total", func(e *jx.Encoder) { num(e, bd.Total) })
		if bd.Adjusted {
			e.Field("adjusted", func(e *jx.Encoder) { e.Bool(true) })
		}
		if o.CouponCode != "" {
			e.Field("coupon_code", func(e *jx.Encoder) { e.Str(o.CouponCode) })
		}
		if len(o.AppliedPromotions) > 0 {
			e.Field("applied_promotions", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range o.AppliedPromotions {
						e.Obj(func(e *jx.Encoder) {
							e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
							e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
						})
					}
				})
			})
		}
		if st != nil {
			e.Field("status", func(e *jx.Encoder) { encodeStatus(e, st) })
		}
		e.Field("details", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, li := range o.Details {
					encodeLineItem(e, li)
				}
			})
		})
		e.Field("created_at", func(e *jx.Encoder) { timestamp(e, o.CreatedAt) })
	})
}

// encodeDiscounts writes only discount kinds with a positive value, in a
// fixed field order.
func encodeDiscounts(e *jx.Encoder, bd order.Breakdown) {
	e.Obj(func(e *jx.Encoder) {
		for _, kind := range []order.DiscountKind{
			order.DiscountBundle,
			order.DiscountRenewal,
			order.DiscountCoupon,
			order.DiscountPromotion,
		} {
			if v, ok := bd.Discounts[kind]; ok {
				e.Field(string(kind), func(e *jx.Encoder) { num(e, v) })
			}
		}
	})
}

func encodeLineItem(e *jx.Encoder, li order.LineItem) {
	subtotal := li.UnitPrice.Mul(li.Quantity)
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(li.Name) })
		e.Field("unit_price", func(e *jx.Encoder) { num(e, li.UnitPrice) })
		e.Field("quantity", func(e *jx.Encoder) { num(e, li.Quantity) })
		e.Field("subtotal", func(e *jx.Encoder) { num(e, subtotal) })
		if li.Color != "" {
			e.Field("color", func(e *jx.Encoder) { e.Str(li.Color) })
		}
		if li.Image != "" {
			e.Field("image", func(e *jx.Encoder) { e.Str(li.Image) })
		}
	})
}

func encodeStatus(e *jx.Encoder, st *status.Status) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(st.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(st.Name) })
		e.Field("color", func(e *jx.Encoder) { e.Str(st.Color) })
		e.Field("reversible", func(e *jx.Encoder) { e.Bool(st.Reversible) })
	})
}

// encodeOrderRow writes the compact listing row for the admin grid.
func encodeOrderRow(e *jx.Encoder, v order.OrderView) {
	o, bd := v.Order, v.Breakdown
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("code", func(e *jx.Encoder) { e.Str(o.Code) })
		e.Field("status_id", func(e *jx.Encoder) { e.Str(o.StatusID) })
		e.Field("total", func(e *jx.Encoder) { num(e, bd.Total) })
		e.Field("created_at", func(e *jx.Encoder) { timestamp(e, o.CreatedAt) })
	})
}

func encodeHistory(e *jx.Encoder, entries []status.HistoryEntry) {
	e.Arr(func(e *jx.Encoder) {
		for _, h := range entries {
			e.Obj(func(e *jx.Encoder) {
				e.Field("from_status_id", func(e *jx.Encoder) { e.Str(h.FromStatusID) })
				e.Field("to_status_id", func(e *jx.Encoder) { e.Str(h.ToStatusID) })
				e.Field("created_at", func(e *jx.Encoder) { timestamp(e, h.CreatedAt) })
			})
		}
	})
}
