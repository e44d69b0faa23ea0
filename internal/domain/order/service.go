package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasamart/sales-api/internal/domain/coupon"
)

// CreateOrderRequest holds the checkout input. The merchandise amount is
// derived from the line items; bundle, renewal, and promotion discounts are
// computed by their own subsystems and arrive precomputed, while the coupon
// discount is resolved here from the coupon code.
type CreateOrderRequest struct {
	Details           []LineItem
	Delivery          decimal.Decimal
	CouponCode        string
	BundleDiscount    decimal.Decimal
	RenewalDiscount   decimal.Decimal
	PromotionDiscount decimal.Decimal
	AppliedPromotions []AppliedPromotion
}

// OrderView pairs an order with its computed breakdown.
type OrderView struct {
	Order     *Order
	Breakdown Breakdown
}

// Service implements order checkout and read operations on top of the
// pricing computation.
type Service struct {
	orders          Repository
	coupons         coupon.Validator
	initialStatusID string
	now             func() time.Time
}

// NewService creates an order Service. initialStatusID is the status assigned
// to every new order.
func NewService(orders Repository, coupons coupon.Validator, initialStatusID string) *Service {
	return &Service{
		orders:          orders,
		coupons:         coupons,
		initialStatusID: initialStatusID,
		now:             time.Now,
	}
}

// CreateOrder validates the line items, derives the merchandise amount,
// resolves the coupon discount when a code is provided, persists the order,
// and returns it with its breakdown.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderView, error) {
	if len(req.Details) == 0 {
		return nil, ErrEmptyItems
	}

	amount := decimal.Zero
	couponItems := make([]coupon.Item, len(req.Details))
	for i, li := range req.Details {
		sub, err := li.Subtotal()
		if err != nil {
			return nil, err
		}
		amount = amount.Add(sub)
		couponItems[i] = coupon.Item{
			Name:     li.Name,
			Price:    li.UnitPrice,
			Quantity: int(li.Quantity.IntPart()),
		}
	}

	couponDiscount := decimal.Zero
	couponCode := ""
	if req.CouponCode != "" {
		d, err := s.coupons.Validate(ctx, req.CouponCode, couponItems)
		if err != nil {
			return nil, err
		}
		couponDiscount = d.Amount
		couponCode = strings.ToUpper(req.CouponCode)
	}

	id := uuid.New().String()
	o := &Order{
		ID:                id,
		Code:              orderCode(id),
		Amount:            amount,
		Delivery:          req.Delivery,
		BundleDiscount:    req.BundleDiscount,
		RenewalDiscount:   req.RenewalDiscount,
		CouponDiscount:    couponDiscount,
		PromotionDiscount: req.PromotionDiscount,
		CouponCode:        couponCode,
		AppliedPromotions: req.AppliedPromotions,
		StatusID:          s.initialStatusID,
		Details:           req.Details,
		CreatedAt:         s.now().UTC(),
	}

	// Validates the remaining monetary fields before anything is persisted.
	bd, err := ComputeBreakdown(o)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return &OrderView{Order: o, Breakdown: bd}, nil
}

// GetOrder loads an order and computes its breakdown.
func (s *Service) GetOrder(ctx context.Context, id string) (*OrderView, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	bd, err := ComputeBreakdown(o)
	if err != nil {
		return nil, errors.Wrapf(err, "breakdown for order %q", id)
	}
	return &OrderView{Order: o, Breakdown: bd}, nil
}

// ListOrders returns recent orders with their breakdowns, newest first.
func (s *Service) ListOrders(ctx context.Context, limit, offset int) ([]OrderView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.orders.List(ctx, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		bd, err := ComputeBreakdown(&orders[i])
		if err != nil {
			return nil, errors.Wrapf(err, "breakdown for order %q", orders[i].ID)
		}
		views = append(views, OrderView{Order: &orders[i], Breakdown: bd})
	}
	return views, nil
}

// orderCode derives the short human-facing code shown next to the store
// correlative in the back office.
func orderCode(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}
