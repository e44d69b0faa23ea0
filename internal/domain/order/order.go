package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// ErrEmptyItems is returned when an order is created without line items.
var ErrEmptyItems = errors.New("line items required")

// InvalidOrderDataError indicates a malformed monetary field on an order.
type InvalidOrderDataError struct {
	Field string
	Value decimal.Decimal
}

func (e *InvalidOrderDataError) Error() string {
	return fmt.Sprintf("invalid order data: %s must be non-negative, got %s", e.Field, e.Value)
}

// InvalidLineItemError indicates a malformed quantity or price on a line item.
type InvalidLineItemError struct {
	Name   string
	Reason string
}

func (e *InvalidLineItemError) Error() string {
	return fmt.Sprintf("invalid line item %q: %s", e.Name, e.Reason)
}

// DiscountKind identifies one of the independently tracked discount categories.
type DiscountKind string

const (
	DiscountBundle    DiscountKind = "bundle_discount"
	DiscountRenewal   DiscountKind = "renewal_discount"
	DiscountCoupon    DiscountKind = "coupon_discount"
	DiscountPromotion DiscountKind = "promotion_discount"
)

// AppliedPromotion describes one promotion that contributed to an order's
// promotion discount.
type AppliedPromotion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LineItem is one purchased product entry within an order. Name and unit
// price are captured at checkout time, so the order stays stable when the
// catalog changes afterwards.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
	Color     string
	Image     string
}

// Subtotal returns unit price times quantity. Quantity must be a whole,
// non-negative number of units.
func (li LineItem) Subtotal() (decimal.Decimal, error) {
	if li.Quantity.IsNegative() {
		return decimal.Zero, &InvalidLineItemError{Name: li.Name, Reason: "quantity must be non-negative"}
	}
	if !li.Quantity.IsInteger() {
		return decimal.Zero, &InvalidLineItemError{Name: li.Name, Reason: "quantity must be a whole number"}
	}
	if li.UnitPrice.IsNegative() {
		return decimal.Zero, &InvalidLineItemError{Name: li.Name, Reason: "unit price must be non-negative"}
	}
	return li.UnitPrice.Mul(li.Quantity), nil
}

// Order is a persisted customer order with its pricing fields, line items,
// and a reference to its current status. Version increments on every status
// change and guards against concurrent admin updates.
type Order struct {
	ID                string
	Code              string
	Amount            decimal.Decimal
	Delivery          decimal.Decimal
	BundleDiscount    decimal.Decimal
	RenewalDiscount   decimal.Decimal
	CouponDiscount    decimal.Decimal
	PromotionDiscount decimal.Decimal
	CouponCode        string
	AppliedPromotions []AppliedPromotion
	StatusID          string
	Version           int64
	Details           []LineItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, limit, offset int) ([]Order, error)
}
