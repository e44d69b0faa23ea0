package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasamart/sales-api/internal/domain/order"
	"github.com/kasamart/sales-api/internal/domain/status"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, code, amount, delivery, bundle_discount, renewal_discount,
		coupon_discount, promotion_discount, coupon_code, applied_promotions, status_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`

	insertLineItemSQL = `INSERT INTO order_line_items (order_id, name, unit_price, quantity, color, image)
		VALUES ($1, $2, $3, $4, $5, $6)`

	selectOrderSQL = `SELECT id, code, amount, delivery, bundle_discount, renewal_discount,
		coupon_discount, promotion_discount, coupon_code, applied_promotions, status_id, version, created_at, updated_at
		FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, code, amount, delivery, bundle_discount, renewal_discount,
		coupon_discount, promotion_discount, coupon_code, applied_promotions, status_id, version, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	selectLineItemsSQL = `SELECT name, unit_price, quantity, color, image
		FROM order_line_items WHERE order_id = $1 ORDER BY id`

	updateStatusSQL = `UPDATE orders SET status_id = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3`

	insertHistorySQL = `INSERT INTO order_status_history (order_id, from_status_id, to_status_id)
		VALUES ($1, $2, $3)`

	selectHistorySQL = `SELECT order_id, from_status_id, to_status_id, created_at
		FROM order_status_history WHERE order_id = $1 ORDER BY created_at, id`
)

var (
	_ order.Repository  = (*OrderRepository)(nil)
	_ status.OrderStore = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository and status.OrderStore backed
// by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists an order together with its line items in one transaction.
// Applied promotions are serialized to JSON for the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	promotions, err := marshalPromotions(o.AppliedPromotions)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.Code, o.Amount, o.Delivery, o.BundleDiscount, o.RenewalDiscount,
		o.CouponDiscount, o.PromotionDiscount, o.CouponCode, promotions, o.StatusID, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}

	for _, li := range o.Details {
		_, err = tx.Exec(ctx, insertLineItemSQL,
			o.ID, li.Name, li.UnitPrice, li.Quantity, li.Color, li.Image,
		)
		if err != nil {
			return errors.Wrapf(err, "insert line item for order %q", o.ID)
		}
	}

	return tx.Commit(ctx)
}

// GetByID loads an order with its line items.
// Returns order.ErrNotFound when no such order exists.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, selectOrderSQL, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select order %q", id)
	}

	rows, err := r.pool.Query(ctx, selectLineItemsSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "select line items for order %q", id)
	}
	defer rows.Close()

	for rows.Next() {
		var li order.LineItem
		if err := rows.Scan(&li.Name, &li.UnitPrice, &li.Quantity, &li.Color, &li.Image); err != nil {
			return nil, errors.Wrap(err, "scan line item")
		}
		o.Details = append(o.Details, li)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate line items")
	}

	return o, nil
}

// List returns recent orders, newest first, without their line items.
func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateStatus applies a status change with a compare-and-swap on the order's
// version and appends the history record in the same transaction. A stale
// version surfaces as status.ErrVersionConflict and nothing is written.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID, fromStatusID, toStatusID string, version int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx, updateStatusSQL, orderID, toStatusID, version)
	if err != nil {
		return errors.Wrapf(err, "update status of order %q", orderID)
	}
	if tag.RowsAffected() == 0 {
		return status.ErrVersionConflict
	}

	if _, err := tx.Exec(ctx, insertHistorySQL, orderID, fromStatusID, toStatusID); err != nil {
		return errors.Wrapf(err, "insert status history for order %q", orderID)
	}

	return tx.Commit(ctx)
}

// History returns the status transitions recorded for an order, oldest first.
func (r *OrderRepository) History(ctx context.Context, orderID string) ([]status.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, selectHistorySQL, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "select history for order %q", orderID)
	}
	defer rows.Close()

	var out []status.HistoryEntry
	for rows.Next() {
		var h status.HistoryEntry
		if err := rows.Scan(&h.OrderID, &h.FromStatusID, &h.ToStatusID, &h.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan history entry")
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o          order.Order
		promotions []byte
	)
	err := row.Scan(
		&o.ID, &o.Code, &o.Amount, &o.Delivery, &o.BundleDiscount, &o.RenewalDiscount,
		&o.CouponDiscount, &o.PromotionDiscount, &o.CouponCode, &promotions,
		&o.StatusID, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(promotions) > 0 {
		if err := json.Unmarshal(promotions, &o.AppliedPromotions); err != nil {
			return nil, errors.Wrap(err, "unmarshal applied promotions")
		}
	}
	return &o, nil
}

func marshalPromotions(promotions []order.AppliedPromotion) ([]byte, error) {
	if len(promotions) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(promotions)
	if err != nil {
		return nil, errors.Wrap(err, "marshal applied promotions")
	}
	return b, nil
}
