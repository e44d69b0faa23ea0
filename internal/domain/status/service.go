package status

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kasamart/sales-api/internal/domain/order"
)

// OrderStore is the slice of order persistence the status component needs:
// loading the current state, and the version-checked status update that also
// appends the history record.
type OrderStore interface {
	GetByID(ctx context.Context, id string) (*order.Order, error)
	UpdateStatus(ctx context.Context, orderID, fromStatusID, toStatusID string, version int64) error
	History(ctx context.Context, orderID string) ([]HistoryEntry, error)
}

// Service validates and applies order status changes against the
// operator-configured transition graph.
type Service struct {
	statuses Repository
	orders   OrderStore
}

// NewService creates a status Service.
func NewService(statuses Repository, orders OrderStore) *Service {
	return &Service{statuses: statuses, orders: orders}
}

// ChangeStatus moves an order to the given target status. The target must be
// a configured status and the edge from the order's current status must exist
// in the transition graph. The persisted update is version-checked; a
// concurrent modification surfaces as ErrVersionConflict and the order is
// left untouched. Pricing fields are never affected.
func (s *Service) ChangeStatus(ctx context.Context, orderID, newStatusID string) (*Status, error) {
	target, err := s.statuses.GetByID(ctx, newStatusID)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StatusID == newStatusID {
		return target, nil
	}

	graph, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}
	if !graph.Allows(o.StatusID, newStatusID) {
		from := o.StatusID
		if cur, err := s.statuses.GetByID(ctx, o.StatusID); err == nil {
			from = cur.Name
		}
		return nil, &InvalidTransitionError{From: from, To: target.Name}
	}

	if err := s.orders.UpdateStatus(ctx, orderID, o.StatusID, newStatusID, o.Version); err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("order status changed",
		zap.String("order_id", orderID),
		zap.String("from", o.StatusID),
		zap.String("to", newStatusID),
	)
	return target, nil
}

// History returns the recorded status transitions of an order, oldest first.
func (s *Service) History(ctx context.Context, orderID string) ([]HistoryEntry, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.History(ctx, orderID)
}

// graph loads the transition configuration fresh on every change, so
// administrative edits take effect without a restart.
func (s *Service) graph(ctx context.Context) (Graph, error) {
	transitions, err := s.statuses.Transitions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load transitions")
	}
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load statuses")
	}
	return NewGraph(transitions, statuses), nil
}
