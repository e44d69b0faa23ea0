package status

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrUnknownStatus is returned when a status id does not reference a
	// configured status.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrVersionConflict is returned when an order was modified concurrently
	// between read and status update.
	ErrVersionConflict = errors.New("order was modified concurrently")
)

// InvalidTransitionError indicates a status change not permitted by the
// configured transition graph.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition from %q to %q is not allowed", e.From, e.To)
}

// Status is a named, colored order state configured by the operator. The set
// of statuses is open: new ones may be added administratively. Reversible
// marks a status that orders may move back to after leaving it.
type Status struct {
	ID         string
	Name       string
	Color      string
	Reversible bool
}

// Transition is one configured forward edge of the status graph.
type Transition struct {
	FromID string
	ToID   string
}

// HistoryEntry records one applied status change of an order.
type HistoryEntry struct {
	OrderID      string
	FromStatusID string
	ToStatusID   string
	CreatedAt    time.Time
}

// Repository provides access to the configured statuses and their
// transition graph.
type Repository interface {
	List(ctx context.Context) ([]Status, error)
	GetByID(ctx context.Context, id string) (*Status, error)
	GetByName(ctx context.Context, name string) (*Status, error)
	Transitions(ctx context.Context) ([]Transition, error)
}
