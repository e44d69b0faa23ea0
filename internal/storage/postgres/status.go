package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasamart/sales-api/internal/domain/status"
)

const (
	listStatusesSQL = `SELECT id, name, color, reversible FROM order_statuses ORDER BY name`

	selectStatusByIDSQL = `SELECT id, name, color, reversible FROM order_statuses WHERE id = $1`

	selectStatusByNameSQL = `SELECT id, name, color, reversible FROM order_statuses WHERE name = $1`

	listTransitionsSQL = `SELECT from_status_id, to_status_id FROM order_status_transitions`
)

var _ status.Repository = (*StatusRepository)(nil)

// StatusRepository implements status.Repository backed by PostgreSQL.
type StatusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository returns a StatusRepository that uses the given pool.
func NewStatusRepository(pool *pgxpool.Pool) *StatusRepository {
	return &StatusRepository{pool: pool}
}

// List returns all configured statuses.
func (r *StatusRepository) List(ctx context.Context) ([]status.Status, error) {
	rows, err := r.pool.Query(ctx, listStatusesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list statuses")
	}
	defer rows.Close()

	var out []status.Status
	for rows.Next() {
		var s status.Status
		if err := rows.Scan(&s.ID, &s.Name, &s.Color, &s.Reversible); err != nil {
			return nil, errors.Wrap(err, "scan status")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID looks up a configured status by its id.
// Returns status.ErrUnknownStatus when no such status exists.
func (r *StatusRepository) GetByID(ctx context.Context, id string) (*status.Status, error) {
	return r.getOne(ctx, selectStatusByIDSQL, id)
}

// GetByName looks up a configured status by its display name.
// Returns status.ErrUnknownStatus when no such status exists.
func (r *StatusRepository) GetByName(ctx context.Context, name string) (*status.Status, error) {
	return r.getOne(ctx, selectStatusByNameSQL, name)
}

func (r *StatusRepository) getOne(ctx context.Context, sql, arg string) (*status.Status, error) {
	var s status.Status
	err := r.pool.QueryRow(ctx, sql, arg).Scan(&s.ID, &s.Name, &s.Color, &s.Reversible)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, status.ErrUnknownStatus
		}
		return nil, errors.Wrapf(err, "select status %q", arg)
	}
	return &s, nil
}

// Transitions returns the configured forward edges of the status graph.
func (r *StatusRepository) Transitions(ctx context.Context) ([]status.Transition, error) {
	rows, err := r.pool.Query(ctx, listTransitionsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list transitions")
	}
	defer rows.Close()

	var out []status.Transition
	for rows.Next() {
		var t status.Transition
		if err := rows.Scan(&t.FromID, &t.ToID); err != nil {
			return nil, errors.Wrap(err, "scan transition")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
