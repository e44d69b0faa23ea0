// Command seed-db provisions the default status catalog, the transition
// graph between statuses, and a handful of demo coupons. It is idempotent
// and safe to re-run.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kasamart/sales-api/internal/storage/postgres"
)

type statusSeed struct {
	id         string
	name       string
	color      string
	reversible bool
}

var defaultStatuses = []statusSeed{
	{id: "pending", name: "Pendiente", color: "#f59e0b", reversible: false},
	{id: "confirmed", name: "Confirmado", color: "#3b82f6", reversible: true},
	{id: "shipped", name: "Enviado", color: "#8b5cf6", reversible: false},
	{id: "delivered", name: "Entregado", color: "#22c55e", reversible: false},
	{id: "cancelled", name: "Anulado", color: "#ef4444", reversible: false},
}

// Forward edges only. Reversible statuses get their backward edges at
// evaluation time, not in the table.
var defaultTransitions = [][2]string{
	{"pending", "confirmed"},
	{"pending", "cancelled"},
	{"confirmed", "shipped"},
	{"confirmed", "cancelled"},
	{"shipped", "delivered"},
}

type couponSeed struct {
	code         string
	discountType string
	value        decimal.Decimal
	minItems     int32
	description  string
}

var demoCoupons = []couponSeed{
	{code: "SAVE15", discountType: "percentage", value: decimal.NewFromInt(15), description: "15% off entire order"},
	{code: "TENOFF", discountType: "fixed", value: decimal.NewFromInt(10), description: "$10 off your order"},
	{code: "BUYGETONE", discountType: "free_lowest", value: decimal.Zero, minItems: 2, description: "Buy one get one: lowest priced item free"},
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedStatuses(ctx, pool); err != nil {
		return errors.Wrap(err, "seed statuses")
	}
	if err := seedTransitions(ctx, pool); err != nil {
		return errors.Wrap(err, "seed transitions")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedStatuses(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("upserting statuses", slog.Int("count", len(defaultStatuses)))

	const sql = `
		INSERT INTO order_statuses (id, name, color, reversible)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, color = EXCLUDED.color, reversible = EXCLUDED.reversible`

	for _, s := range defaultStatuses {
		if _, err := pool.Exec(ctx, sql, s.id, s.name, s.color, s.reversible); err != nil {
			return errors.Wrapf(err, "upsert status %s", s.id)
		}

		slog.Info("upserted status", slog.String("id", s.id), slog.String("name", s.name))
	}

	return nil
}

func seedTransitions(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("upserting transitions", slog.Int("count", len(defaultTransitions)))

	const sql = `
		INSERT INTO order_status_transitions (from_status_id, to_status_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	for _, t := range defaultTransitions {
		if _, err := pool.Exec(ctx, sql, t[0], t[1]); err != nil {
			return errors.Wrapf(err, "upsert transition %s -> %s", t[0], t[1])
		}
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("upserting demo coupons", slog.Int("count", len(demoCoupons)))

	const sql = `
		INSERT INTO coupons (code, discount_type, value, min_items, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE
		SET discount_type = EXCLUDED.discount_type,
		    value = EXCLUDED.value,
		    min_items = EXCLUDED.min_items,
		    description = EXCLUDED.description`

	for _, c := range demoCoupons {
		if _, err := pool.Exec(ctx, sql, c.code, c.discountType, c.value, c.minItems, c.description); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("upserted coupon", slog.String("code", c.code), slog.String("description", c.description))
	}

	return nil
}
