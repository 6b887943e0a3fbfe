package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AKI-NANA/ebay-connector/internal/model"
)

// ErrProductNotFound marks a catalog id with no backing row. The batch
// processor converts it to a per-item failure instead of aborting the run.
var ErrProductNotFound = errors.New("product not found")

// Store gives typed access to the connector's Postgres tables: the fee
// schedule it owns and a read-only view of the product catalog.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New opens a connection pool and verifies the database is reachable.
func New(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	s := &Store{
		pool:   pool,
		logger: logger.With("component", "store"),
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return s, nil
}

// Pool exposes the underlying pool so sibling components (the cache store)
// can share the same connections.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertFeeSchedule writes one fee row keyed by (category id, listing
// format). Writing the same key twice leaves one row with the latest
// values.
func (s *Store) UpsertFeeSchedule(ctx context.Context, schedule model.FeeSchedule) error {
	const q = `
INSERT INTO category_fees (
    category_id, listing_format, insertion_fee,
    final_value_fee_pct, final_value_fee_cap,
    payment_pct, payment_fixed_fee, refreshed_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (category_id, listing_format) DO UPDATE SET
    insertion_fee = EXCLUDED.insertion_fee,
    final_value_fee_pct = EXCLUDED.final_value_fee_pct,
    final_value_fee_cap = EXCLUDED.final_value_fee_cap,
    payment_pct = EXCLUDED.payment_pct,
    payment_fixed_fee = EXCLUDED.payment_fixed_fee,
    refreshed_at = EXCLUDED.refreshed_at;
`
	_, err := s.pool.Exec(ctx, q,
		schedule.CategoryID,
		schedule.ListingFormat,
		schedule.InsertionFee,
		schedule.FinalValuePct,
		schedule.FinalValueCap,
		schedule.PaymentPct,
		schedule.PaymentFixedFee,
		schedule.RefreshedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert fee schedule %s/%s: %w", schedule.CategoryID, schedule.ListingFormat, err)
	}
	return nil
}

// GetFeeSchedule reads one fee row. Returns nil without error when no row
// exists yet.
func (s *Store) GetFeeSchedule(ctx context.Context, categoryID, listingFormat string) (*model.FeeSchedule, error) {
	const q = `
SELECT category_id, listing_format, insertion_fee,
       final_value_fee_pct, final_value_fee_cap,
       payment_pct, payment_fixed_fee, refreshed_at
FROM category_fees
WHERE category_id = $1 AND listing_format = $2;
`
	var fs model.FeeSchedule
	err := s.pool.QueryRow(ctx, q, categoryID, listingFormat).Scan(
		&fs.CategoryID,
		&fs.ListingFormat,
		&fs.InsertionFee,
		&fs.FinalValuePct,
		&fs.FinalValueCap,
		&fs.PaymentPct,
		&fs.PaymentFixedFee,
		&fs.RefreshedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fee schedule %s/%s: %w", categoryID, listingFormat, err)
	}
	return &fs, nil
}

// FetchProduct resolves a catalog id to the text fields the classifier
// needs. The catalog is owned by the wider system; this is a read-only
// adapter.
func (s *Store) FetchProduct(ctx context.Context, id string) (*model.Product, error) {
	const q = `
SELECT id, title, COALESCE(description, ''), COALESCE(brand, '')
FROM products
WHERE id = $1;
`
	var p model.Product
	err := s.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Title, &p.Description, &p.Brand)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", id, err)
	}
	return &p, nil
}
