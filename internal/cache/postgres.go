package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// Postgres stores cache entries in the api_cache table so repeated runs
// share one TTL window. Expiry is enforced in the read query; the optional
// sweeper only reclaims space.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an existing pool. The pool's lifecycle belongs to the
// caller.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	return &Postgres{
		pool:   pool,
		logger: logger.With("component", "cache"),
	}
}

func (p *Postgres) Get(ctx context.Context, key string, target any) (bool, error) {
	const q = `
SELECT payload
FROM api_cache
WHERE cache_key = $1 AND expires_at > NOW();
`
	var payload []byte
	err := p.pool.QueryRow(ctx, q, key).Scan(&payload)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache entry %q: %w", key, err)
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return false, fmt.Errorf("unmarshal cache entry %q: %w", key, err)
	}
	return true, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache entry %q: %w", key, err)
	}

	const q = `
INSERT INTO api_cache (cache_key, payload, expires_at)
VALUES ($1, $2, NOW() + $3)
ON CONFLICT (cache_key) DO UPDATE SET
    payload = EXCLUDED.payload,
    expires_at = EXCLUDED.expires_at;
`
	if _, err := p.pool.Exec(ctx, q, key, payload, ttl); err != nil {
		return fmt.Errorf("upsert cache entry %q: %w", key, err)
	}
	return nil
}

// Sweep deletes expired rows and returns how many were removed.
func (p *Postgres) Sweep(ctx context.Context) (int64, error) {
	ct, err := p.pool.Exec(ctx, `DELETE FROM api_cache WHERE expires_at <= NOW();`)
	if err != nil {
		return 0, fmt.Errorf("sweep cache: %w", err)
	}
	return ct.RowsAffected(), nil
}

// StartSweeper schedules Sweep on the given cron spec (e.g. "@hourly") and
// returns the running scheduler. Callers stop it on shutdown.
func (p *Postgres) StartSweeper(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		removed, err := p.Sweep(ctx)
		if err != nil {
			p.logger.Warn("cache sweep failed", "error", err)
			return
		}
		if removed > 0 {
			p.logger.Debug("cache sweep removed expired entries", "count", removed)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule cache sweeper: %w", err)
	}
	c.Start()
	return c, nil
}
