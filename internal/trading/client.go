package trading

import (
	"context"
	"log/slog"
	"time"

	"github.com/AKI-NANA/ebay-connector/internal/cache"
	"github.com/AKI-NANA/ebay-connector/internal/config"
	"github.com/AKI-NANA/ebay-connector/internal/metrics"
	"github.com/AKI-NANA/ebay-connector/internal/model"
)

// FeeStore persists fetched fee schedules. Upserts must be idempotent on
// (category id, listing format).
type FeeStore interface {
	UpsertFeeSchedule(ctx context.Context, schedule model.FeeSchedule) error
}

// Client exposes the three read operations in scope. Every fetch is
// read-through cached: a live cache entry short-circuits the remote call
// entirely.
type Client struct {
	creds     config.Credentials
	transport Transport
	store     cache.Store
	fees      FeeStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewClient wires the connector. fees may be nil when durable fee
// persistence is not wanted (tests, dry runs); metrics may be nil.
func NewClient(creds config.Credentials, transport Transport, store cache.Store, fees FeeStore, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		creds:     creds,
		transport: transport,
		store:     store,
		fees:      fees,
		logger:    logger.With("component", "trading"),
		metrics:   m,
		now:       time.Now,
	}
}

// SetClock overrides the timestamp source for fee refresh times. Test hook.
func (c *Client) SetClock(now func() time.Time) { c.now = now }

// GetCategories returns the hierarchy below parentID, levelLimit levels
// deep. An empty parentID fetches from the root.
func (c *Client) GetCategories(ctx context.Context, parentID string, levelLimit int) ([]model.CategoryNode, error) {
	key := cache.Key(CallGetCategories, map[string]string{
		"parent":      parentID,
		"level_limit": itoa(levelLimit),
		"site":        c.creds.SiteID,
	})

	var nodes []model.CategoryNode
	if c.cacheGet(ctx, CallGetCategories, key, &nodes) {
		return nodes, nil
	}

	raw, err := c.roundTrip(ctx, CallGetCategories, newGetCategoriesRequest(c.creds, parentID, levelLimit))
	if err != nil {
		return nil, err
	}

	var resp getCategoriesResponse
	if err := decodeResponse(CallGetCategories, raw, &resp); err != nil {
		c.countCall(CallGetCategories, "error")
		return nil, err
	}
	c.countCall(CallGetCategories, "ok")

	nodes = resp.nodes()
	c.cachePut(ctx, key, nodes, cache.CategoryTTL)
	return nodes, nil
}

// GetCategoryFees returns the fee schedule for a category and, on a fresh
// fetch, upserts it into the durable fee store. A failed upsert is logged
// and counted but never fails the fetch: the caller still gets the
// schedule.
func (c *Client) GetCategoryFees(ctx context.Context, categoryID string) (*model.FeeSchedule, error) {
	key := cache.Key(CallGetCategoryFeatures, map[string]string{
		"category": categoryID,
		"site":     c.creds.SiteID,
	})

	var schedule model.FeeSchedule
	if c.cacheGet(ctx, CallGetCategoryFeatures, key, &schedule) {
		return &schedule, nil
	}

	raw, err := c.roundTrip(ctx, CallGetCategoryFeatures, newGetCategoryFeaturesRequest(c.creds, categoryID))
	if err != nil {
		return nil, err
	}

	var resp getCategoryFeaturesResponse
	if err := decodeResponse(CallGetCategoryFeatures, raw, &resp); err != nil {
		c.countCall(CallGetCategoryFeatures, "error")
		return nil, err
	}
	c.countCall(CallGetCategoryFeatures, "ok")

	schedule = resp.schedule()
	if schedule.CategoryID == "" {
		schedule.CategoryID = categoryID
	}
	schedule.RefreshedAt = c.now()

	if c.fees != nil {
		if err := c.fees.UpsertFeeSchedule(ctx, schedule); err != nil {
			c.logger.Warn("fee schedule persistence failed",
				"category", categoryID, "error", err)
			if c.metrics != nil {
				c.metrics.FeePersistFailures.Inc()
			}
		}
	}

	c.cachePut(ctx, key, schedule, cache.FeeTTL)
	return &schedule, nil
}

// GetItemSpecifics returns the recommended item specifics for a category,
// confidence included.
func (c *Client) GetItemSpecifics(ctx context.Context, categoryID string) ([]model.SpecificsRecommendation, error) {
	key := cache.Key(CallGetCategorySpecifics, map[string]string{
		"category": categoryID,
		"site":     c.creds.SiteID,
	})

	var recs []model.SpecificsRecommendation
	if c.cacheGet(ctx, CallGetCategorySpecifics, key, &recs) {
		return recs, nil
	}

	raw, err := c.roundTrip(ctx, CallGetCategorySpecifics, newGetCategorySpecificsRequest(c.creds, categoryID))
	if err != nil {
		return nil, err
	}

	var resp getCategorySpecificsResponse
	if err := decodeResponse(CallGetCategorySpecifics, raw, &resp); err != nil {
		c.countCall(CallGetCategorySpecifics, "error")
		return nil, err
	}
	c.countCall(CallGetCategorySpecifics, "ok")

	recs = resp.recommendations()
	c.cachePut(ctx, key, recs, cache.SpecificsTTL)
	return recs, nil
}

func (c *Client) roundTrip(ctx context.Context, call string, body any) ([]byte, error) {
	payload, err := BuildRequest(body)
	if err != nil {
		return nil, &ProtocolError{Call: call, Err: err}
	}

	start := time.Now()
	raw, err := c.transport.Send(ctx, call, payload)
	if c.metrics != nil {
		c.metrics.RemoteLatency.WithLabelValues(call).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.countCall(call, "transport_error")
		return nil, err
	}
	return raw, nil
}

// cacheGet reports a hit. A cache read failure is downgraded to a miss: the
// cache must never break a fetch.
func (c *Client) cacheGet(ctx context.Context, call, key string, target any) bool {
	hit, err := c.store.Get(ctx, key, target)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	if c.metrics != nil {
		if hit {
			c.metrics.CacheHits.WithLabelValues(call).Inc()
		} else {
			c.metrics.CacheMisses.WithLabelValues(call).Inc()
		}
	}
	return hit
}

func (c *Client) cachePut(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := c.store.Put(ctx, key, value, ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func (c *Client) countCall(call, status string) {
	if c.metrics != nil {
		c.metrics.RemoteCalls.WithLabelValues(call, status).Inc()
	}
}
