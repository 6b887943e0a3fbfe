package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AKI-NANA/ebay-connector/internal/metrics"
	"github.com/AKI-NANA/ebay-connector/internal/model"
	"github.com/AKI-NANA/ebay-connector/internal/ratelimit"
)

// Catalog resolves product ids to classifiable rows. Owned by the wider
// system; consumed here behind this interface.
type Catalog interface {
	FetchProduct(ctx context.Context, id string) (*model.Product, error)
}

const (
	// DefaultConcurrency is the chunk size and worker bound.
	DefaultConcurrency = 5
	// DefaultChunkDelay paces chunks against the remote API's rate limit.
	DefaultChunkDelay = 500 * time.Millisecond
	// defaultRequestRate bounds individual remote requests inside a chunk.
	defaultRequestRate = rate.Limit(5)
)

// ProcessorConfig tunes the batch processor. Zero values pick defaults.
type ProcessorConfig struct {
	ChunkDelay  time.Duration
	RequestRate rate.Limit
}

// Processor runs enrichment over a list of product ids with bounded
// concurrency per chunk and a pacing delay between chunks. Pacing and the
// worker bound are independent: the pacer is a token bucket, the in-chunk
// limiter is a rate.Limiter.
type Processor struct {
	catalog      Catalog
	orchestrator *Orchestrator
	pacer        *ratelimit.Limiter
	requests     *rate.Limiter
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// NewProcessor wires a batch processor.
func NewProcessor(catalog Catalog, orchestrator *Orchestrator, cfg ProcessorConfig, logger *slog.Logger, m *metrics.Metrics) *Processor {
	delay := cfg.ChunkDelay
	if delay <= 0 {
		delay = DefaultChunkDelay
	}
	reqRate := cfg.RequestRate
	if reqRate <= 0 {
		reqRate = defaultRequestRate
	}
	return &Processor{
		catalog:      catalog,
		orchestrator: orchestrator,
		pacer:        ratelimit.NewLimiter(1, delay),
		requests:     rate.NewLimiter(reqRate, DefaultConcurrency),
		logger:       logger.With("component", "batch"),
		metrics:      m,
	}
}

// Pacer exposes the chunk pacer so tests can install a fake clock.
func (p *Processor) Pacer() *ratelimit.Limiter { return p.pacer }

// Run enriches every id and returns one result per input, index-aligned
// with ids regardless of completion order. A single item's failure never
// aborts the batch; cancellation marks the unprocessed remainder failed
// with the context error.
func (p *Processor) Run(ctx context.Context, ids []string, maxConcurrency int) []model.EnrichmentResult {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConcurrency
	}

	results := make([]model.EnrichmentResult, len(ids))

	for start := 0; start < len(ids); start += maxConcurrency {
		if err := p.pacer.Wait(ctx); err != nil {
			p.failRemainder(results, ids, start, err)
			break
		}

		end := start + maxConcurrency
		if end > len(ids) {
			end = len(ids)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = p.processOne(ctx, ids[i])
			}(i)
		}
		wg.Wait()
	}

	for _, r := range results {
		p.countOutcome(r.Status)
	}
	return results
}

func (p *Processor) processOne(ctx context.Context, id string) model.EnrichmentResult {
	if err := p.requests.Wait(ctx); err != nil {
		return model.EnrichmentResult{
			ProductID:     id,
			Status:        model.StatusFailed,
			FailureReason: err.Error(),
		}
	}

	product, err := p.catalog.FetchProduct(ctx, id)
	if err != nil {
		p.logger.Warn("catalog lookup failed", "product", id, "error", err)
		return model.EnrichmentResult{
			ProductID:     id,
			Status:        model.StatusFailed,
			FailureReason: "catalog: " + err.Error(),
		}
	}

	return p.orchestrator.EnrichProduct(ctx, *product)
}

func (p *Processor) failRemainder(results []model.EnrichmentResult, ids []string, from int, err error) {
	for i := from; i < len(ids); i++ {
		results[i] = model.EnrichmentResult{
			ProductID:     ids[i],
			Status:        model.StatusFailed,
			FailureReason: err.Error(),
		}
	}
}

func (p *Processor) countOutcome(status model.EnrichmentStatus) {
	if p.metrics != nil {
		p.metrics.EnrichmentOutcomes.WithLabelValues(string(status)).Inc()
	}
}
