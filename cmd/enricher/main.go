package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AKI-NANA/ebay-connector/internal/cache"
	"github.com/AKI-NANA/ebay-connector/internal/classify"
	"github.com/AKI-NANA/ebay-connector/internal/config"
	"github.com/AKI-NANA/ebay-connector/internal/enrich"
	"github.com/AKI-NANA/ebay-connector/internal/logging"
	"github.com/AKI-NANA/ebay-connector/internal/metrics"
	"github.com/AKI-NANA/ebay-connector/internal/model"
	"github.com/AKI-NANA/ebay-connector/internal/store"
	"github.com/AKI-NANA/ebay-connector/internal/trading"
	"github.com/AKI-NANA/ebay-connector/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ids := os.Args[1:]
	if len(ids) == 0 {
		return fmt.Errorf("usage: enricher <product-id> [product-id ...]")
	}

	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting enricher",
		"sandbox", cfg.Credentials.Sandbox,
		"products", len(ids),
		"concurrency", cfg.BatchConcurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	promMetrics := metrics.Registry(cfg.MetricsNamespace)

	db, err := store.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrated")

	cacheStore := cache.NewPostgres(db.Pool(), logger)
	sweeper, err := cacheStore.StartSweeper(ctx, "@hourly")
	if err != nil {
		return fmt.Errorf("start cache sweeper: %w", err)
	}
	defer sweeper.Stop()

	if cfg.ClassifierURL == "" {
		return fmt.Errorf("CLASSIFIER_URL must be set to enrich products")
	}
	classifier := classify.NewHTTPClassifier(cfg.ClassifierURL)

	transport := trading.NewHTTPTransport(cfg.Credentials)
	client := trading.NewClient(cfg.Credentials, transport, cacheStore, db, logger, promMetrics)

	orchestrator := enrich.NewOrchestrator(classifier, client, cfg.ConfidenceThreshold, logger)
	processor := enrich.NewProcessor(db, orchestrator, enrich.ProcessorConfig{
		ChunkDelay: cfg.ChunkDelay,
	}, logger, promMetrics)

	results := processor.Run(ctx, ids, cfg.BatchConcurrency)
	report(results)

	logger.Info("batch finished", "products", len(results))
	return nil
}

// report prints one line per input id. A batch never aborts early, so the
// report always covers every requested product.
func report(results []model.EnrichmentResult) {
	for _, r := range results {
		switch r.Status {
		case model.StatusEnriched:
			line := fmt.Sprintf("%s\tENRICHED\tcategory=%s confidence=%.0f",
				r.ProductID, r.Classification.CategoryID, r.Classification.Confidence)
			if r.Fees != nil {
				line += fmt.Sprintf(" fvf=%.2f%%", r.Fees.FinalValuePct)
			}
			line += fmt.Sprintf(" specifics=%d", len(r.Specifics))
			if r.FailureReason != "" {
				line += "\tpartial: " + r.FailureReason
			}
			fmt.Println(line)
		case model.StatusSkippedLowConfidence:
			fmt.Printf("%s\tSKIPPED\tconfidence=%.0f below threshold\n",
				r.ProductID, r.Classification.Confidence)
		default:
			fmt.Printf("%s\tFAILED\t%s\n", r.ProductID, r.FailureReason)
		}
	}
}
