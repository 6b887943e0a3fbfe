package enrich

import (
	"context"
	"log/slog"
	"strings"

	"github.com/AKI-NANA/ebay-connector/internal/classify"
	"github.com/AKI-NANA/ebay-connector/internal/model"
)

// DefaultConfidenceThreshold gates remote enrichment. Inherited from the
// original workflow; override via config, not by editing this.
const DefaultConfidenceThreshold = 70.0

// TradingClient is the slice of the connector the orchestrator needs.
type TradingClient interface {
	GetCategoryFees(ctx context.Context, categoryID string) (*model.FeeSchedule, error)
	GetItemSpecifics(ctx context.Context, categoryID string) ([]model.SpecificsRecommendation, error)
}

// Orchestrator runs the per-product state machine:
// classified -> enriched | skipped-low-confidence | failed.
type Orchestrator struct {
	classifier classify.Classifier
	client     TradingClient
	threshold  float64
	logger     *slog.Logger
}

// NewOrchestrator builds an orchestrator. A threshold <= 0 falls back to
// the default gate.
func NewOrchestrator(classifier classify.Classifier, client TradingClient, threshold float64, logger *slog.Logger) *Orchestrator {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Orchestrator{
		classifier: classifier,
		client:     client,
		threshold:  threshold,
		logger:     logger.With("component", "enrich"),
	}
}

// EnrichProduct classifies one product and, when the guess clears the
// confidence gate, augments it with remote fee and specifics data. Remote
// failures downgrade to a partial Enriched result that keeps the local
// classification; Failed is reserved for the classifier producing nothing.
func (o *Orchestrator) EnrichProduct(ctx context.Context, product model.Product) model.EnrichmentResult {
	cls, err := o.classifier.Classify(ctx, product.ClassifiableText())
	if err != nil {
		return model.EnrichmentResult{
			ProductID:     product.ID,
			Status:        model.StatusFailed,
			FailureReason: "classify: " + err.Error(),
		}
	}

	if cls.Confidence < o.threshold {
		// Cost-control gate, not an error: no remote calls below the line.
		return model.EnrichmentResult{
			ProductID:      product.ID,
			Status:         model.StatusSkippedLowConfidence,
			Classification: &cls,
		}
	}

	result := model.EnrichmentResult{
		ProductID:      product.ID,
		Status:         model.StatusEnriched,
		Classification: &cls,
	}

	var failures []string

	fees, err := o.client.GetCategoryFees(ctx, cls.CategoryID)
	if err != nil {
		o.logger.Warn("fee lookup failed", "product", product.ID, "category", cls.CategoryID, "error", err)
		failures = append(failures, err.Error())
	} else {
		result.Fees = fees
	}

	specifics, err := o.client.GetItemSpecifics(ctx, cls.CategoryID)
	if err != nil {
		o.logger.Warn("specifics lookup failed", "product", product.ID, "category", cls.CategoryID, "error", err)
		failures = append(failures, err.Error())
	} else {
		result.Specifics = specifics
	}

	result.Applied = len(failures) == 0
	result.FailureReason = strings.Join(failures, "; ")
	return result
}
