package model

import "time"

// Product is the slice of a catalog row the enricher needs: enough text to
// classify, nothing more.
type Product struct {
	ID          string
	Title       string
	Description string
	Brand       string
}

// ClassifiableText joins the product's text fields for the classifier.
func (p Product) ClassifiableText() string {
	text := p.Title
	if p.Brand != "" {
		text += " " + p.Brand
	}
	if p.Description != "" {
		text += " " + p.Description
	}
	return text
}

// Classification is a local category guess with a 0-100 confidence score.
type Classification struct {
	CategoryID   string
	CategoryName string
	Confidence   float64
}

// CategoryNode is an immutable snapshot of one node in the remote category
// hierarchy. ParentID is empty for root categories.
type CategoryNode struct {
	ID          string
	Name        string
	ParentID    string
	Level       int
	Leaf        bool
	AutoPayable bool
}

// FeeSchedule holds the fee terms for one (category, listing format) pair.
// Percentages are expressed as fractions of 100, e.g. 13.25 for 13.25%.
type FeeSchedule struct {
	CategoryID      string
	ListingFormat   string
	InsertionFee    float64
	FinalValuePct   float64
	FinalValueCap   float64
	PaymentPct      float64
	PaymentFixedFee float64
	RefreshedAt     time.Time
}

// ListingFormatFixedPrice is the only format the reselling flow lists under.
const ListingFormatFixedPrice = "FixedPriceItem"

// SpecificsRecommendation is one recommended item-specific attribute with
// its candidate values, ordered by descending confidence.
type SpecificsRecommendation struct {
	Name       string
	Confidence float64
	Values     []SpecificValue
}

// SpecificValue is a candidate value for a recommended attribute.
type SpecificValue struct {
	Value      string
	Confidence float64
}

// EnrichmentStatus is the terminal state of one product's enrichment.
type EnrichmentStatus string

const (
	// StatusEnriched means the local classification cleared the confidence
	// gate. Remote data may still be partial; see FailureReason.
	StatusEnriched EnrichmentStatus = "ENRICHED"
	// StatusSkippedLowConfidence means the guess was below the gate and no
	// remote calls were made. Deliberate cost control, not an error.
	StatusSkippedLowConfidence EnrichmentStatus = "SKIPPED_LOW_CONFIDENCE"
	// StatusFailed means no usable local classification was produced.
	StatusFailed EnrichmentStatus = "FAILED"
)

// EnrichmentResult is the immutable outcome for a single batch item.
type EnrichmentResult struct {
	ProductID      string
	Status         EnrichmentStatus
	Classification *Classification
	Fees           *FeeSchedule
	Specifics      []SpecificsRecommendation
	Applied        bool
	FailureReason  string
}
