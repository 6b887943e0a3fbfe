package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AKI-NANA/ebay-connector/internal/model"
)

// Classifier is the local heuristic category detector. Its internals are
// external to this connector; all we require is a guess with a confidence
// score.
type Classifier interface {
	Classify(ctx context.Context, productText string) (model.Classification, error)
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, productText string) (model.Classification, error)

func (f Func) Classify(ctx context.Context, productText string) (model.Classification, error) {
	return f(ctx, productText)
}

// HTTPClassifier calls the classifier service over HTTP. The service owns
// the heuristics; this adapter only moves text in and a guess out.
type HTTPClassifier struct {
	baseURL    string
	httpClient *http.Client
}

var _ Classifier = (*HTTPClassifier)(nil)

// NewHTTPClassifier points the adapter at the classifier endpoint.
func NewHTTPClassifier(baseURL string) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Confidence   float64 `json:"confidence"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, productText string) (model.Classification, error) {
	payload, err := json.Marshal(classifyRequest{Text: productText})
	if err != nil {
		return model.Classification{}, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return model.Classification{}, fmt.Errorf("create classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Classification{}, fmt.Errorf("classify request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Classification{}, fmt.Errorf("read classify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Classification{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var decoded classifyResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return model.Classification{}, fmt.Errorf("parse classify response: %w", err)
	}
	if decoded.CategoryID == "" {
		return model.Classification{}, fmt.Errorf("classifier produced no category")
	}

	return model.Classification{
		CategoryID:   decoded.CategoryID,
		CategoryName: decoded.CategoryName,
		Confidence:   decoded.Confidence,
	}, nil
}
