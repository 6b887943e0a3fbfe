package trading

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/AKI-NANA/ebay-connector/internal/config"
	"github.com/AKI-NANA/ebay-connector/internal/model"
)

// Trading API call names in scope.
const (
	CallGetCategories        = "GetCategories"
	CallGetCategoryFeatures  = "GetCategoryFeatures"
	CallGetCategorySpecifics = "GetCategorySpecifics"
)

const apiNamespace = "urn:ebay:apis:eBLBaseComponents"

const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>`

// requesterCredentials carries the user token inside every request body.
type requesterCredentials struct {
	EBayAuthToken string `xml:"eBayAuthToken"`
}

// BuildRequest marshals a request body into a complete envelope with the
// XML declaration prepended. Pure function of its inputs; every request the
// connector sends goes through here so it can be golden-tested offline.
func BuildRequest(body any) ([]byte, error) {
	data, err := xml.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return append([]byte(xmlHeader), data...), nil
}

// getCategoriesRequest fetches a slice of the category hierarchy below
// CategoryParent, LevelLimit levels deep.
type getCategoriesRequest struct {
	XMLName              xml.Name             `xml:"GetCategoriesRequest"`
	Xmlns                string               `xml:"xmlns,attr"`
	RequesterCredentials requesterCredentials `xml:"RequesterCredentials"`
	CategorySiteID       string               `xml:"CategorySiteID"`
	CategoryParent       string               `xml:"CategoryParent,omitempty"`
	LevelLimit           int                  `xml:"LevelLimit,omitempty"`
	ViewAllNodes         bool                 `xml:"ViewAllNodes"`
	DetailLevel          string               `xml:"DetailLevel"`
}

func newGetCategoriesRequest(creds config.Credentials, parentID string, levelLimit int) getCategoriesRequest {
	return getCategoriesRequest{
		Xmlns:                apiNamespace,
		RequesterCredentials: requesterCredentials{EBayAuthToken: creds.AuthToken},
		CategorySiteID:       creds.SiteID,
		CategoryParent:       parentID,
		LevelLimit:           levelLimit,
		ViewAllNodes:         true,
		DetailLevel:          "ReturnAll",
	}
}

// getCategoryFeaturesRequest fetches the fee terms for one category.
type getCategoryFeaturesRequest struct {
	XMLName              xml.Name             `xml:"GetCategoryFeaturesRequest"`
	Xmlns                string               `xml:"xmlns,attr"`
	RequesterCredentials requesterCredentials `xml:"RequesterCredentials"`
	CategoryID           string               `xml:"CategoryID"`
	FeatureID            []string             `xml:"FeatureID"`
	DetailLevel          string               `xml:"DetailLevel"`
}

func newGetCategoryFeaturesRequest(creds config.Credentials, categoryID string) getCategoryFeaturesRequest {
	return getCategoryFeaturesRequest{
		Xmlns:                apiNamespace,
		RequesterCredentials: requesterCredentials{EBayAuthToken: creds.AuthToken},
		CategoryID:           categoryID,
		FeatureID:            []string{"ListingFeeDetails", "PaymentFeeDetails"},
		DetailLevel:          "ReturnAll",
	}
}

// getCategorySpecificsRequest fetches recommended item specifics with
// confidence scores for one category.
type getCategorySpecificsRequest struct {
	XMLName              xml.Name             `xml:"GetCategorySpecificsRequest"`
	Xmlns                string               `xml:"xmlns,attr"`
	RequesterCredentials requesterCredentials `xml:"RequesterCredentials"`
	CategorySpecific     struct {
		CategoryID string `xml:"CategoryID"`
	} `xml:"CategorySpecific"`
	IncludeConfidence bool   `xml:"IncludeConfidence"`
	DetailLevel       string `xml:"DetailLevel"`
}

func newGetCategorySpecificsRequest(creds config.Credentials, categoryID string) getCategorySpecificsRequest {
	req := getCategorySpecificsRequest{
		Xmlns:                apiNamespace,
		RequesterCredentials: requesterCredentials{EBayAuthToken: creds.AuthToken},
		IncludeConfidence:    true,
		DetailLevel:          "ReturnAll",
	}
	req.CategorySpecific.CategoryID = categoryID
	return req
}

// responseEnvelope holds the fields shared by every Trading API response.
// Ack values Success and Warning both carry usable payloads; anything else
// means the embedded error block is authoritative.
type responseEnvelope struct {
	Ack    string `xml:"Ack"`
	Errors []struct {
		ShortMessage string `xml:"ShortMessage"`
		LongMessage  string `xml:"LongMessage"`
		ErrorCode    string `xml:"ErrorCode"`
	} `xml:"Errors"`
}

func (r responseEnvelope) succeeded() bool {
	return r.Ack == "Success" || r.Ack == "Warning"
}

func (r responseEnvelope) errorMessages() []string {
	messages := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msg := e.LongMessage
		if msg == "" {
			msg = e.ShortMessage
		}
		if e.ErrorCode != "" {
			msg = fmt.Sprintf("%s (%s)", msg, e.ErrorCode)
		}
		messages = append(messages, msg)
	}
	return messages
}

type envelopeChecker interface {
	succeeded() bool
	errorMessages() []string
}

// decodeResponse unmarshals raw into dst and maps embedded error entries to
// *RemoteAPIError. A body that fails to unmarshal is a *ProtocolError; the
// two are distinct failure kinds and callers branch on them with errors.As.
func decodeResponse(call string, raw []byte, dst envelopeChecker) error {
	if err := xml.Unmarshal(raw, dst); err != nil {
		return &ProtocolError{Call: call, Err: err}
	}
	if !dst.succeeded() {
		return &RemoteAPIError{Call: call, Messages: dst.errorMessages()}
	}
	return nil
}

type getCategoriesResponse struct {
	XMLName xml.Name `xml:"GetCategoriesResponse"`
	responseEnvelope
	CategoryArray struct {
		Categories []struct {
			CategoryID       string `xml:"CategoryID"`
			CategoryName     string `xml:"CategoryName"`
			CategoryParentID string `xml:"CategoryParentID"`
			CategoryLevel    int    `xml:"CategoryLevel"`
			LeafCategory     bool   `xml:"LeafCategory"`
			AutoPayEnabled   bool   `xml:"AutoPayEnabled"`
		} `xml:"Category"`
	} `xml:"CategoryArray"`
}

func (r *getCategoriesResponse) nodes() []model.CategoryNode {
	nodes := make([]model.CategoryNode, 0, len(r.CategoryArray.Categories))
	for _, c := range r.CategoryArray.Categories {
		parent := c.CategoryParentID
		if parent == c.CategoryID {
			// The API reports roots as their own parent.
			parent = ""
		}
		nodes = append(nodes, model.CategoryNode{
			ID:          c.CategoryID,
			Name:        c.CategoryName,
			ParentID:    parent,
			Level:       c.CategoryLevel,
			Leaf:        c.LeafCategory,
			AutoPayable: c.AutoPayEnabled,
		})
	}
	return nodes
}

type feeAmount struct {
	Value      float64 `xml:",chardata"`
	CurrencyID string  `xml:"currencyID,attr"`
}

type getCategoryFeaturesResponse struct {
	XMLName xml.Name `xml:"GetCategoryFeaturesResponse"`
	responseEnvelope
	Category struct {
		CategoryID    string    `xml:"CategoryID"`
		ListingFormat string    `xml:"ListingFormat"`
		InsertionFee  feeAmount `xml:"InsertionFee"`
		FinalValueFee struct {
			Percent float64   `xml:"Percent"`
			Cap     feeAmount `xml:"Cap"`
		} `xml:"FinalValueFee"`
		PaymentFee struct {
			Percent  float64   `xml:"Percent"`
			FixedFee feeAmount `xml:"FixedFee"`
		} `xml:"PaymentFee"`
	} `xml:"Category"`
}

func (r *getCategoryFeaturesResponse) schedule() model.FeeSchedule {
	format := r.Category.ListingFormat
	if format == "" {
		format = model.ListingFormatFixedPrice
	}
	return model.FeeSchedule{
		CategoryID:      r.Category.CategoryID,
		ListingFormat:   format,
		InsertionFee:    r.Category.InsertionFee.Value,
		FinalValuePct:   r.Category.FinalValueFee.Percent,
		FinalValueCap:   r.Category.FinalValueFee.Cap.Value,
		PaymentPct:      r.Category.PaymentFee.Percent,
		PaymentFixedFee: r.Category.PaymentFee.FixedFee.Value,
	}
}

type getCategorySpecificsResponse struct {
	XMLName xml.Name `xml:"GetCategorySpecificsResponse"`
	responseEnvelope
	Recommendations struct {
		CategoryID          string `xml:"CategoryID"`
		NameRecommendations []struct {
			Name                 string `xml:"Name"`
			Confidence           int    `xml:"Confidence"`
			ValueRecommendations []struct {
				Value      string `xml:"Value"`
				Confidence int    `xml:"Confidence"`
			} `xml:"ValueRecommendation"`
		} `xml:"NameRecommendation"`
	} `xml:"Recommendations"`
}

func (r *getCategorySpecificsResponse) recommendations() []model.SpecificsRecommendation {
	recs := make([]model.SpecificsRecommendation, 0, len(r.Recommendations.NameRecommendations))
	for _, n := range r.Recommendations.NameRecommendations {
		rec := model.SpecificsRecommendation{
			Name:       n.Name,
			Confidence: float64(n.Confidence),
		}
		for _, v := range n.ValueRecommendations {
			rec.Values = append(rec.Values, model.SpecificValue{
				Value:      v.Value,
				Confidence: float64(v.Confidence),
			})
		}
		recs = append(recs, rec)
	}
	return recs
}

func itoa(v int) string { return strconv.Itoa(v) }
