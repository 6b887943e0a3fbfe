package trading

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/AKI-NANA/ebay-connector/internal/config"
)

const (
	productionEndpoint = "https://api.ebay.com/ws/api.dll"
	sandboxEndpoint    = "https://api.sandbox.ebay.com/ws/api.dll"

	// DefaultTimeout bounds every Trading API round trip. The transport is
	// the only layer that cancels on its own; retry policy lives above it.
	DefaultTimeout = 30 * time.Second
)

// Transport executes an encoded request and returns the raw response body.
// It never interprets the payload; decode handles payload-level errors.
type Transport interface {
	Send(ctx context.Context, call string, payload []byte) ([]byte, error)
}

// HTTPTransport POSTs envelopes to the production or sandbox endpoint
// selected by the credentials.
type HTTPTransport struct {
	httpClient *http.Client
	creds      config.Credentials
	endpoint   string
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport builds a transport with the fixed default timeout.
func NewHTTPTransport(creds config.Credentials) *HTTPTransport {
	endpoint := productionEndpoint
	if creds.Sandbox {
		endpoint = sandboxEndpoint
	}
	return &HTTPTransport{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		creds:      creds,
		endpoint:   endpoint,
	}
}

func (t *HTTPTransport) Send(ctx context.Context, call string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Call: call, Err: err}
	}

	req.Header.Set("X-EBAY-API-COMPATIBILITY-LEVEL", t.creds.CompatibilityLevel)
	req.Header.Set("X-EBAY-API-DEV-NAME", t.creds.DevID)
	req.Header.Set("X-EBAY-API-APP-NAME", t.creds.AppID)
	req.Header.Set("X-EBAY-API-CERT-NAME", t.creds.CertID)
	req.Header.Set("X-EBAY-API-CALL-NAME", call)
	req.Header.Set("X-EBAY-API-SITEID", t.creds.SiteID)
	req.Header.Set("Content-Type", "text/xml")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Call: call, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Call: call, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Call: call, StatusCode: resp.StatusCode}
	}

	return body, nil
}
