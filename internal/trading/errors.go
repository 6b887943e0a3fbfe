package trading

import (
	"fmt"
	"strings"
)

// TransportError covers connection failures, timeouts, and non-2xx HTTP
// statuses. The payload was never interpreted. Retryable at the caller's
// discretion; nothing below the orchestrator retries.
type TransportError struct {
	Call       string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: transport failure: status %d", e.Call, e.StatusCode)
	}
	return fmt.Sprintf("%s: transport failure: %v", e.Call, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means the response body could not be decoded. This is a
// contract mismatch, not a transient condition: retrying the same request
// will fail the same way.
type ProtocolError struct {
	Call string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Call, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// RemoteAPIError is an application-level rejection embedded in a
// well-formed response envelope. All embedded error messages are carried so
// the operator sees the full story, not just the first entry.
type RemoteAPIError struct {
	Call     string
	Messages []string
}

func (e *RemoteAPIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s: API rejected the request", e.Call)
	}
	return fmt.Sprintf("%s: API error: %s", e.Call, strings.Join(e.Messages, "; "))
}
