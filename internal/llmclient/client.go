package llmclient

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIError represents a non-2xx HTTP response from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api error: status %d: %s", e.StatusCode, e.Body)
}

// StreamDriver issues streaming chat/completions requests against an
// OpenAI-compatible endpoint and forwards parsed StreamEvents to a caller
// supplied channel while assembling the final assistant Message.
type StreamDriver struct {
	httpClient *http.Client
}

// NewStreamDriver builds a driver with the given request timeout. A timeout
// of zero disables the deadline, matching the teacher's http.Client usage.
func NewStreamDriver(timeout time.Duration) *StreamDriver {
	return &StreamDriver{httpClient: &http.Client{Timeout: timeout}}
}

func completionsURL(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(trimmed, "/chat/completions") {
		return trimmed
	}
	return trimmed + "/chat/completions"
}
