package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a remote secret fetch.
const DefaultTimeout = 10 * time.Second

// HTTP fetches the secret with a GET request. The response body, trimmed,
// is the secret.
type HTTP struct {
	client *resty.Client
}

// NewHTTP returns an HTTP resolver with the given request timeout.
func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{client: resty.New().SetTimeout(timeout)}
}

// WithClient returns an HTTP resolver using an existing resty client.
func WithClient(client *resty.Client) *HTTP {
	return &HTTP{client: client}
}

// Resolve fetches url. Any non-2xx status is a failure.
func (h *HTTP) Resolve(ctx context.Context, url string) ([]byte, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/plain, application/octet-stream").
		Get(url)
	if err != nil {
		return nil, unavailable(url, err)
	}
	if resp.IsError() {
		return nil, unavailable(url, fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}
	return trimSecret(url, resp.Body())
}
