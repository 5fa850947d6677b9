// internal/common/httpx/client.go
package httpx

import (
	"context"
	"net/http"
	"time"
)

// Client is the shared HTTP client for source adapters. Every request runs
// under the caller's context on top of the per-source timeout.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req.WithContext(ctx))
}
