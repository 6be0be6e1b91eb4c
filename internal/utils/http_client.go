package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient wraps a resty client preconfigured for the operator API.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns a client rooted at baseURL. A non-empty token is
// sent as a bearer token on every request.
func NewHTTPClient(baseURL string, timeout time.Duration, token string) *HTTPClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &HTTPClient{Client: c}
}
