package syncer

import (
	"log/slog"
	"net/http"
	"time"
)

// Option is a functional option used to configure a Client.
type Option func(*Client)

// WithLogger sets the logger used for the client and its default transport.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client used for outbound calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithEndpoint sets the endpoint template.
func WithEndpoint(endpoint Endpoint) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithTimeout bounds each outbound call. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithClock sets the time source used for signature timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}
