package github

import (
	"log/slog"
	"net/http"
)

// WithToken sets the token used to authenticate the GitHub API calls.
func WithToken(token string) GHOption {
	return func(g *Controller) {
		g.token = token
	}
}

// WithLogger sets a custom logger for the Controller instance to use for logging operations.
func WithLogger(logger *slog.Logger) GHOption {
	return func(g *Controller) {
		g.logger = logger
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test API.
func WithBaseURL(baseURL string) GHOption {
	return func(g *Controller) {
		g.baseURL = baseURL
	}
}

// WithTransport replaces the transport underneath authentication and rate limiting.
func WithTransport(rt http.RoundTripper) GHOption {
	return func(g *Controller) {
		g.transport = rt
	}
}
