package syncer

import (
	"log/slog"
	"net/http"
	"time"
)

// LevelTrace is below slog.LevelDebug and only enabled with -vvv.
const LevelTrace = slog.Level(-8)

type loggingRoundTripper struct {
	next   http.RoundTripper
	logger *slog.Logger
}

// NewLoggingTransport wraps next so that every request and response is logged at trace level.
// Credentials are never logged.
func NewLoggingTransport(next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingRoundTripper{next: next, logger: logger}
}

// RoundTrip logs the request and response.
func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	l.logger.Log(req.Context(), LevelTrace, "sending request",
		slog.String("method", req.Method), slog.String("url", req.URL.Redacted()))
	resp, err := l.next.RoundTrip(req)
	if err != nil {
		l.logger.Log(req.Context(), LevelTrace, "request failed",
			slog.Any("error", err), slog.Duration("duration", time.Since(start)))
		return resp, err
	}
	l.logger.Log(req.Context(), LevelTrace, "received response",
		slog.String("status", resp.Status), slog.Duration("duration", time.Since(start)))
	return resp, nil
}
