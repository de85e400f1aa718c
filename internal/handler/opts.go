package handler

import (
	"log/slog"
	"time"

	"github.com/isometry/bridge-sync/internal/handler/processor"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/isometry/bridge-sync/internal/syncer"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics sets the metrics sink shared by the processors.
func WithMetrics(sink metrics.Sink) Option {
	return func(h *Handler) {
		h.metrics = sink
	}
}

// WithSyncer sets the synchronisation client and the variant name it was built for.
func WithSyncer(client *syncer.Client, variant string) Option {
	return func(h *Handler) {
		h.client = client
		h.variant = variant
	}
}

// WithDefaults sets the request used when the trigger does not override it. The API key comes from the
// credential provider when one is set.
func WithDefaults(req syncer.Request) Option {
	return func(h *Handler) {
		h.defaults = req
	}
}

// WithCredentials sets the API key provider.
func WithCredentials(provider processor.CredentialProvider) Option {
	return func(h *Handler) {
		h.credentials = provider
	}
}

// WithInboundSecret enables signature verification of trigger requests.
func WithInboundSecret(secret string, tolerance time.Duration) Option {
	return func(h *Handler) {
		h.inboundSecret = secret
		h.signatureTolerance = tolerance
	}
}

// WithTargetOverride lets unsigned triggers override the target URL. Signed and trusted triggers always can.
func WithTargetOverride(allow bool) Option {
	return func(h *Handler) {
		h.allowOverride = allow
	}
}

// WithReport enables archiving a report of every synchronisation.
func WithReport(uploader processor.ReportUploader, bucket, prefix string) Option {
	return func(h *Handler) {
		h.reportUploader = uploader
		h.reportBucket = bucket
		h.reportPrefix = prefix
	}
}

// WithCommitStatus enables commit-status feedback.
func WithCommitStatus(sender processor.StatusSender, target processor.CommitStatusTarget) Option {
	return func(h *Handler) {
		h.statusSender = sender
		h.statusTarget = target
	}
}

// WithRateLimits enables periodic logging of the GitHub rate limits.
func WithRateLimits(fetcher processor.RateLimitFetcher) Option {
	return func(h *Handler) {
		h.rateLimits = fetcher
	}
}

// WithIDGenerator replaces the invocation id generator.
func WithIDGenerator(newID func() string) Option {
	return func(h *Handler) {
		h.newID = newID
	}
}

// WithClock replaces the time source used for signature verification.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}
