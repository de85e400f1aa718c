package processor

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/isometry/bridge-sync/internal/models"
	"github.com/isometry/bridge-sync/internal/signature"
)

type authValidatorProcessor struct {
	logger    *slog.Logger
	metrics   metrics.Sink
	secret    string
	header    string
	tolerance time.Duration
	now       func() time.Time
}

// NewAuthValidatorProcessor verifies the signature header of the trigger request against its body.
// An empty secret disables verification.
func NewAuthValidatorProcessor(secret, header string, tolerance time.Duration, sink metrics.Sink, now func() time.Time, opts ...Option) Processor {
	if header == "" {
		header = signature.HeaderName
	}
	if now == nil {
		now = time.Now
	}
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	_inst := &authValidatorProcessor{
		logger:    helpers.NewNoopLogger(),
		metrics:   sink,
		secret:    secret,
		header:    strings.ToLower(header),
		tolerance: tolerance,
		now:       now,
	}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *authValidatorProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:auth-validator")
}

func (p *authValidatorProcessor) Process(_ context.Context, bus *models.Bus) error {
	if p.secret == "" {
		p.logger.Debug("signature verification disabled")
		return nil
	}
	if bus.Trigger.Trusted {
		p.logger.Debug("trusted trigger. skipping signature verification...")
		return nil
	}

	value, found := bus.Trigger.Headers[p.header]
	if !found {
		p.logger.Warn("missing signature header", slog.String("header", p.header))
		p.metrics.TriggerRejected("signature")
		return Reject(bus, &RejectionError{StatusCode: http.StatusUnauthorized, Reason: "signature", Message: "missing signature header " + p.header})
	}
	if err := signature.Verify(p.secret, value, bus.Body, p.tolerance, p.now()); err != nil {
		p.logger.Warn("invalid signature", slog.Any("error", err))
		p.metrics.TriggerRejected("signature")
		return Reject(bus, &RejectionError{StatusCode: http.StatusUnauthorized, Reason: "signature", Message: err.Error()})
	}
	p.logger.Debug("signature is valid")
	return nil
}
