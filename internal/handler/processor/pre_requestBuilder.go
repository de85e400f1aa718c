package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/isometry/bridge-sync/internal/models"
	"github.com/isometry/bridge-sync/internal/syncer"
)

// CredentialProvider resolves the API key used for a synchronisation.
type CredentialProvider interface {
	APIKey(ctx context.Context) (string, error)
}

type requestBuilderProcessor struct {
	logger      *slog.Logger
	metrics     metrics.Sink
	defaults    syncer.Request
	variant     string
	urlField    string
	override    bool
	credentials CredentialProvider
}

// NewRequestBuilderProcessor assembles the synchronisation request from the configured defaults, an optional
// target URL override in the trigger body and the API key returned by credentials. Overrides are refused
// unless allowOverride is set or the trigger is trusted.
func NewRequestBuilderProcessor(defaults syncer.Request, variant string, endpoint syncer.Endpoint, credentials CredentialProvider, allowOverride bool, sink metrics.Sink, opts ...Option) Processor {
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	_inst := &requestBuilderProcessor{
		logger:      helpers.NewNoopLogger(),
		metrics:     sink,
		defaults:    defaults,
		variant:     variant,
		urlField:    endpoint.URLField,
		override:    allowOverride,
		credentials: credentials,
	}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *requestBuilderProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:request-builder")
}

func (p *requestBuilderProcessor) Process(ctx context.Context, bus *models.Bus) error {
	req := p.defaults
	bus.Variant = p.variant

	if body := bytes.TrimSpace(bus.Body); len(body) > 0 {
		target, err := p.targetOverride(body)
		if err != nil {
			p.logger.Warn("invalid trigger body", slog.Any("error", err))
			p.metrics.TriggerRejected("body")
			return Reject(bus, &RejectionError{StatusCode: http.StatusBadRequest, Reason: "body", Message: err.Error()})
		}
		if target != "" && !p.override && !bus.Trigger.Trusted {
			p.logger.Warn("target URL override refused", slog.String("targetUrl", target))
			p.metrics.TriggerRejected("override")
			return Reject(bus, &RejectionError{StatusCode: http.StatusForbidden, Reason: "override", Message: "target URL override is not allowed"})
		}
		if target != "" {
			p.logger.Debug("target URL overridden by trigger", slog.String("targetUrl", target))
			req.TargetURL = target
		}
	}

	if p.credentials != nil {
		key, err := p.credentials.APIKey(ctx)
		if err != nil {
			p.logger.Error("failed to resolve API key", slog.Any("error", err))
			p.metrics.TriggerRejected("credentials")
			return Reject(bus, &RejectionError{StatusCode: http.StatusInternalServerError, Reason: "credentials", Message: "failed to resolve API key: " + err.Error()})
		}
		if key != "" {
			req.APIKey = key
		}
	}

	bus.Request = req
	p.logger.Debug("request assembled", slog.Any("request", req))
	return nil
}

// targetOverride reads the target URL from the variant's URL field or from targetUrl.
func (p *requestBuilderProcessor) targetOverride(body []byte) (string, error) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("trigger body is not a JSON object: %w", err)
	}
	for _, key := range []string{p.urlField, "targetUrl"} {
		v, ok := fields[key]
		if !ok || key == "" {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("trigger field %s must be a string", key)
		}
		return s, nil
	}
	return "", nil
}
