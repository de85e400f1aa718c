// Package handler runs one synchronisation per trigger through a pipeline of processors.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/isometry/bridge-sync/internal/handler/processor"
	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/isometry/bridge-sync/internal/models"
	"github.com/isometry/bridge-sync/internal/syncer"
)

// Option is a functional option for the Handler.
type Option func(*Handler)

// Handler turns a trigger into a synchronisation and runs the optional report and feedback steps around it.
type Handler struct {
	logger  *slog.Logger
	metrics metrics.Sink
	newID   func() string
	now     func() time.Time

	client      *syncer.Client
	variant     string
	defaults    syncer.Request
	credentials processor.CredentialProvider

	inboundSecret      string
	signatureTolerance time.Duration
	allowOverride      bool

	reportUploader processor.ReportUploader
	reportBucket   string
	reportPrefix   string

	statusSender processor.StatusSender
	statusTarget processor.CommitStatusTarget
	rateLimits   processor.RateLimitFetcher

	preProcessors  []processor.Processor
	syncProcessor  processor.Processor
	postProcessors []processor.Processor
}

// NewHandler builds the processor pipeline from the options. A synchronisation client is required.
func NewHandler(opts ...Option) (*Handler, error) {
	_inst := &Handler{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.client == nil {
		return nil, &NoSynchronizerError{}
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.metrics == nil {
		_inst.metrics = metrics.NewNoopSink()
	}
	if _inst.newID == nil {
		_inst.newID = uuid.NewString
	}
	if _inst.now == nil {
		_inst.now = time.Now
	}
	if _inst.variant == "" {
		_inst.variant = string(syncer.VariantBridge)
	}
	endpoint := _inst.client.Endpoint()
	// signed triggers may always override the target
	allowOverride := _inst.allowOverride || _inst.inboundSecret != ""

	_inst.preProcessors = []processor.Processor{
		processor.NewAuthValidatorProcessor(_inst.inboundSecret, endpoint.SignatureHeader, _inst.signatureTolerance, _inst.metrics, _inst.now),
		processor.NewRequestBuilderProcessor(_inst.defaults, _inst.variant, endpoint, _inst.credentials, allowOverride, _inst.metrics),
	}
	_inst.syncProcessor = processor.NewSyncProcessor(_inst.client, _inst.metrics)
	if _inst.reportUploader != nil {
		_inst.postProcessors = append(_inst.postProcessors,
			processor.NewS3UploaderPostProcessor(_inst.reportUploader, _inst.reportBucket, _inst.reportPrefix, _inst.metrics))
	}
	if _inst.statusSender != nil {
		_inst.postProcessors = append(_inst.postProcessors,
			processor.NewCommitStatusFeedbackProcessor(_inst.statusSender, _inst.statusTarget, _inst.metrics))
	}
	if _inst.rateLimits != nil {
		_inst.postProcessors = append(_inst.postProcessors,
			processor.NewRateLimitsPostProcessor(_inst.rateLimits, time.Minute))
	}
	return _inst, nil
}

// Process runs one invocation. The returned bus always carries an outcome and a response; the error is the
// synchronisation or rejection error, if any.
func (h *Handler) Process(ctx context.Context, trigger models.Request) (*models.Bus, error) {
	bus := &models.Bus{
		InvocationID: h.newID(),
		Trigger:      trigger,
	}
	logger := h.logger.With(slog.String("invocation", bus.InvocationID))
	logger.Info("processing trigger...")

	body, err := trigger.RawBody()
	if err != nil {
		logger.Warn("failed to decode trigger body", slog.Any("error", err))
		h.metrics.TriggerRejected("body")
		return bus, processor.Reject(bus, &processor.RejectionError{StatusCode: http.StatusBadRequest, Reason: "body", Message: err.Error()})
	}
	bus.Body = body

	if err = processor.Process(ctx, logger, bus, h.preProcessors...); err != nil {
		logger.Warn("trigger rejected", slog.Any("error", err))
		return bus, err
	}
	if err = processor.Process(ctx, logger, bus, h.syncProcessor); err != nil {
		return bus, err
	}
	processor.ProcessAll(ctx, logger, bus, h.postProcessors...)

	logger.Info("trigger processed", slog.Bool("success", bus.Outcome.Success), slog.Int("status", bus.Response.StatusCode))
	return bus, bus.Error
}
