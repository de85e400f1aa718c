package processor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/isometry/bridge-sync/internal/models"
	"github.com/isometry/bridge-sync/internal/syncer"
)

// Synchronizer performs one synchronisation.
type Synchronizer interface {
	Synchronize(ctx context.Context, req syncer.Request) (syncer.Result, error)
}

type syncProcessor struct {
	logger  *slog.Logger
	metrics metrics.Sink
	client  Synchronizer
	now     func() time.Time
}

// NewSyncProcessor runs the synchronisation and records its outcome on the bus. A failed synchronisation is
// recorded, not returned, so that the post-processors still run.
func NewSyncProcessor(client Synchronizer, sink metrics.Sink, opts ...Option) Processor {
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	_inst := &syncProcessor{logger: helpers.NewNoopLogger(), metrics: sink, client: client, now: time.Now}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *syncProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:sync")
}

func (p *syncProcessor) Process(ctx context.Context, bus *models.Bus) error {
	p.logger.Info("synchronising...", slog.String("variant", bus.Variant), slog.Any("request", bus.Request))
	start := p.now()
	result, err := p.client.Synchronize(ctx, bus.Request)
	bus.Duration = p.now().Sub(start)
	bus.Attempted = true
	bus.Result = result
	bus.Error = err
	bus.Outcome = syncer.Report(result, err)

	if err != nil {
		p.logger.Warn("synchronisation failed", slog.Any("error", err), slog.Duration("duration", bus.Duration))
		p.metrics.SyncCompleted(bus.Variant, metrics.OutcomeFailure, string(syncer.KindOf(err)), bus.Duration)
		if call, class, ok := metrics.ClassifyError(err); ok {
			p.metrics.UpstreamError(call, class)
		}
	} else {
		p.logger.Info("synchronisation complete", slog.Duration("duration", bus.Duration))
		p.metrics.SyncCompleted(bus.Variant, metrics.OutcomeSuccess, "", bus.Duration)
	}
	respond(bus, StatusCode(err))
	return nil
}

// StatusCode maps a synchronisation error to the HTTP status reported to the trigger.
func StatusCode(err error) int {
	var rejection *RejectionError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &rejection):
		return rejection.StatusCode
	case syncer.IsKind(err, syncer.KindConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case syncer.IsKind(err, syncer.KindDiscovery), syncer.IsKind(err, syncer.KindSync):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
