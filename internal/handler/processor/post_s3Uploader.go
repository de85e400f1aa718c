package processor

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/isometry/bridge-sync/internal/models"
	"github.com/isometry/bridge-sync/internal/syncer"
	"github.com/pkg/errors"
)

// ReportUploader stores a report document.
type ReportUploader interface {
	PutS3Object(ctx context.Context, bucket, prefix, id string, body []byte) (string, error)
}

// Report is the archived record of one synchronisation. The API key is never included.
type Report struct {
	InvocationID string         `json:"invocationId"`
	Variant      string         `json:"variant"`
	TargetURL    string         `json:"targetUrl"`
	BackendURL   string         `json:"backendUrl"`
	DurationMs   int64          `json:"durationMs"`
	Outcome      syncer.Outcome `json:"outcome"`
}

type s3UploaderPostProcessor struct {
	logger   *slog.Logger
	metrics  metrics.Sink
	uploader ReportUploader
	bucket   string
	prefix   string
}

// NewS3UploaderPostProcessor archives a Report of every attempted synchronisation.
func NewS3UploaderPostProcessor(uploader ReportUploader, bucket, prefix string, sink metrics.Sink, opts ...Option) Processor {
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	_inst := &s3UploaderPostProcessor{
		logger:   helpers.NewNoopLogger(),
		metrics:  sink,
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
	}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *s3UploaderPostProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:s3-uploader")
}

func (p *s3UploaderPostProcessor) Process(ctx context.Context, bus *models.Bus) error {
	if !bus.Attempted {
		p.logger.Debug("nothing to report")
		return nil
	}
	body, err := json.Marshal(Report{
		InvocationID: bus.InvocationID,
		Variant:      bus.Variant,
		TargetURL:    bus.Request.TargetURL,
		BackendURL:   bus.Request.BackendURL,
		DurationMs:   bus.Duration.Milliseconds(),
		Outcome:      bus.Outcome,
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode report")
	}

	key, err := p.uploader.PutS3Object(ctx, p.bucket, p.prefix, bus.InvocationID, body)
	p.metrics.ReportUploaded(err)
	if err != nil {
		p.logger.Warn("failed to store report in S3", slog.Any("error", err))
		return err
	}
	bus.ReportKey = key
	p.logger.Info("report stored", slog.String("bucket", p.bucket), slog.String("key", key))
	return nil
}
