package metrics

import (
	"log/slog"
	"time"

	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bridgesync"

// PrometheusSink implements Sink using the Prometheus client library.
// Registration errors are logged and never propagated.
type PrometheusSink struct {
	logger *slog.Logger

	syncsTotal         *prometheus.CounterVec
	syncDuration       *prometheus.HistogramVec
	upstreamErrors     *prometheus.CounterVec
	triggerRejections  *prometheus.CounterVec
	reportUploadsTotal *prometheus.CounterVec
	feedbackTotal      *prometheus.CounterVec
}

// NewPrometheusSink creates a sink registered on reg. A nil logger discards registration warnings.
func NewPrometheusSink(reg prometheus.Registerer, logger *slog.Logger) *PrometheusSink {
	if logger == nil {
		logger = helpers.NewNoopLogger()
	}
	s := &PrometheusSink{logger: logger.With("component", "metrics")}

	s.syncsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "syncs_total",
		Help:      "Total number of synchronisations by variant, outcome and error kind.",
	}, []string{"variant", "outcome", "kind"})
	s.syncDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of a synchronisation including discovery, in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"variant"})
	s.upstreamErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_errors_total",
		Help:      "Total number of failed upstream calls by call and status class.",
	}, []string{"call", "status_class"})
	s.triggerRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trigger_rejections_total",
		Help:      "Total number of trigger requests rejected before synchronisation.",
	}, []string{"reason"})
	s.reportUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_uploads_total",
		Help:      "Total number of sync report uploads by result.",
	}, []string{"result"})
	s.feedbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feedback_total",
		Help:      "Total number of commit-status feedback attempts by result.",
	}, []string{"result"})

	s.register(reg, s.syncsTotal, "syncs_total")
	s.register(reg, s.syncDuration, "sync_duration_seconds")
	s.register(reg, s.upstreamErrors, "upstream_errors_total")
	s.register(reg, s.triggerRejections, "trigger_rejections_total")
	s.register(reg, s.reportUploadsTotal, "report_uploads_total")
	s.register(reg, s.feedbackTotal, "feedback_total")
	return s
}

func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		s.logger.Warn("failed to register metric", slog.String("name", name), slog.Any("error", err))
	}
}

func (s *PrometheusSink) SyncCompleted(variant, outcome, kind string, duration time.Duration) {
	if kind == "" {
		kind = "none"
	}
	s.syncsTotal.WithLabelValues(variant, outcome, kind).Inc()
	s.syncDuration.WithLabelValues(variant).Observe(duration.Seconds())
}

func (s *PrometheusSink) UpstreamError(call, statusClass string) {
	s.upstreamErrors.WithLabelValues(call, statusClass).Inc()
}

func (s *PrometheusSink) TriggerRejected(reason string) {
	s.triggerRejections.WithLabelValues(reason).Inc()
}

func (s *PrometheusSink) ReportUploaded(err error) {
	s.reportUploadsTotal.WithLabelValues(result(err)).Inc()
}

func (s *PrometheusSink) FeedbackSent(err error) {
	s.feedbackTotal.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
