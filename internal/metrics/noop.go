package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) SyncCompleted(variant, outcome, kind string, duration time.Duration) {}
func (n *NoopSink) UpstreamError(call, statusClass string)                              {}
func (n *NoopSink) TriggerRejected(reason string)                                       {}
func (n *NoopSink) ReportUploaded(err error)                                            {}
func (n *NoopSink) FeedbackSent(err error)                                              {}
