// Package metrics records synchronisation outcomes.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/isometry/bridge-sync/internal/syncer"
)

// Sink records metrics. Implementations must not block or propagate errors.
type Sink interface {
	// SyncCompleted records one synchronisation. kind is empty on success.
	SyncCompleted(variant, outcome, kind string, duration time.Duration)
	// UpstreamError records a failed discovery or sync call.
	UpstreamError(call, statusClass string)
	// TriggerRejected records a trigger request refused before synchronisation.
	TriggerRejected(reason string)
	// ReportUploaded records a sync report upload attempt.
	ReportUploaded(err error)
	// FeedbackSent records a commit-status feedback attempt.
	FeedbackSent(err error)
}

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Upstream call labels.
const (
	CallDiscovery = "discovery"
	CallSync      = "sync"
)

// StatusClass labels.
const (
	StatusClass4xx             = "4xx"
	StatusClass5xx             = "5xx"
	StatusClassTimeout         = "timeout"
	StatusClassConnectionError = "connection_error"
	StatusClassInvalidBody     = "invalid_body"
	StatusClassOtherError      = "other_error"
)

// ClassifyError maps a failed synchronisation to the upstream call it failed on and a status class.
// ok is false for errors that never reached the network.
func ClassifyError(err error) (call, statusClass string, ok bool) {
	var e *syncer.Error
	if !errors.As(err, &e) {
		return "", "", false
	}
	switch e.Kind {
	case syncer.KindDiscovery:
		call = CallDiscovery
	case syncer.KindSync:
		call = CallSync
	default:
		return "", "", false
	}

	switch {
	case e.StatusCode >= 400 && e.StatusCode < 500:
		statusClass = StatusClass4xx
	case e.StatusCode >= 500:
		statusClass = StatusClass5xx
	case errors.Is(err, context.DeadlineExceeded):
		statusClass = StatusClassTimeout
	case syncer.IsKind(err, syncer.KindTransport):
		statusClass = StatusClassConnectionError
	case e.StatusCode >= 200 && e.StatusCode < 300:
		statusClass = StatusClassInvalidBody
	default:
		statusClass = StatusClassOtherError
	}
	return call, statusClass, true
}
