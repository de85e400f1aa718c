package models

import (
	"time"

	"github.com/isometry/bridge-sync/internal/syncer"
)

// Bus carries one invocation through the processor pipeline.
type Bus struct {
	// InvocationID correlates the logs, report and response of one invocation.
	InvocationID string
	// Trigger is the inbound request. It is empty in action mode.
	Trigger Request
	// Body is the decoded trigger body.
	Body []byte

	Variant string
	Request syncer.Request

	Result   syncer.Result
	Error    error
	Outcome  syncer.Outcome
	Duration time.Duration

	// Attempted is set once the synchronisation ran, successfully or not.
	Attempted bool
	// ReportKey is the object key of the uploaded report, if any.
	ReportKey string

	Response Response
}
