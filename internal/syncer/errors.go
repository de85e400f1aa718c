package syncer

import (
	"errors"
	"fmt"
)

// Kind classifies a synchronisation failure.
type Kind string

const (
	// KindConfiguration is a missing or malformed input, detected before any I/O.
	KindConfiguration Kind = "ConfigurationError"
	// KindDiscovery is a failed or non-2xx discovery call.
	KindDiscovery Kind = "DiscoveryError"
	// KindSync is a failed or non-2xx sync call.
	KindSync Kind = "SyncError"
	// KindTransport is a network-level failure: timeout, DNS, TLS, connection reset.
	KindTransport Kind = "TransportError"
)

// Sentinels for errors.Is matching on the error kind.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrDiscovery     = &Error{Kind: KindDiscovery}
	ErrSync          = &Error{Kind: KindSync}
	ErrTransport     = &Error{Kind: KindTransport}
)

// Error is a failed synchronisation. StatusCode and Message carry the upstream HTTP status
// and message when the failure came from a response.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	switch {
	case msg == "" && e.Cause != nil:
		msg = e.Cause.Error()
	case e.Cause != nil:
		msg += ": " + e.Cause.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the outermost Kind found in err's chain, or an empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether any error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

func newConfigurationError(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func newTransportError(cause error) error {
	return &Error{Kind: KindTransport, Cause: cause}
}
