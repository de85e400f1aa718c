package cmd

import (
	"time"

	"github.com/isometry/bridge-sync/internal/config"
	"github.com/isometry/bridge-sync/internal/helpers"
)

var svcEnvMapString = map[*string]boundEnvVar[string]{
	&config.Service.Addr: {
		Name:        "service-host-addr",
		Description: "The address to serve the service on (default all interfaces in dual-stack serviceMode)",
		Short:       helpers.NonZero("H"),
	},
	&config.Service.Port: {
		Name:        "service-host-port",
		Description: "The port to serve the service on",
		Short:       helpers.NonZero("p"),
	},
	&config.Service.Path: {
		Name:        "service-host-path",
		Description: "The path to serve synchronisation triggers on",
		Short:       helpers.NonZero("P"),
	},
	&config.Service.Secret: {
		Name:        "service-trigger-secret",
		Description: "The secret to use when validating trigger signatures. If not specified, no validation is performed",
		Env:         helpers.NonZero("BRIDGE_SYNC_TRIGGER_SECRET"),
		Hidden:      true,
	},
	&config.Metrics.Path: {
		Name:        "service-metrics-path",
		Description: "The path to serve Prometheus metrics on",
	},
}

var svcEnvMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Service.Timeout: {
		Name:        "service-io-timeout",
		Description: "The timeout for I/O operations",
	},
	&config.Service.SignatureTolerance: {
		Name:        "service-signature-tolerance",
		Description: "The accepted clock skew of signed trigger requests",
	},
}
