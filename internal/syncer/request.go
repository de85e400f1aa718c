package syncer

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
)

// Request is the input of a single synchronisation. All fields are required.
type Request struct {
	// TargetURL is the user-hosted endpoint whose workflows are synchronised.
	TargetURL string
	// APIKey authenticates the sync call and keys the discovery signature.
	APIKey string
	// BackendURL is the service the workflows are reported to.
	BackendURL string
}

// Validate returns a KindConfiguration error naming every missing or malformed field.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.TargetURL) == "" {
		missing = append(missing, "targetUrl")
	}
	if strings.TrimSpace(r.APIKey) == "" {
		missing = append(missing, "apiKey")
	}
	if strings.TrimSpace(r.BackendURL) == "" {
		missing = append(missing, "backendUrl")
	}
	if len(missing) > 0 {
		return newConfigurationError("missing required configuration: %s", strings.Join(missing, ", "))
	}

	for _, field := range [][2]string{{"targetUrl", r.TargetURL}, {"backendUrl", r.BackendURL}} {
		u, err := url.Parse(field[1])
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return newConfigurationError("invalid %s: %q is not an absolute http(s) URL", field[0], field[1])
		}
	}
	return nil
}

// LogValue keeps the API key out of logs.
func (r Request) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("targetUrl", r.TargetURL),
		slog.String("backendUrl", r.BackendURL),
		slog.Bool("apiKeySet", r.APIKey != ""),
	)
}

// Result is the backend's JSON response to the sync call, forwarded without interpretation.
type Result = json.RawMessage

type discoveryResponse struct {
	Workflows []json.RawMessage `json:"workflows"`
}
