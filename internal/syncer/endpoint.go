package syncer

import (
	"net/url"
	"slices"
	"strings"

	"github.com/isometry/bridge-sync/internal/signature"
	"github.com/pkg/errors"
)

// DiscoveryMode selects whether and how the target endpoint is asked for its workflows.
type DiscoveryMode string

const (
	// DiscoveryNone skips discovery; only the sync call is made.
	DiscoveryNone DiscoveryMode = "none"
	// DiscoveryQuery appends ?action=discover to the target URL.
	DiscoveryQuery DiscoveryMode = "query"
	// DiscoveryPath appends /discover to the target URL path.
	DiscoveryPath DiscoveryMode = "path"
)

// Variant names a known endpoint layout.
type Variant string

const (
	// VariantBridge posts the bridge URL to /v1/bridge/sync without discovery.
	VariantBridge Variant = "bridge"
	// VariantEcho discovers with ?action=discover and posts to /v1/echo/sync.
	VariantEcho Variant = "echo"
	// VariantChimera discovers with /discover and posts to /v1/chimera/workflows.
	VariantChimera Variant = "chimera"
)

// DefaultSource identifies the calling context in the sync query string.
const DefaultSource = "githubAction"

// Endpoint is the template for the discovery and sync calls.
type Endpoint struct {
	// SyncPath is joined onto the backend URL.
	SyncPath string `json:"syncPath" yaml:"syncPath"`
	// URLField is the sync body field carrying the target URL.
	URLField string `json:"urlField" yaml:"urlField"`
	// Source is sent as the source query parameter; empty omits it.
	Source string `json:"source" yaml:"source"`
	// Discovery selects the discovery call form.
	Discovery DiscoveryMode `json:"discovery" yaml:"discovery"`
	// SignatureHeader is the header carrying the discovery signature.
	SignatureHeader string `json:"signatureHeader" yaml:"signatureHeader"`
}

var variants = map[Variant]Endpoint{
	VariantBridge: {
		SyncPath:        "/v1/bridge/sync",
		URLField:        "bridgeUrl",
		Source:          DefaultSource,
		Discovery:       DiscoveryNone,
		SignatureHeader: signature.HeaderName,
	},
	VariantEcho: {
		SyncPath:        "/v1/echo/sync",
		URLField:        "echoUrl",
		Source:          DefaultSource,
		Discovery:       DiscoveryQuery,
		SignatureHeader: signature.HeaderName,
	},
	VariantChimera: {
		SyncPath:        "/v1/chimera/workflows",
		URLField:        "chimeraUrl",
		Source:          DefaultSource,
		Discovery:       DiscoveryPath,
		SignatureHeader: signature.HeaderName,
	},
}

// Variants returns the names of the known endpoint layouts, sorted.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for v := range variants {
		names = append(names, string(v))
	}
	slices.Sort(names)
	return names
}

// EndpointFor returns the endpoint template of a known variant.
func EndpointFor(v Variant) (Endpoint, error) {
	e, ok := variants[Variant(strings.ToLower(strings.TrimSpace(string(v))))]
	if !ok {
		return Endpoint{}, errors.Errorf("unknown variant %q (supported: %s)", v, strings.Join(Variants(), ", "))
	}
	return e, nil
}

// Override returns a copy of e with every non-zero field of o applied.
func (e Endpoint) Override(o Endpoint) Endpoint {
	if o.SyncPath != "" {
		e.SyncPath = o.SyncPath
	}
	if o.URLField != "" {
		e.URLField = o.URLField
	}
	if o.Source != "" {
		e.Source = o.Source
	}
	if o.Discovery != "" {
		e.Discovery = o.Discovery
	}
	if o.SignatureHeader != "" {
		e.SignatureHeader = o.SignatureHeader
	}
	return e
}

// Validate checks that the template can produce requests.
func (e Endpoint) Validate() error {
	if e.SyncPath == "" {
		return errors.New("missing sync path")
	}
	if e.URLField == "" {
		return errors.New("missing sync URL field")
	}
	switch e.Discovery {
	case "", DiscoveryNone:
	case DiscoveryQuery, DiscoveryPath:
		if e.SignatureHeader == "" {
			return errors.New("missing signature header")
		}
	default:
		return errors.Errorf("unsupported discovery mode: %s", e.Discovery)
	}
	return nil
}

// Discovers reports whether the endpoint performs a discovery call.
func (e Endpoint) Discovers() bool {
	return e.Discovery == DiscoveryQuery || e.Discovery == DiscoveryPath
}

// DiscoveryURL builds the discovery URL for target.
func (e Endpoint) DiscoveryURL(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", errors.Wrap(err, "invalid target URL")
	}
	switch e.Discovery {
	case DiscoveryQuery:
		q := u.Query()
		q.Set("action", "discover")
		u.RawQuery = q.Encode()
	case DiscoveryPath:
		u = u.JoinPath("discover")
	default:
		return "", errors.Errorf("discovery disabled for mode %q", e.Discovery)
	}
	return u.String(), nil
}

// SyncURL builds the sync URL for backend.
func (e Endpoint) SyncURL(backend string) (string, error) {
	u, err := url.Parse(backend)
	if err != nil {
		return "", errors.Wrap(err, "invalid backend URL")
	}
	u = u.JoinPath(e.SyncPath)
	if e.Source != "" {
		q := u.Query()
		q.Set("source", e.Source)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
