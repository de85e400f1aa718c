// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"go.yaml.in/yaml/v3"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// Sync is a struct that contains the configuration of the synchronisation calls.
	Sync synchronisation
	// Credentials is a struct that contains the configuration of the API key provider.
	Credentials credentials
	// Report is a struct that contains the configuration of the sync report archive.
	Report report
	// Feedback is a struct that contains the configuration of the GitHub feedback.
	Feedback feedback
	// Metrics is a struct that contains the configuration of the metrics endpoint.
	Metrics metrics
	// Service is a struct that contains the configuration for the service mode.
	Service service
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda lambda
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"action"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
}

type synchronisation struct {
	// Variant selects the endpoint layout. Supported values are 'bridge', 'echo' and 'chimera'.
	Variant string `yaml:"variant,omitempty" default:"bridge"`
	// TargetURL is the user-hosted endpoint to synchronise.
	TargetURL string `yaml:"targetUrl,omitempty"`
	// BackendURL is the API the workflows are reported to.
	BackendURL string `yaml:"backendUrl,omitempty" default:"https://api.novu.co"`
	// Timeout bounds every outbound call.
	Timeout time.Duration `yaml:"timeout,omitempty" default:"30s"`
	// Overrides replace individual elements of the variant's endpoint template.
	Overrides struct {
		SyncPath        string `yaml:"syncPath,omitempty"`
		URLField        string `yaml:"urlField,omitempty"`
		Source          string `yaml:"source,omitempty"`
		Discovery       string `yaml:"discovery,omitempty"`
		SignatureHeader string `yaml:"signatureHeader,omitempty"`
	} `yaml:"overrides,omitempty"`
}

type credentials struct {
	// Mode selects where the API key comes from.
	Mode string `yaml:"mode,omitempty" default:"input"`
	// APIKey is used as-is in 'input' mode.
	APIKey string `yaml:"apiKey,omitempty"`
	// SSMKey is the SSM parameter holding the API key in 'ssm' mode.
	SSMKey string `yaml:"ssmKey,omitempty"`
	// SecretID is the Secrets Manager secret holding the API key in 'secretsmanager' mode.
	SecretID string `yaml:"secretId,omitempty"`
	// SecretField selects a field of a JSON secret. Empty uses the whole secret string.
	SecretField string `yaml:"secretField,omitempty"`
}

type report struct {
	S3 struct {
		Enabled    bool   `yaml:"enabled,omitempty"`
		BucketName string `yaml:"bucketName,omitempty"`
		Prefix     string `yaml:"prefix,omitempty" default:"bridge-sync"`
	} `yaml:"s3,omitempty"`
}

type feedback struct {
	// Token authenticates the GitHub API calls.
	Token string `yaml:"token,omitempty"`
	// Repository is the owner/name slug the feedback is sent to.
	Repository string `yaml:"repository,omitempty"`
	// SHA is the commit the feedback is attached to.
	SHA string `yaml:"sha,omitempty"`
	// APIURL is the GitHub API base URL. Empty uses api.github.com.
	APIURL       string `yaml:"apiUrl,omitempty"`
	CommitStatus struct {
		Enabled bool `yaml:"enabled,omitempty"`
		// Context supports the {variant} placeholder.
		Context   string `yaml:"context,omitempty" default:"bridge-sync/{variant}"`
		TargetURL string `yaml:"targetUrl,omitempty"`
	} `yaml:"commitStatus,omitempty"`
	// FetchRateLimits logs the GitHub rate limits at most once a minute.
	FetchRateLimits bool `yaml:"fetchRateLimits,omitempty"`
}

type metrics struct {
	Enabled bool   `yaml:"enabled,omitempty" default:"true"`
	Path    string `yaml:"path,omitempty" default:"/metrics"`
}

type service struct {
	Path    string        `yaml:"path,omitempty" default:"/"`
	Addr    string        `yaml:"addr,omitempty"`
	Port    string        `yaml:"port,omitempty" default:"8080"`
	// Timeout bounds reads and idle connections. Writes get at least twice the sync timeout plus a margin.
	Timeout time.Duration `yaml:"timeout,omitempty" default:"60s"`
	// Secret enables verification of the trigger request signature.
	Secret string `yaml:"secret,omitempty"`
	// SignatureTolerance is the accepted clock skew of signed trigger requests.
	SignatureTolerance time.Duration `yaml:"signatureTolerance,omitempty" default:"5m"`
	// AllowTargetOverride lets unsigned triggers replace the target URL.
	AllowTargetOverride bool `yaml:"allowTargetOverride,omitempty"`
}

type lambda struct {
	PayloadType string `yaml:"payloadType,omitempty" default:"api-gateway-v2"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&Sync),
		defaults.Set(&Credentials),
		defaults.Set(&Report),
		defaults.Set(&Feedback),
		defaults.Set(&Metrics),
		defaults.Set(&Service),
		defaults.Set(&Lambda),
	)
}

// LoadFromFile loads the configuration from a file.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global      global          `yaml:"global,omitempty"`
		Sync        synchronisation `yaml:"sync,omitempty"`
		Credentials credentials     `yaml:"credentials,omitempty"`
		Report      report          `yaml:"report,omitempty"`
		Feedback    feedback        `yaml:"feedback,omitempty"`
		Metrics     metrics         `yaml:"metrics,omitempty"`
		Service     service         `yaml:"service,omitempty"`
		Lambda      lambda          `yaml:"lambda,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	Sync = a.Sync
	Credentials = a.Credentials
	Report = a.Report
	Feedback = a.Feedback
	Metrics = a.Metrics
	Service = a.Service
	Lambda = a.Lambda

	return nil
}
