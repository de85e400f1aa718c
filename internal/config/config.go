package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/isometry/bridge-sync/internal/syncer"
)

// Runtime modes.
const (
	ModeAction  = "action"
	ModeService = "service"
	ModeLambda  = "lambda"
)

// Credential providers.
const (
	CredentialsInput          = "input"
	CredentialsSSM            = "ssm"
	CredentialsSecretsManager = "secretsmanager"
)

// Lambda payload types.
const (
	PayloadAPIGatewayV1 = "api-gateway-v1"
	PayloadAPIGatewayV2 = "api-gateway-v2"
	PayloadLambdaURL    = "lambda-url"
	PayloadEventBridge  = "eventbridge"
)

var (
	modes            = []string{ModeAction, ModeService, ModeLambda}
	credentialModes  = []string{CredentialsInput, CredentialsSSM, CredentialsSecretsManager}
	lambdaPayloads   = []string{PayloadAPIGatewayV1, PayloadAPIGatewayV2, PayloadLambdaURL, PayloadEventBridge}
	discoveryOptions = []string{"", string(syncer.DiscoveryNone), string(syncer.DiscoveryQuery), string(syncer.DiscoveryPath)}
)

// Validate checks the enumerated settings and the settings each enabled feature depends on.
func Validate() error {
	var errs []error
	if !slices.Contains(modes, Global.Mode) {
		errs = append(errs, fmt.Errorf("invalid mode: %q (supported: %s)", Global.Mode, strings.Join(modes, ", ")))
	}
	switch Credentials.Mode {
	case CredentialsSSM:
		if Credentials.SSMKey == "" {
			errs = append(errs, errors.New("credentials mode 'ssm' requires an SSM key"))
		}
	case CredentialsSecretsManager:
		if Credentials.SecretID == "" {
			errs = append(errs, errors.New("credentials mode 'secretsmanager' requires a secret id"))
		}
	case CredentialsInput:
	default:
		errs = append(errs, fmt.Errorf("invalid credentials mode: %q (supported: %s)", Credentials.Mode, strings.Join(credentialModes, ", ")))
	}
	if !slices.Contains(lambdaPayloads, Lambda.PayloadType) {
		errs = append(errs, fmt.Errorf("invalid lambda payload type: %q (supported: %s)", Lambda.PayloadType, strings.Join(lambdaPayloads, ", ")))
	}
	if !slices.Contains(discoveryOptions, Sync.Overrides.Discovery) {
		errs = append(errs, fmt.Errorf("invalid discovery override: %q", Sync.Overrides.Discovery))
	}
	if Report.S3.Enabled && Report.S3.BucketName == "" {
		errs = append(errs, errors.New("report upload requires a bucket name"))
	}
	if Feedback.CommitStatus.Enabled && (Feedback.Token == "" || Feedback.Repository == "" || Feedback.SHA == "") {
		errs = append(errs, errors.New("commit-status feedback requires a GitHub token, repository and sha"))
	}
	if _, err := SyncEndpoint(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SyncEndpoint resolves the configured variant and applies the configured overrides.
func SyncEndpoint() (syncer.Endpoint, error) {
	e, err := syncer.EndpointFor(syncer.Variant(Sync.Variant))
	if err != nil {
		return syncer.Endpoint{}, err
	}
	o := Sync.Overrides
	e = e.Override(syncer.Endpoint{
		SyncPath:        o.SyncPath,
		URLField:        o.URLField,
		Source:          o.Source,
		Discovery:       syncer.DiscoveryMode(o.Discovery),
		SignatureHeader: o.SignatureHeader,
	})
	return e, e.Validate()
}
