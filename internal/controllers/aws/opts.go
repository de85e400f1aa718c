package aws

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// WithLogger sets a custom slog.Logger instance for the Controller struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Controller) {
		a.logger = logger
	}
}

// WithConfig uses cfg instead of the default AWS configuration.
func WithConfig(cfg *aws.Config) Option {
	return func(a *Controller) {
		a.config = cfg
	}
}

// WithSSMClient replaces the SSM client.
func WithSSMClient(c SSMAPI) Option {
	return func(a *Controller) {
		a.ssmClient = c
	}
}

// WithSecretsManagerClient replaces the Secrets Manager client.
func WithSecretsManagerClient(c SecretsManagerAPI) Option {
	return func(a *Controller) {
		a.secretsClient = c
	}
}

// WithS3Client replaces the S3 client.
func WithS3Client(c S3API) Option {
	return func(a *Controller) {
		a.s3Client = c
	}
}

// WithClock replaces the time source used for object keys.
func WithClock(now func() time.Time) Option {
	return func(a *Controller) {
		a.now = now
	}
}
