// Package aws provides the Controller struct that wraps the AWS services used to resolve credentials and archive sync reports.
package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/logging"
	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/pkg/errors"
)

// SSMAPI is the subset of the SSM client used by the Controller.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SecretsManagerAPI is the subset of the Secrets Manager client used by the Controller.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// S3API is the subset of the S3 client used by the Controller.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Controller wraps the SSM, Secrets Manager and S3 clients with logging support.
type Controller struct {
	logger *slog.Logger
	now    func() time.Time

	config        *aws.Config
	s3Client      S3API
	ssmClient     SSMAPI
	secretsClient SecretsManagerAPI
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller. The default AWS configuration is only loaded when a client was not injected.
func NewController(ctx context.Context, opts ...Option) (*Controller, error) {
	_inst := &Controller{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "aws")
	if _inst.now == nil {
		_inst.now = time.Now
	}
	if _inst.s3Client != nil && _inst.ssmClient != nil && _inst.secretsClient != nil {
		return _inst, nil
	}
	if _inst.config == nil {
		_inst.logger.Debug("loading default AWS configuration...")
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS configuration")
		}
		cfg.Logger = newAWSLogger(_inst.logger)
		_inst.config = &cfg
	}

	if _inst.s3Client == nil {
		_inst.s3Client = s3.NewFromConfig(*_inst.config)
	}
	if _inst.ssmClient == nil {
		_inst.ssmClient = ssm.NewFromConfig(*_inst.config)
	}
	if _inst.secretsClient == nil {
		_inst.secretsClient = secretsmanager.NewFromConfig(*_inst.config)
	}
	return _inst, nil
}

// GetSecret retrieves a value from SSM Parameter Store. If encrypted is true, the value is returned decrypted.
func (a *Controller) GetSecret(ctx context.Context, key string, encrypted bool) (string, error) {
	a.logger.With("key", key).Debug("fetching SSM parameter...")
	out, err := a.ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(encrypted),
	})
	if err != nil {
		return "", handleError(err, "failed to load SSM parameter")
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", errors.Errorf("SSM parameter %s is empty", key)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// GetSecretValue retrieves a secret from Secrets Manager. When field is set the secret is decoded as a
// JSON object and the string value of that field is returned.
func (a *Controller) GetSecretValue(ctx context.Context, id, field string) (string, error) {
	a.logger.With("secretId", id, "field", field).Debug("fetching secret...")
	out, err := a.secretsClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", handleError(err, "failed to load secret")
	}
	value := aws.ToString(out.SecretString)
	if value == "" && len(out.SecretBinary) > 0 {
		value = string(out.SecretBinary)
	}
	if value == "" {
		return "", errors.Errorf("secret %s is empty", id)
	}
	if field == "" {
		return value, nil
	}

	var fields map[string]any
	if err = json.Unmarshal([]byte(value), &fields); err != nil {
		return "", errors.Wrapf(err, "secret %s is not a JSON object", id)
	}
	v, ok := fields[field].(string)
	if !ok || v == "" {
		return "", errors.Errorf("secret %s has no string field %q", id, field)
	}
	return v, nil
}

// PutS3Object uploads a JSON document under prefix with a key made of the current time and id.
// It returns the object key.
func (a *Controller) PutS3Object(ctx context.Context, bucket, prefix, id string, body []byte) (string, error) {
	if bucket == "" {
		return "", errors.New("missing bucket name")
	}
	key := path.Join(prefix, fmt.Sprintf("%s.%s.json", a.now().UTC().Format(time.RFC3339Nano), id))
	a.logger.Debug("uploading object...", slog.String("bucket", bucket), slog.String("key", key))
	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", handleError(err, "failed to put object to S3")
	}
	return key, nil
}

func handleError(err error, message string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return errors.Errorf("%s: %s: %s", message, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return errors.Wrap(err, message)
}

type awsLogger struct {
	logger *slog.Logger
}

func newAWSLogger(logger *slog.Logger) *awsLogger {
	return &awsLogger{logger}
}

func (a *awsLogger) Logf(classification logging.Classification, format string, args ...any) {
	a.logger.Debug(fmt.Sprintf("[%v] %s", classification, fmt.Sprintf(format, args...)))
}
