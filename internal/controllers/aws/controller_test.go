package aws_test

import (
	"context"
	"io"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/isometry/bridge-sync/internal/controllers/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSSM struct {
	input  *ssm.GetParameterInput
	output *ssm.GetParameterOutput
	err    error
}

func (m *mockSSM) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	m.input = params
	return m.output, m.err
}

type mockSecretsManager struct {
	input  *secretsmanager.GetSecretValueInput
	output *secretsmanager.GetSecretValueOutput
	err    error
}

func (m *mockSecretsManager) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	m.input = params
	return m.output, m.err
}

type mockS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (m *mockS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.input = params
	m.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, m.err
}

func newController(t *testing.T, ssmClient *mockSSM, secrets *mockSecretsManager, s3Client *mockS3) *aws.Controller {
	t.Helper()
	c, err := aws.NewController(context.Background(),
		aws.WithSSMClient(ssmClient),
		aws.WithSecretsManagerClient(secrets),
		aws.WithS3Client(s3Client),
		aws.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)
	return c
}

func TestController_GetSecret(t *testing.T) {
	testCases := []struct {
		Name        string
		Output      *ssm.GetParameterOutput
		Err         error
		Expected    string
		ExpectError string
	}{
		{
			Name:     "value",
			Output:   &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: awssdk.String("nv-key")}},
			Expected: "nv-key",
		},
		{
			Name:        "empty",
			Output:      &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{}},
			ExpectError: "is empty",
		},
		{
			Name:        "api_error",
			Err:         &smithy.GenericAPIError{Code: "ParameterNotFound", Message: "not found"},
			ExpectError: "failed to load SSM parameter: ParameterNotFound: not found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			m := &mockSSM{output: tc.Output, err: tc.Err}
			c := newController(t, m, &mockSecretsManager{}, &mockS3{})

			value, err := c.GetSecret(context.Background(), "/novu/api-key", true)
			if tc.ExpectError != "" {
				assert.ErrorContains(t, err, tc.ExpectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, value)
			assert.Equal(t, "/novu/api-key", awssdk.ToString(m.input.Name))
			assert.True(t, awssdk.ToBool(m.input.WithDecryption))
		})
	}
}

func TestController_GetSecretValue(t *testing.T) {
	testCases := []struct {
		Name        string
		Field       string
		Output      *secretsmanager.GetSecretValueOutput
		Err         error
		Expected    string
		ExpectError string
	}{
		{
			Name:     "plain_string",
			Output:   &secretsmanager.GetSecretValueOutput{SecretString: awssdk.String("nv-key")},
			Expected: "nv-key",
		},
		{
			Name:     "binary",
			Output:   &secretsmanager.GetSecretValueOutput{SecretBinary: []byte("nv-binary")},
			Expected: "nv-binary",
		},
		{
			Name:     "json_field",
			Field:    "apiKey",
			Output:   &secretsmanager.GetSecretValueOutput{SecretString: awssdk.String(`{"apiKey":"nv-json","other":1}`)},
			Expected: "nv-json",
		},
		{
			Name:        "json_missing_field",
			Field:       "apiKey",
			Output:      &secretsmanager.GetSecretValueOutput{SecretString: awssdk.String(`{"other":"x"}`)},
			ExpectError: `has no string field "apiKey"`,
		},
		{
			Name:        "not_json",
			Field:       "apiKey",
			Output:      &secretsmanager.GetSecretValueOutput{SecretString: awssdk.String("nv-key")},
			ExpectError: "is not a JSON object",
		},
		{
			Name:        "empty",
			Output:      &secretsmanager.GetSecretValueOutput{},
			ExpectError: "is empty",
		},
		{
			Name:        "api_error",
			Err:         &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"},
			ExpectError: "AccessDeniedException: denied",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			m := &mockSecretsManager{output: tc.Output, err: tc.Err}
			c := newController(t, &mockSSM{}, m, &mockS3{})

			value, err := c.GetSecretValue(context.Background(), "novu", tc.Field)
			if tc.ExpectError != "" {
				assert.ErrorContains(t, err, tc.ExpectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, value)
			assert.Equal(t, "novu", awssdk.ToString(m.input.SecretId))
		})
	}
}

func TestController_PutS3Object(t *testing.T) {
	m := &mockS3{}
	c := newController(t, &mockSSM{}, &mockSecretsManager{}, m)

	key, err := c.PutS3Object(context.Background(), "reports", "bridge-sync", "abc", []byte(`{"success":true}`))
	require.NoError(t, err)
	assert.Equal(t, "bridge-sync/2024-05-01T12:00:00Z.abc.json", key)
	assert.Equal(t, "reports", awssdk.ToString(m.input.Bucket))
	assert.Equal(t, key, awssdk.ToString(m.input.Key))
	assert.Equal(t, "application/json", awssdk.ToString(m.input.ContentType))
	assert.JSONEq(t, `{"success":true}`, string(m.body))

	_, err = c.PutS3Object(context.Background(), "", "bridge-sync", "abc", nil)
	assert.ErrorContains(t, err, "missing bucket name")

	m.err = &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "gone"}
	_, err = c.PutS3Object(context.Background(), "reports", "", "abc", nil)
	assert.ErrorContains(t, err, "failed to put object to S3: NoSuchBucket: gone")
}
