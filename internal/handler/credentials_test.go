package handler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/isometry/bridge-sync/internal/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	calls int
	err   error
}

func (f *fakeStore) GetSecret(_ context.Context, key string, encrypted bool) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if !encrypted {
		return "", errors.New("expected decryption")
	}
	return "ssm:" + key, nil
}

func (f *fakeStore) GetSecretValue(_ context.Context, id, field string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "sm:" + id + "#" + field, nil
}

func TestNewCredentialProvider(t *testing.T) {
	testCases := []struct {
		Name        string
		Settings    handler.CredentialSettings
		Expected    string
		ExpectedErr bool
	}{
		{Name: "input", Settings: handler.CredentialSettings{Mode: "input", APIKey: "nv-key"}, Expected: "nv-key"},
		{Name: "default_mode", Settings: handler.CredentialSettings{APIKey: "nv-key"}, Expected: "nv-key"},
		{Name: "ssm", Settings: handler.CredentialSettings{Mode: "ssm", SSMKey: "/novu/key"}, Expected: "ssm:/novu/key"},
		{Name: "secretsmanager", Settings: handler.CredentialSettings{Mode: "secretsmanager", SecretID: "novu", SecretField: "apiKey"}, Expected: "sm:novu#apiKey"},
		{Name: "unknown", Settings: handler.CredentialSettings{Mode: "vault"}, ExpectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			provider, err := handler.NewCredentialProvider(tc.Settings, &fakeStore{})
			if tc.ExpectedErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			key, err := provider.APIKey(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, key)
		})
	}
}

func TestNewCredentialProvider_RequiresStore(t *testing.T) {
	_, err := handler.NewCredentialProvider(handler.CredentialSettings{Mode: "ssm", SSMKey: "/k"}, nil)
	var target *handler.NoSecretStoreError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "ssm", target.Mode)
}

func TestCachedCredentials(t *testing.T) {
	store := &fakeStore{}
	provider, err := handler.NewCredentialProvider(handler.CredentialSettings{Mode: "ssm", SSMKey: "/k"}, store)
	require.NoError(t, err)

	for range 3 {
		key, err := provider.APIKey(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ssm:/k", key)
	}
	assert.Equal(t, 1, store.calls)

	failing := &fakeStore{err: errors.New("ParameterNotFound")}
	provider, err = handler.NewCredentialProvider(handler.CredentialSettings{Mode: "ssm", SSMKey: "/k"}, failing)
	require.NoError(t, err)
	_, err = provider.APIKey(context.Background())
	assert.ErrorContains(t, err, "failed to fetch API key")
	_, _ = provider.APIKey(context.Background())
	assert.Equal(t, 2, failing.calls)
}
