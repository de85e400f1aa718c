package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/isometry/bridge-sync/internal/config"
	"github.com/isometry/bridge-sync/internal/handler/processor"
	"github.com/pkg/errors"
)

// SecretStore reads secrets from SSM Parameter Store and Secrets Manager.
type SecretStore interface {
	GetSecret(ctx context.Context, key string, encrypted bool) (string, error)
	GetSecretValue(ctx context.Context, id, field string) (string, error)
}

// CredentialSettings selects and parameterises a credential provider.
type CredentialSettings struct {
	Mode        string
	APIKey      string
	SSMKey      string
	SecretID    string
	SecretField string
}

// NewCredentialProvider returns the provider for settings.Mode. Remote providers cache the key after the first
// successful lookup.
func NewCredentialProvider(settings CredentialSettings, store SecretStore) (processor.CredentialProvider, error) {
	switch settings.Mode {
	case config.CredentialsInput, "":
		return staticCredentials(settings.APIKey), nil
	case config.CredentialsSSM:
		if store == nil {
			return nil, &NoSecretStoreError{Mode: settings.Mode}
		}
		return &cachedCredentials{next: func(ctx context.Context) (string, error) {
			return store.GetSecret(ctx, settings.SSMKey, true)
		}}, nil
	case config.CredentialsSecretsManager:
		if store == nil {
			return nil, &NoSecretStoreError{Mode: settings.Mode}
		}
		return &cachedCredentials{next: func(ctx context.Context) (string, error) {
			return store.GetSecretValue(ctx, settings.SecretID, settings.SecretField)
		}}, nil
	default:
		return nil, fmt.Errorf("unsupported credentials mode: %s", settings.Mode)
	}
}

type staticCredentials string

func (s staticCredentials) APIKey(context.Context) (string, error) {
	return string(s), nil
}

type cachedCredentials struct {
	mu   sync.Mutex
	key  string
	next func(ctx context.Context) (string, error)
}

func (c *cachedCredentials) APIKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key != "" {
		return c.key, nil
	}
	key, err := c.next(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch API key")
	}
	c.key = key
	return key, nil
}
