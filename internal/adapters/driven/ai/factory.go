// Package ai provides factory functions for creating completion transports.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/palaver/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
)

// EnvAPIKey is the environment variable holding the OpenAI API key.
//
//nolint:gosec // G101: This is a variable name, not a credential.
const EnvAPIKey = "OPENAI_API_KEY"

// pingTimeout is the maximum time to wait for connectivity validation.
const pingTimeout = 5 * time.Second

// APIKeyFromEnv returns the API key from the environment.
func APIKeyFromEnv() string {
	return os.Getenv(EnvAPIKey)
}

// CreateTransport creates the transport for the configured provider.
// Providers that need a key fail with domain.ErrMissingCredential when
// apiKey is empty.
func CreateTransport(settings *domain.AppSettings, apiKey string) (driven.Transport, error) {
	if settings == nil {
		defaults := domain.DefaultAppSettings()
		settings = &defaults
	}

	switch settings.Provider {
	case domain.ProviderOpenAI, domain.ProviderOllama:
		if settings.Provider.RequiresAPIKey() && apiKey == "" {
			return nil, fmt.Errorf("%s: set %s: %w", settings.Provider, EnvAPIKey, domain.ErrMissingCredential)
		}
		return openai.NewTransport(openai.Config{
			APIKey:            apiKey,
			Anonymous:         !settings.Provider.RequiresAPIKey(),
			BaseURL:           settings.EffectiveBaseURL(),
			Proxy:             settings.Proxy,
			RequestsPerSecond: settings.RequestsPerSecond,
		})
	default:
		return nil, fmt.Errorf("%q: %w", settings.Provider, domain.ErrUnsupportedProvider)
	}
}

// ValidateConfig creates a transport and checks it can list models.
// This is intended for 'palaver settings check'.
func ValidateConfig(ctx context.Context, settings *domain.AppSettings, apiKey string) error {
	tr, err := CreateTransport(settings, apiKey)
	if err != nil {
		return err
	}
	defer tr.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := tr.ListModels(ctx); err != nil {
		return fmt.Errorf("service unreachable: %w", err)
	}
	return nil
}
