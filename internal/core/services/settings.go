package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyProvider          = "llm.provider"
	keyBaseURL           = "llm.base_url"
	keyProxy             = "llm.proxy"
	keyChatModel         = "llm.chat_model"
	keyCompletionModel   = "llm.completion_model"
	keyRequestsPerSecond = "llm.requests_per_second"
	keyPersistContext    = "session.persist_context"
)

// Environment variables that override stored settings.
const (
	EnvProvider        = "PALAVER_PROVIDER"
	EnvBaseURL         = "OPENAI_BASE_URL"
	EnvProxy           = "HTTPS_PROXY"
	EnvChatModel       = "PALAVER_CHAT_MODEL"
	EnvCompletionModel = "PALAVER_COMPLETION_MODEL"
)

// SettingsService manages application settings.
// Values come from the config store, then the environment wins.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service reading the process environment.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return NewSettingsServiceWithEnv(configStore, os.Getenv)
}

// NewSettingsServiceWithEnv creates a settings service with a custom
// environment lookup. A nil getenv disables the overlay.
func NewSettingsServiceWithEnv(configStore driven.ConfigStore, getenv func(string) string) *SettingsService {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return &SettingsService{
		configStore: configStore,
		getenv:      getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Provider:          s.getProvider(defaults.Provider),
		BaseURL:           s.getString(keyBaseURL, EnvBaseURL, ""),
		Proxy:             s.getString(keyProxy, EnvProxy, ""),
		ChatModel:         s.getString(keyChatModel, EnvChatModel, defaults.ChatModel),
		CompletionModel:   s.getString(keyCompletionModel, EnvCompletionModel, defaults.CompletionModel),
		PersistContext:    s.getBool(keyPersistContext, defaults.PersistContext),
		RequestsPerSecond: s.configStore.GetFloat(keyRequestsPerSecond),
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings in %s: %w", s.configStore.Path(), err)
	}
	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("save settings: %w", domain.ErrInvalidInput)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyProvider, settings.Provider.String()},
		{keyBaseURL, settings.BaseURL},
		{keyProxy, settings.Proxy},
		{keyChatModel, settings.ChatModel},
		{keyCompletionModel, settings.CompletionModel},
		{keyPersistContext, settings.PersistContext},
		{keyRequestsPerSecond, settings.RequestsPerSecond},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set updates a single setting from its string form.
func (s *SettingsService) Set(key, value string) error {
	var typed any
	switch key {
	case keyProvider:
		p := domain.Provider(strings.ToLower(strings.TrimSpace(value)))
		if !p.IsValid() {
			return fmt.Errorf("%s %q: %w", key, value, domain.ErrUnsupportedProvider)
		}
		typed = p.String()
	case keyBaseURL, keyProxy:
		typed = strings.TrimSpace(value)
	case keyChatModel, keyCompletionModel:
		model := strings.TrimSpace(value)
		if model == "" {
			return fmt.Errorf("%s must not be empty: %w", key, domain.ErrInvalidInput)
		}
		typed = model
	case keyPersistContext:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s %q: %w", key, value, domain.ErrInvalidInput)
		}
		typed = b
	case keyRequestsPerSecond:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%s %q: %w", key, value, domain.ErrInvalidInput)
		}
		typed = f
	default:
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the settable keys.
func (s *SettingsService) Keys() []string {
	keys := []string{
		keyProvider,
		keyBaseURL,
		keyProxy,
		keyChatModel,
		keyCompletionModel,
		keyRequestsPerSecond,
		keyPersistContext,
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ConfigPath returns where settings are stored.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, env, defaultVal string) string {
	if val := s.getenv(env); val != "" {
		return val
	}
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(defaultVal domain.Provider) domain.Provider {
	val := s.getString(keyProvider, EnvProvider, "")
	if val == "" {
		return defaultVal
	}
	return domain.Provider(strings.ToLower(val))
}
