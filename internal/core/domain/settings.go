package domain

const unknownDescription = "Unknown"

// Provider identifies the upstream completion service.
type Provider string

// Available providers.
const (
	// ProviderOpenAI is the OpenAI cloud API.
	ProviderOpenAI Provider = "openai"

	// ProviderOllama is a local Ollama instance speaking the OpenAI-compatible API.
	ProviderOllama Provider = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p Provider) RequiresAPIKey() bool {
	return p == ProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p Provider) IsLocal() bool {
	return p == ProviderOllama
}

// DefaultBaseURL returns the API root for the provider.
func (p Provider) DefaultBaseURL() string {
	switch p {
	case ProviderOllama:
		return "http://localhost:11434/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// String returns the string representation.
func (p Provider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p Provider) Description() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI (cloud)"
	case ProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// AllProviders returns every supported provider.
func AllProviders() []Provider {
	return []Provider{ProviderOpenAI, ProviderOllama}
}

// AppSettings is the persisted application configuration.
// API keys are never part of it; they come from the environment.
type AppSettings struct {
	// Provider is the completion service.
	Provider Provider

	// BaseURL overrides the provider's API root.
	BaseURL string

	// Proxy is an HTTP(S) proxy URL for upstream calls.
	Proxy string

	// ChatModel is the model used by chat modes.
	ChatModel string

	// CompletionModel is the model used by the code completion mode.
	CompletionModel string

	// PersistContext makes completed chat turns durable within the session.
	PersistContext bool

	// RequestsPerSecond throttles outbound calls; 0 disables throttling.
	RequestsPerSecond float64
}

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Provider:        ProviderOpenAI,
		ChatModel:       DefaultChatModel,
		CompletionModel: DefaultCompletionModel,
		PersistContext:  true,
	}
}

// EffectiveBaseURL returns BaseURL, or the provider default when unset.
func (s AppSettings) EffectiveBaseURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return s.Provider.DefaultBaseURL()
}

// Validate checks the settings are usable.
func (s AppSettings) Validate() error {
	if !s.Provider.IsValid() {
		return ErrUnsupportedProvider
	}
	if s.ChatModel == "" || s.CompletionModel == "" {
		return ErrInvalidInput
	}
	if s.RequestsPerSecond < 0 {
		return ErrInvalidInput
	}
	return nil
}
