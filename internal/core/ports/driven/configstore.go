package driven

// ConfigStore provides access to persisted application configuration.
// Keys use dot notation ("llm.chat_model"); nested TOML tables are flattened.
type ConfigStore interface {
	// Get retrieves a raw value and whether the key exists.
	Get(key string) (any, bool)

	// GetString returns the value, or "" when missing or not a string.
	GetString(key string) string

	// GetBool returns the value, or false when missing or not a boolean.
	GetBool(key string) bool

	// GetFloat returns the value, or 0 when missing or not numeric.
	GetFloat(key string) float64

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load re-reads configuration from storage.
	Load() error

	// Path returns where the configuration lives.
	Path() string
}
