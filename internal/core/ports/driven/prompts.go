package driven

// PromptStore provides access to prompt templates used to build modes.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt for the given name.
	// If the prompt is not found, implementations return an embedded default
	// or an error when no default exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptExplain is the preamble inserted before input in explain mode.
	// It is used verbatim; it has no format placeholders.
	PromptExplain = "explain"

	// PromptSystem is an optional system turn seeded into new chat conversations.
	// An empty prompt means no system turn.
	PromptSystem = "system"
)

// PromptStoreAware is implemented by services whose prompts can be customised
// after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store. A nil store restores embedded defaults.
	SetPromptStore(store PromptStore)
}
