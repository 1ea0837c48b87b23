package domain

// ModeKind discriminates the Mode variants.
type ModeKind string

// Available mode kinds.
const (
	// ModeChat sends the conversation plus the transformed input to the chat endpoint.
	ModeChat ModeKind = "chat"

	// ModeRawCompletion sends the input verbatim to the completion endpoint
	// using the default completion model.
	ModeRawCompletion ModeKind = "completion"

	// ModeCustomModel sends the input verbatim to the completion endpoint
	// using an operator-chosen model.
	ModeCustomModel ModeKind = "custom"
)

// Default model identifiers.
const (
	DefaultChatModel       = "gpt-3.5-turbo"
	DefaultCompletionModel = "code-davinci-002"
)

// DefaultExplainPreamble is inserted before the input in explain mode.
const DefaultExplainPreamble = "I need you to provide a short, summarized explanation (a few sentences) " +
	"to describe the functionality of a piece of code, which will be shown in an IDE, provided to developers. " +
	"The goal is to help developers quickly pick up the idea of that code. " +
	"Please explain the following piece of code to me: \n"

// IsValid returns true if the kind is recognised.
func (k ModeKind) IsValid() bool {
	switch k {
	case ModeChat, ModeRawCompletion, ModeCustomModel:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ModeKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the kind.
func (k ModeKind) Description() string {
	switch k {
	case ModeChat:
		return "Chat (conversation)"
	case ModeRawCompletion:
		return "Code completion"
	case ModeCustomModel:
		return "Completion (custom model)"
	default:
		return unknownDescription
	}
}

// Mode is the active completion modality and its per-variant data.
// Chat modes carry a transform and a conversation handle; completion modes
// carry only a model identifier. Mode is a value: copying it shares the
// conversation handle, never the turns.
type Mode struct {
	kind         ModeKind
	model        string
	transform    PromptTransform
	conversation *Conversation
}

// ChatMode returns a chat mode using t and conv. A nil conv allocates a new
// conversation; a nil t is the identity.
func ChatMode(t PromptTransform, conv *Conversation) Mode {
	if conv == nil {
		conv = NewConversation()
	}
	return Mode{
		kind:         ModeChat,
		model:        DefaultChatModel,
		transform:    t,
		conversation: conv,
	}
}

// RawCompletionMode returns the completion mode for the default completion model.
func RawCompletionMode() Mode {
	return Mode{kind: ModeRawCompletion, model: DefaultCompletionModel}
}

// CustomModelMode returns a completion mode targeting model.
func CustomModelMode(model string) Mode {
	return Mode{kind: ModeCustomModel, model: model}
}

// Kind returns the variant tag.
func (m Mode) Kind() ModeKind {
	return m.kind
}

// IsChat reports whether m is a chat mode.
func (m Mode) IsChat() bool {
	return m.kind == ModeChat
}

// IsZero reports whether m was never constructed.
func (m Mode) IsZero() bool {
	return m.kind == ""
}

// Model returns the model identifier used for requests in this mode.
func (m Mode) Model() string {
	return m.model
}

// Transform returns the chat transform, or nil for completion modes.
func (m Mode) Transform() PromptTransform {
	return m.transform
}

// Conversation returns the chat conversation handle, or nil for completion modes.
func (m Mode) Conversation() *Conversation {
	return m.conversation
}

// String returns the model identifier.
func (m Mode) String() string {
	return m.model
}

// WithModel returns a copy of m targeting a different model. An empty model
// leaves m unchanged.
func (m Mode) WithModel(model string) Mode {
	if model != "" {
		m.model = model
	}
	return m
}

// WithTransform returns a copy of a chat mode whose transform runs t after
// the existing one. Completion modes are returned unchanged.
func (m Mode) WithTransform(t PromptTransform) Mode {
	if m.kind == ModeChat {
		m.transform = m.transform.Then(t)
	}
	return m
}

// WithPrefix returns a copy of a chat mode that also inserts p at the front.
func (m Mode) WithPrefix(p string) Mode {
	return m.WithTransform(Prefix(p))
}

// WithSuffix returns a copy of a chat mode that also appends x.
func (m Mode) WithSuffix(x string) Mode {
	return m.WithTransform(Suffix(x))
}

// WithTurn appends turn to a chat mode's conversation and returns m.
// The conversation is shared, so every mode holding it observes the turn.
func (m Mode) WithTurn(turn Turn) Mode {
	if m.kind == ModeChat && m.conversation != nil {
		m.conversation.Append(turn)
	}
	return m
}
