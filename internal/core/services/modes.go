package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
	"github.com/custodia-labs/palaver/internal/logger"
)

// Ensure ModeCatalogService implements the interfaces.
var (
	_ driving.ModeCatalog     = (*ModeCatalogService)(nil)
	_ driven.PromptStoreAware = (*ModeCatalogService)(nil)
)

// Mode names accepted by ByName.
const (
	ModeNameChat    = "chat"
	ModeNameExplain = "explain"
	ModeNameCode    = "code"
	ModeNameCustom  = "custom"
)

// ModeCatalogService builds the named modes for a session.
// Chat and explain share one conversation, so switching between them keeps
// the context; switching to a completion mode and back does too.
type ModeCatalogService struct {
	chatModel       string
	completionModel string

	mu          sync.RWMutex
	promptStore driven.PromptStore

	convOnce sync.Once
	conv     *domain.Conversation
}

// NewModeCatalogService creates a catalog using the models in settings.
// A nil promptStore uses the embedded explain preamble and no system prompt.
func NewModeCatalogService(settings domain.AppSettings, promptStore driven.PromptStore) *ModeCatalogService {
	chatModel := settings.ChatModel
	if chatModel == "" {
		chatModel = domain.DefaultChatModel
	}
	completionModel := settings.CompletionModel
	if completionModel == "" {
		completionModel = domain.DefaultCompletionModel
	}
	return &ModeCatalogService{
		chatModel:       chatModel,
		completionModel: completionModel,
		promptStore:     promptStore,
	}
}

// SetPromptStore sets the prompt store used for later modes.
// The conversation, once created, keeps its seed.
func (c *ModeCatalogService) SetPromptStore(store driven.PromptStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promptStore = store
}

// Conversation returns the conversation shared by the chat modes, seeding
// it with the system prompt on first use.
func (c *ModeCatalogService) Conversation() *domain.Conversation {
	c.convOnce.Do(func() {
		var seed []domain.Turn
		if system := c.prompt(driven.PromptSystem, ""); system != "" {
			seed = append(seed, domain.SystemTurn(system))
		}
		c.conv = domain.NewConversation(seed...)
	})
	return c.conv
}

// Chat returns the plain chat mode.
func (c *ModeCatalogService) Chat() domain.Mode {
	return domain.ChatMode(domain.Identity(), c.Conversation()).WithModel(c.chatModel)
}

// Explain returns the chat mode that puts the explain preamble before the input.
func (c *ModeCatalogService) Explain() domain.Mode {
	preamble := c.prompt(driven.PromptExplain, domain.DefaultExplainPreamble)
	if !strings.HasSuffix(preamble, "\n") {
		preamble += "\n"
	}
	return c.Chat().WithPrefix(preamble)
}

// Code returns the raw completion mode.
func (c *ModeCatalogService) Code() domain.Mode {
	return domain.RawCompletionMode().WithModel(c.completionModel)
}

// Custom returns a completion mode targeting model.
func (c *ModeCatalogService) Custom(model string) (domain.Mode, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return domain.Mode{}, fmt.Errorf("custom mode needs a model: %w", domain.ErrInvalidInput)
	}
	return domain.CustomModelMode(model), nil
}

// ByName resolves a mode by its name. The model is only used by custom.
func (c *ModeCatalogService) ByName(name, model string) (domain.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ModeNameChat, "":
		return c.Chat(), nil
	case ModeNameExplain:
		return c.Explain(), nil
	case ModeNameCode:
		return c.Code(), nil
	case ModeNameCustom:
		return c.Custom(model)
	default:
		return domain.Mode{}, fmt.Errorf("unknown mode %q: %w", name, domain.ErrInvalidInput)
	}
}

func (c *ModeCatalogService) prompt(name, fallback string) string {
	c.mu.RLock()
	store := c.promptStore
	c.mu.RUnlock()

	if store == nil {
		return fallback
	}
	p, err := store.Load(name)
	if err != nil {
		logger.Debug("prompt %q unavailable, using default: %v", name, err)
		return fallback
	}
	if strings.TrimSpace(p) == "" {
		return fallback
	}
	return p
}
