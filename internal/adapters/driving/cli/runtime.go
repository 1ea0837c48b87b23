package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palaver/internal/adapters/driven/config/file"
	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
	"github.com/custodia-labs/palaver/internal/core/services"
	"github.com/custodia-labs/palaver/internal/logger"
)

// runtime is one connected session with its mode catalog.
type runtime struct {
	settings  *domain.AppSettings
	transport driven.Transport
	modes     *services.ModeCatalogService
	session   *services.SessionService
}

// connect loads settings, applies flag overrides and builds a session.
// opts are applied after the defaults taken from settings.
func connect(cmd *cobra.Command, opts ...services.SessionOption) (*runtime, error) {
	if deps == nil || deps.Settings == nil || deps.NewTransport == nil {
		return nil, errNotConfigured
	}

	settings, err := deps.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if proxy, _ := cmd.Flags().GetString("proxy"); proxy != "" {
		settings.Proxy = proxy
	}

	transport, err := deps.NewTransport(settings)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", settings.Provider, err)
	}

	modes := services.NewModeCatalogService(*settings, deps.Prompts)
	opts = append([]services.SessionOption{
		services.WithPersistContext(settings.PersistContext),
		services.WithInitialMode(modes.Chat()),
	}, opts...)

	return &runtime{
		settings:  settings,
		transport: transport,
		modes:     modes,
		session:   services.NewSessionService(transport, opts...),
	}, nil
}

// Close releases the transport.
func (r *runtime) Close() error {
	return r.transport.Close()
}

// watchPrompts reloads prompts when files under the prompt directory change.
// The returned stop function is always safe to call.
func watchPrompts(ctx context.Context) (stop func()) {
	if deps == nil || deps.Prompts == nil || deps.PromptDir == "" {
		return func() {}
	}

	watcher, err := file.NewPromptWatcher(deps.Prompts, deps.PromptDir, func(name string) {
		logger.Info("prompt %q reloaded", name)
	})
	if err != nil {
		logger.Warn("prompt watcher disabled: %v", err)
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("prompt watcher stopped: %v", err)
		}
	}()

	return func() {
		cancel()
		<-done
		watcher.Close() //nolint:errcheck
	}
}
