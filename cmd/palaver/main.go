// Command palaver is a chat and code completion client for OpenAI-compatible
// APIs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/palaver/internal/adapters/driven/ai"
	"github.com/custodia-labs/palaver/internal/adapters/driven/config/file"
	"github.com/custodia-labs/palaver/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/palaver/internal/adapters/driving/cli"
	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
	"github.com/custodia-labs/palaver/internal/core/services"
	"github.com/custodia-labs/palaver/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var configStore driven.ConfigStore
	fileStore, err := file.NewConfigStore("")
	if err != nil {
		logger.Warn("settings will not be saved: %v", err)
		configStore = memory.NewConfigStore()
	} else {
		configStore = fileStore
	}

	deps := &cli.Deps{
		Settings: services.NewSettingsService(configStore),
		NewTransport: func(s *domain.AppSettings) (driven.Transport, error) {
			return ai.CreateTransport(s, ai.APIKeyFromEnv())
		},
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		logger.Warn("using built-in prompts: %v", err)
	} else {
		deps.Prompts = prompts
		deps.PromptDir = prompts.Dir()
	}

	cli.SetVersion(version)
	cli.SetDeps(deps)
	return cli.Execute(ctx)
}
