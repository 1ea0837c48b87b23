// Package cli provides the cobra command tree for Palaver.
// It is a driving adapter: commands translate flags and arguments into calls
// on the session engine and settings service wired by main.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
	"github.com/custodia-labs/palaver/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// errNotConfigured is returned when main did not call SetDeps.
var errNotConfigured = errors.New("palaver is not configured")

// TransportFactory builds the upstream transport from effective settings.
type TransportFactory func(settings *domain.AppSettings) (driven.Transport, error)

// Deps are the collaborators main wires into the command tree.
type Deps struct {
	// Settings reads and writes the persisted configuration.
	Settings driving.SettingsService

	// Prompts supplies the explain preamble and system prompt.
	// Nil uses the embedded defaults.
	Prompts driven.PromptStore

	// PromptDir is watched for edits while interactive commands run.
	// Empty disables watching.
	PromptDir string

	// NewTransport connects to the configured provider. It is only called by
	// commands that talk upstream, so settings and version work without a key.
	NewTransport TransportFactory
}

var deps *Deps

// SetDeps sets the collaborators used by every command.
func SetDeps(d *Deps) {
	deps = d
}

// SetVersion sets the version printed by 'palaver version'.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "palaver",
	Short: "Chat and code completion against OpenAI-compatible APIs",
	Long: `Palaver is a small chat client for OpenAI-compatible completion APIs.

Run without a subcommand to start the interactive session. Type a message,
then an empty line to send it. Switch between chat, explain and code modes
with the commands listed by -h inside the session.

The API key is read from OPENAI_API_KEY. Other settings live in
~/.palaver/config.toml and can be changed with 'palaver settings set'.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger.SetVerbose(verbose)
	},
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print requests and responses to stderr")
	rootCmd.PersistentFlags().String("proxy", "", "HTTPS proxy URL (overrides settings)")
	addStreamFlag(rootCmd)
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func addStreamFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("stream", "s", false, "print chat replies as they arrive")
}
