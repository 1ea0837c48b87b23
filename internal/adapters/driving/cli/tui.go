package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palaver/internal/adapters/driving/tui"
	"github.com/custodia-labs/palaver/internal/core/services"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for Palaver.

The TUI shows the conversation as a scrolling transcript with the active
mode and model in the status bar.

Controls:
  Enter    - Send / Select
  Tab      - Next mode
  ↑/k, ↓/j - Scroll / Navigate
  Esc      - Stop request / Back
  ?        - Toggle help
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	addStreamFlag(tuiCmd)
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	// The app exists only after the session, so the notifier looks it up late.
	var app *tui.App
	rt, err := connect(cmd, services.WithNotifier(func(model string) {
		if app != nil {
			app.Notify(model)
		}
	}))
	if err != nil {
		return err
	}
	defer rt.Close()

	app, err = tui.NewApp(tui.NewPorts(rt.session, rt.modes))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	stop := watchPrompts(cmd.Context())
	defer stop()

	stream, _ := cmd.Flags().GetBool("stream")
	if err := app.WithContext(cmd.Context()).WithStreaming(stream).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
