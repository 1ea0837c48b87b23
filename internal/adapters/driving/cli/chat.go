package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palaver/internal/adapters/driving/repl"
	"github.com/custodia-labs/palaver/internal/core/services"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Start an interactive session.

Lines are collected until an empty line, then sent as one message. Inside
the session:
  q           quit
  -h          show help
  -l          list models
  -c <model>  switch to completion with a custom model
  chat        chat mode (default)
  explain     explain the code that follows
  code        raw code completion`,
	RunE: runChat,
}

func init() {
	addStreamFlag(chatCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	rt, err := connect(cmd, services.WithNotifier(func(model string) {
		fmt.Fprintf(out, "model changed to: %s\n", model)
	}))
	if err != nil {
		return err
	}
	defer rt.Close()

	stop := watchPrompts(cmd.Context())
	defer stop()

	stream, _ := cmd.Flags().GetBool("stream")
	loop := repl.New(rt.session, rt.modes,
		repl.WithInput(cmd.InOrStdin()),
		repl.WithOutput(out),
		repl.WithStreaming(stream),
	)
	return loop.Run(cmd.Context())
}
