package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/services"
)

var askCmd = &cobra.Command{
	Use:   "ask [message...]",
	Short: "Send one message and print the reply",
	Long: `Send one message and print the reply.

The message is taken from the arguments, or from stdin when there are none
or the only argument is "-".

Examples:
  palaver ask "What is a goroutine?"
  palaver ask --mode explain < main.go
  palaver ask --mode code "func fib(n int) int {"
  palaver ask --mode custom --model davinci-002 "Once upon a time"`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringP("mode", "m", services.ModeNameChat, "chat, explain, code or custom")
	askCmd.Flags().String("model", "", "model for custom mode")
	askCmd.Flags().BoolP("all", "a", false, "print every returned choice")
	addStreamFlag(askCmd)
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	content, err := askContent(cmd, args)
	if err != nil {
		return err
	}

	modeName, _ := cmd.Flags().GetString("mode")
	model, _ := cmd.Flags().GetString("model")
	stream, _ := cmd.Flags().GetBool("stream")
	all, _ := cmd.Flags().GetBool("all")

	// no mode-change notice for one-shot requests
	rt, err := connect(cmd, services.WithNotifier(func(string) {}))
	if err != nil {
		return err
	}
	defer rt.Close()

	mode, err := rt.modes.ByName(modeName, model)
	if err != nil {
		return fmt.Errorf("mode %q: %w", modeName, err)
	}

	if stream {
		if !mode.IsChat() {
			return fmt.Errorf("--stream needs a chat mode, got %s: %w", modeName, domain.ErrInvalidInput)
		}
		rt.session.SetMode(mode)
		return streamReply(cmd, rt, content)
	}

	results, err := rt.session.AskWith(cmd.Context(), content, mode)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return errors.New("no choices returned")
	}

	out := cmd.OutOrStdout()
	if !all {
		fmt.Fprintln(out, results[0].Content)
		return nil
	}
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "[%d] %s\n", i, r.Content)
	}
	return nil
}

func streamReply(cmd *cobra.Command, rt *runtime, content string) error {
	stream, err := rt.session.AskStream(cmd.Context(), content)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for batch, err := range services.Deltas(stream) {
		if err != nil {
			fmt.Fprintln(out)
			return err
		}
		for _, d := range batch {
			if d.Index == 0 && d.Content != nil {
				fmt.Fprint(out, *d.Content)
			}
		}
	}
	fmt.Fprintln(out)
	return nil
}

func askContent(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
