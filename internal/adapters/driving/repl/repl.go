package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
	"github.com/custodia-labs/palaver/internal/core/services"
	"github.com/custodia-labs/palaver/internal/logger"
)

const (
	promptText   = "> "
	maxLineBytes = 1 << 20
)

// REPL reads blocks of input, runs commands and prints replies.
type REPL struct {
	session driving.SessionService
	modes   driving.ModeCatalog
	in      io.Reader
	out     io.Writer
	prompt  bool
	stream  bool
}

// Option configures a REPL.
type Option func(*REPL)

// WithInput sets the input reader (default: stdin).
func WithInput(r io.Reader) Option {
	return func(l *REPL) { l.in = r }
}

// WithOutput sets the output writer (default: stdout).
func WithOutput(w io.Writer) Option {
	return func(l *REPL) { l.out = w }
}

// WithPrompt forces the input prompt on or off.
// By default it is shown only when stdin is a terminal.
func WithPrompt(show bool) Option {
	return func(l *REPL) { l.prompt = show }
}

// WithStreaming prints chat replies as they arrive.
func WithStreaming(stream bool) Option {
	return func(l *REPL) { l.stream = stream }
}

// New creates a REPL over session, switching modes from modes.
func New(session driving.SessionService, modes driving.ModeCatalog, opts ...Option) *REPL {
	l := &REPL{
		session: session,
		modes:   modes,
		in:      os.Stdin,
		out:     os.Stdout,
		prompt:  term.IsTerminal(int(os.Stdin.Fd())),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run prints the banner and processes input until q, end of input or ctx
// is done. Per-command errors are printed and the loop continues.
func (l *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(l.out, "Palaver started")
	fmt.Fprintln(l.out, Help)

	scanner := bufio.NewScanner(l.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		block, more := l.readBlock(scanner)
		if l.handle(ctx, Parse(block)) {
			return nil
		}
		if !more {
			return scanner.Err()
		}
	}
}

// readBlock joins lines until an empty line. It reports false at end of input.
func (l *REPL) readBlock(scanner *bufio.Scanner) (string, bool) {
	if l.prompt {
		fmt.Fprint(l.out, promptText)
	}

	var block []byte
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			return string(block), true
		}
		if len(block) > 0 {
			block = append(block, '\n')
		}
		block = append(block, line...)
	}
	return string(block), false
}

// handle runs one command and reports whether the loop should stop.
func (l *REPL) handle(ctx context.Context, cmd Command) bool {
	switch cmd.Kind {
	case CmdNone:
	case CmdQuit:
		return true
	case CmdHelp:
		fmt.Fprintln(l.out, Help)
	case CmdInvalid:
		fmt.Fprintln(l.out, InvalidFormat)
	case CmdListModels:
		l.listModels(ctx)
	case CmdCustomModel:
		mode, err := l.modes.Custom(cmd.Arg)
		if err != nil {
			fmt.Fprintln(l.out, err)
			return false
		}
		l.session.SetMode(mode)
	case CmdChat:
		l.session.SetMode(l.modes.Chat())
	case CmdExplain:
		l.session.SetMode(l.modes.Explain())
	case CmdCode:
		l.session.SetMode(l.modes.Code())
	case CmdAsk:
		if l.stream && l.session.Mode().IsChat() {
			l.askStream(ctx, cmd.Arg)
		} else {
			l.ask(ctx, cmd.Arg)
		}
	}
	return false
}

func (l *REPL) listModels(ctx context.Context) {
	models, err := l.session.ListModels(ctx)
	if err != nil {
		fmt.Fprintln(l.out, err)
		return
	}
	for _, m := range models {
		fmt.Fprintln(l.out, m)
	}
}

func (l *REPL) ask(ctx context.Context, content string) {
	results, err := l.session.Ask(ctx, content)
	if err != nil {
		fmt.Fprintln(l.out, err)
		return
	}
	if len(results) == 0 {
		fmt.Fprintln(l.out, "no choices returned")
		return
	}
	fmt.Fprintf(l.out, "%s:\n\n%s\n", results[0].Role, results[0].Content)
}

func (l *REPL) askStream(ctx context.Context, content string) {
	mode := l.session.Mode()
	stream, err := l.session.AskStream(ctx, content)
	if err != nil {
		fmt.Fprintln(l.out, err)
		return
	}
	defer stream.Close()

	var batches [][]domain.Delta
	header := false
	for stream.Next() {
		batch := stream.Current()
		batches = append(batches, batch)
		for _, d := range batch {
			if d.Index != 0 {
				continue
			}
			if !header && (d.Role != nil || d.Content != nil) {
				role := string(domain.RoleAssistant)
				if d.Role != nil && *d.Role != "" {
					role = *d.Role
				}
				fmt.Fprintf(l.out, "%s:\n\n", role)
				header = true
			}
			if d.Content != nil {
				fmt.Fprint(l.out, *d.Content)
			}
		}
	}
	if header {
		fmt.Fprintln(l.out)
	}

	if err := stream.Err(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(l.out, err)
		}
		return
	}
	if l.session.PersistContext() {
		services.KeepStreamed(mode, content, batches)
		logger.Debug("kept streamed reply (%d fragments)", len(batches))
	}
}
