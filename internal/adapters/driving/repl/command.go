// Package repl provides the line-oriented interactive chat loop.
package repl

import "strings"

// CommandKind identifies what an input block asks for.
type CommandKind int

// Command kinds.
const (
	// CmdNone is a blank block; nothing happens.
	CmdNone CommandKind = iota
	// CmdQuit ends the loop.
	CmdQuit
	// CmdHelp prints the help banner.
	CmdHelp
	// CmdListModels prints the upstream model ids.
	CmdListModels
	// CmdCustomModel switches to completion against Arg.
	CmdCustomModel
	// CmdChat switches to plain chat.
	CmdChat
	// CmdExplain switches to explain chat.
	CmdExplain
	// CmdCode switches to code completion.
	CmdCode
	// CmdInvalid is a malformed command.
	CmdInvalid
	// CmdAsk sends Arg as content.
	CmdAsk
)

// Command is a parsed input block.
type Command struct {
	Kind CommandKind
	Arg  string
}

// Parse interprets a block of input. Commands match the whole block after
// trailing whitespace is removed; anything else is content.
func Parse(block string) Command {
	input := strings.TrimRight(block, " \t\r\n")
	if strings.TrimSpace(input) == "" {
		return Command{Kind: CmdNone}
	}

	switch input {
	case "q":
		return Command{Kind: CmdQuit}
	case "-h":
		return Command{Kind: CmdHelp}
	case "-l":
		return Command{Kind: CmdListModels}
	case "chat":
		return Command{Kind: CmdChat}
	case "explain":
		return Command{Kind: CmdExplain}
	case "code":
		return Command{Kind: CmdCode}
	}

	if rest, ok := strings.CutPrefix(input, "-c"); ok && !strings.Contains(rest, "\n") {
		model := strings.TrimSpace(rest)
		if model == "" {
			return Command{Kind: CmdInvalid}
		}
		return Command{Kind: CmdCustomModel, Arg: model}
	}

	return Command{Kind: CmdAsk, Arg: input}
}
