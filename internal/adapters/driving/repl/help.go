package repl

// Help is printed at startup and for -h.
const Help = `Palaver is a small chat client for OpenAI-compatible APIs.
Enter a message and finish it with an empty line.
Commands:
'-l' to list all available models
'-c <model_name>' to complete with a custom model (some listed models may not be usable)
'code' to start code completion mode
'chat' to start chatting
'explain' to explain a piece of code
'-h' to show this help
'q' to quit`

// InvalidFormat is printed for a malformed command.
const InvalidFormat = "invalid format. Please check your input"
