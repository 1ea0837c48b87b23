// Package domain defines the core conversational entities for Palaver.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Turn: One role-tagged utterance in a conversation
//   - Conversation: An append-only log of turns shared between modes
//   - PromptTransform: A composable rewrite applied to user input
//   - Mode: The active completion modality and its configuration
//   - Result: One normalised upstream choice
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
