// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Transport: Sends chat, completion and streaming requests upstream
//
// # Optional Interfaces
//
// These can be nil - the application falls back to built-in defaults:
//
//   - ConfigStore: Persisted settings. Without it, defaults and environment apply.
//   - PromptStore: Editable prompt templates. Without it, embedded prompts apply.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
