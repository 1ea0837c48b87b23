// Package services implements the driving port interfaces.
// Services contain the session engine and orchestrate calls to driven
// ports (adapters).
//
// Services are pure Go with no external dependencies beyond logging ids.
package services
