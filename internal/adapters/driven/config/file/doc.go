// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the palaver directory (~/.palaver).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt files with embedded defaults
//   - PromptWatcher: reloads the PromptStore when prompt files change
package file

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the name of the palaver directory under the user's home.
const DirName = ".palaver"

// DefaultDir returns ~/.palaver.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}
