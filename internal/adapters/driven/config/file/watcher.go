package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/palaver/internal/core/ports/driven"
	"github.com/custodia-labs/palaver/internal/logger"
)

// PromptWatcher reloads a prompt store when files in its directory change.
type PromptWatcher struct {
	store    driven.PromptStore
	dir      string
	watcher  *fsnotify.Watcher
	onChange func(name string)
}

// NewPromptWatcher watches dir and reloads store on prompt edits.
// onChange, when set, receives the name of each changed prompt.
// The directory must exist; PromptStore.Load creates it.
func NewPromptWatcher(store driven.PromptStore, dir string, onChange func(name string)) (*PromptWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &PromptWatcher{
		store:    store,
		dir:      dir,
		watcher:  w,
		onChange: onChange,
	}, nil
}

// Run handles events until ctx is done or the watcher is closed.
func (w *PromptWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

// Close stops watching.
func (w *PromptWatcher) Close() error {
	return w.watcher.Close()
}

// handleEvent reloads the store for prompt file changes and reports whether
// it did.
func (w *PromptWatcher) handleEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || filepath.Ext(base) != promptExt {
		return false
	}

	name := strings.TrimSuffix(base, promptExt)
	logger.Debug("prompt %q changed (%s), reloading", name, event.Op)
	w.store.Reload()
	if w.onChange != nil {
		w.onChange(name)
	}
	return true
}
