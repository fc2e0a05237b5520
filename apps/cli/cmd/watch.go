package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/rester/packages/core/loop"
	"github.com/abdul-hamid-achik/rester/packages/core/runner"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// WatchDebounceDelay is the debounce delay for file watch events
const WatchDebounceDelay = 300 * time.Millisecond

// watch runs the document once, then again after every change to a
// Restfile next to it. A change supersedes the run in flight. Only a
// signal ends it, so it always reports failure.
func watch(
	ctx context.Context,
	cmd *cobra.Command,
	path string,
	sup *runner.Supervisor[loop.Summary],
	execute func(context.Context) (loop.Summary, error),
	log *logrus.Entry,
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	sup.Run(ctx, execute)
	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		sup.Cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return errRequestsFailed

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) || !isRestfile(event.Name) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			name := event.Name
			debounce = time.AfterFunc(WatchDebounceDelay, func() {
				if ctx.Err() != nil {
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running...\n\n", name)
				sup.Run(ctx, execute)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("file watcher error")
		}
	}
}

func isRestfile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}
