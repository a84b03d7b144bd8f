package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchOnce bool

// watchCmd prints the slot whenever another process rewrites it.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the slot file each time it changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return watchSlot(ctx, cfg.Location().Path(), cmd.OutOrStdout(), watchOnce)
	},
}

// watchSlot watches the slot's directory and re-renders the slot after each
// burst of events on it. The directory must exist.
func watchSlot(ctx context.Context, path string, out io.Writer, once bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if err := renderSlot(out, path); err != nil {
		fmt.Fprintf(out, "unreadable: %v\n", err)
	}

	// Host writes land as truncate+write pairs; wait for a short quiet period.
	const settle = 100 * time.Millisecond
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", zap.Error(err))
		case <-timer.C:
			if err := renderSlot(out, path); err != nil {
				fmt.Fprintf(out, "unreadable: %v\n", err)
			}
			if once {
				return nil
			}
		}
	}
}
