package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/umputun/livecheck/pkg/progress"
)

// watchDebounce collapses the burst of events an editor produces on save.
const watchDebounce = 500 * time.Millisecond

// watchLogger is the subset of the logger used by the watcher.
type watchLogger interface {
	SetPhase(phase progress.Phase)
	Print(format string, args ...any)
	Warn(format string, args ...any)
}

// watchCatalog calls rerun every time the catalog file changes, until ctx is canceled or rerun fails.
// the directory is watched rather than the file, editors often replace the file on save.
func watchCatalog(ctx context.Context, fname string, log watchLogger, rerun func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(fname)
	if err != nil {
		return fmt.Errorf("resolve catalog path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	log.SetPhase(progress.PhaseSetup)
	log.Print("watching %s for changes", fname)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(watchDebounce)
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher: %v", werr)
		case <-timer.C:
			log.SetPhase(progress.PhaseSetup)
			log.Print("%s changed, rerunning", fname)
			if err := rerun(); err != nil {
				return err
			}
		}
	}
}
