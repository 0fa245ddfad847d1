// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package watch re-runs a callback whenever grammar sources change under a
// directory tree. Events are debounced so a burst of saves triggers one run.
package watch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/antlrgen/internal/ctxlog"
	"github.com/specialistvlad/antlrgen/internal/fsutil"
)

// DefaultDebounce is the quiet period before a change triggers a run.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a source tree.
type Watcher struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Extensions selects relevant files; defaults to fsutil.GrammarExtensions.
	Extensions fsutil.ExtensionSet
}

// Run watches root until ctx is done, calling onChange after each burst of
// relevant events. Errors returned by onChange are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context, root string, onChange func(context.Context) error) error {
	logger := ctxlog.FromContext(ctx).With("root", root)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	exts := w.Extensions
	if len(exts) == 0 {
		exts = fsutil.GrammarExtensions
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := addTree(fw, root); err != nil {
		return err
	}
	logger.Info("Watching for grammar changes.", "extensions", exts.Sorted())

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(fw, ev, exts) {
				continue
			}
			logger.Debug("Change detected.", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)

		case <-fire:
			fire = nil
			if err := onChange(ctx); err != nil {
				logger.Error("Regeneration failed.", "error", err)
			}
		}
	}
}

// relevant reports whether ev should trigger a run. New directories are
// added to the watch set and count as a change, since they may already
// hold grammars.
func (w *Watcher) relevant(fw *fsnotify.Watcher, ev fsnotify.Event, exts fsutil.ExtensionSet) bool {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = addTree(fw, ev.Name)
			return true
		}
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}
	// A removed or renamed directory cannot be told apart from a file any
	// more, so any removal counts.
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		return true
	}
	return exts.Matches(ev.Name)
}

func addTree(fw *fsnotify.Watcher, root string) error {
	dirs, err := fsutil.ListSubdirectories(root)
	if err != nil {
		return fmt.Errorf("failed to list directories under %s: %w", root, err)
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}
	return nil
}
