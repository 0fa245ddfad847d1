// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/specialistvlad/antlrgen/internal/ctxlog"
	"github.com/specialistvlad/antlrgen/internal/watch"
)

// Watch generates once, then regenerates every time a grammar changes
// until ctx is cancelled. A failing generation does not stop watching.
func (a *App) Watch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	project, err := a.loadProject(ctx)
	if err != nil {
		return err
	}
	// generate treats a missing source directory as empty, but there is
	// nothing to subscribe to until it exists.
	src := project.SourceRoot()
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot watch: source directory does not exist: %s", a.display(project, src))
	}

	a.startHealthcheckServer(ctx)
	defer func() {
		if err := a.closeHealthcheckServer(ctx); err != nil {
			logger.Warn("Health check server did not shut down cleanly.", "error", err)
		}
	}()

	regenerate := func(ctx context.Context) error {
		err := a.Generate(ctx)
		a.recordGeneration(err)
		return err
	}
	if err := regenerate(ctx); err != nil {
		logger.Error("Initial generation failed.", "error", err)
	}

	w := &watch.Watcher{}
	return w.Run(ctx, src, regenerate)
}

func (a *App) recordGeneration(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generated++
	a.lastErr = err
}

// status returns the number of generations so far and the last error.
func (a *App) status() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generated, a.lastErr
}
