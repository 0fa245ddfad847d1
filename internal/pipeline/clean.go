// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/antlrgen/internal/ctxlog"
)

// CleanFunc is a host clean operation.
type CleanFunc func(ctx context.Context) error

// WrapClean returns a clean operation that runs orig and then removes
// outputRoot. The removal happens even when orig fails or panics. Errors
// from both are returned joined.
func WrapClean(orig CleanFunc, outputRoot string) CleanFunc {
	return func(ctx context.Context) (err error) {
		defer func() {
			if rmErr := RemoveOutput(ctx, outputRoot); rmErr != nil {
				err = errors.Join(err, rmErr)
			}
		}()
		if orig != nil {
			err = orig(ctx)
		}
		return err
	}
}

// RemoveOutput deletes outputRoot and everything below it. A missing
// directory is not an error. A file-system root is never removed.
func RemoveOutput(ctx context.Context, outputRoot string) error {
	logger := ctxlog.FromContext(ctx)

	clean := filepath.Clean(outputRoot)
	if outputRoot == "" || clean == "." || clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return fmt.Errorf("refusing to remove output directory %q", outputRoot)
	}

	if _, err := os.Lstat(clean); errors.Is(err, os.ErrNotExist) {
		logger.Debug("Output directory already absent.", "output", clean)
		return nil
	}
	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("failed to remove output directory %s: %w", clean, err)
	}
	logger.Info("Output directory removed.", "output", clean)
	return nil
}
