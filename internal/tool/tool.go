// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package tool defines the contract with the external grammar compiler and
// provides an implementation that drives an ANTLR v3 command line.
//
// A Tool is stateful: settings, the file list and the diagnostic counter all
// live on it between calls. It is not safe for concurrent use, and its error
// count keeps growing until ResetErrorState is called.
package tool

import (
	"context"

	"github.com/specialistvlad/antlrgen/internal/options"
)

// Tool is the grammar compiler as seen by the unit compiler.
type Tool interface {
	// Configure applies a merged option set.
	Configure(s options.Settings)
	// SetInputDirectory sets the directory the grammar files are read from.
	SetInputDirectory(dir string)
	// SetOutputDirectory sets where generated sources are written.
	SetOutputDirectory(dir string)
	// SetGrammarFiles sets the grammar file names, relative to the input directory.
	SetGrammarFiles(names []string)
	// Process compiles the configured grammars. A returned error means the
	// tool could not run at all; grammar problems are reported through
	// ErrorCount instead.
	Process(ctx context.Context) error
	// ErrorCount is the number of diagnostics since the last reset.
	ErrorCount() int
	// ResetErrorState clears the diagnostic counter.
	ResetErrorState()
}
