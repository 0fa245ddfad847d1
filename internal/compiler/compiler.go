// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package compiler compiles one unit, a directory of grammar files, with
// the external grammar tool.
//
// The tool keeps a process-wide error counter, so the Compiler owns it
// exclusively: calls are serialised by a mutex and the counter is reset
// right before every unit. The count read back after Process therefore
// belongs to that unit alone.
package compiler

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/specialistvlad/antlrgen/internal/ctxlog"
	"github.com/specialistvlad/antlrgen/internal/fsutil"
	"github.com/specialistvlad/antlrgen/internal/options"
	"github.com/specialistvlad/antlrgen/internal/tool"
)

// GrammarCompilationError reports that the tool found errors in a unit.
type GrammarCompilationError struct {
	Dir   string
	Count int
}

func (e *GrammarCompilationError) Error() string {
	return fmt.Sprintf("%d grammar error(s) detected in %s", e.Count, e.Dir)
}

// Result is the outcome of one unit.
type Result struct {
	InputDir   string
	OutputDir  string
	Files      []fsutil.SourceFile
	ErrorCount int
	// Skipped is set when the directory held no grammar files and the tool
	// was never invoked.
	Skipped bool
}

// Succeeded reports whether the unit compiled without errors.
func (r Result) Succeeded() bool {
	return r.ErrorCount == 0
}

// FileNames returns the bare names of the unit's grammar files.
func (r Result) FileNames() []string {
	names := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		names = append(names, f.Name)
	}
	return names
}

// Compiler drives a tool.Tool one unit at a time.
type Compiler struct {
	mu         sync.Mutex
	tool       tool.Tool
	extensions fsutil.ExtensionSet
}

// New returns a Compiler that owns t. Grammar files are recognised by
// fsutil.GrammarExtensions unless exts is given.
func New(t tool.Tool, exts ...string) *Compiler {
	set := fsutil.GrammarExtensions
	if len(exts) > 0 {
		set = fsutil.NewExtensionSet(exts...)
	}
	return &Compiler{tool: t, extensions: set}
}

// CompileUnit compiles the grammar files directly inside inputDir into
// outputDir, creating outputDir when needed. A directory without grammar
// files is skipped. When the tool reports errors the returned error is a
// *GrammarCompilationError and the Result carries the same count.
func (c *Compiler) CompileUnit(ctx context.Context, inputDir, outputDir string, cfg *options.Config) (Result, error) {
	logger := ctxlog.FromContext(ctx).With("unit", inputDir)
	res := Result{InputDir: inputDir, OutputDir: outputDir}

	files, err := fsutil.FilesOfType(inputDir, c.extensions)
	if err != nil {
		return res, err
	}
	res.Files = files
	if len(files) == 0 {
		logger.Debug("No grammar files in unit, skipping.")
		res.Skipped = true
		return res, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tool.ResetErrorState()
	c.tool.Configure(cfg.Settings())
	c.tool.SetInputDirectory(inputDir)
	c.tool.SetOutputDirectory(outputDir)
	c.tool.SetGrammarFiles(res.FileNames())

	logger.Debug("Compiling unit.", "output", outputDir, "files", res.FileNames())
	if err := c.tool.Process(ctx); err != nil {
		return res, fmt.Errorf("failed to compile %s: %w", inputDir, err)
	}

	res.ErrorCount = c.tool.ErrorCount()
	if !res.Succeeded() {
		logger.Error("Grammar compilation failed.", "errors", res.ErrorCount)
		return res, &GrammarCompilationError{Dir: inputDir, Count: res.ErrorCount}
	}
	logger.Debug("Unit compiled.")
	return res, nil
}
