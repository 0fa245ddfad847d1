// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package pipeline ties discovery, path mapping and unit compilation into
// the generate step, and composes the clean step.
//
// Every run rediscovers and recompiles every unit; there is no incremental
// skipping. Units run one at a time in discovery order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/specialistvlad/antlrgen/internal/compiler"
	"github.com/specialistvlad/antlrgen/internal/ctxlog"
	"github.com/specialistvlad/antlrgen/internal/fsutil"
	"github.com/specialistvlad/antlrgen/internal/options"
	"github.com/specialistvlad/antlrgen/internal/pathmap"
)

// Options tunes a Pipeline.
type Options struct {
	// Extensions overrides fsutil.GrammarExtensions.
	Extensions fsutil.ExtensionSet
	// CollectAll keeps compiling after a unit fails and reports every
	// failing unit at the end. The default stops at the first failure.
	CollectAll bool
}

// UnitReport describes one compiled unit.
type UnitReport struct {
	Input  string
	Output string
	Files  []string
	Errors int
}

// Report lists the units a run processed, in order.
type Report struct {
	Units []UnitReport
}

// Empty reports whether no unit was found.
func (r *Report) Empty() bool {
	return len(r.Units) == 0
}

// MultiUnitError aggregates failing units when Options.CollectAll is set.
type MultiUnitError struct {
	Failures []*compiler.GrammarCompilationError
}

func (e *MultiUnitError) Error() string {
	dirs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		dirs = append(dirs, f.Dir)
	}
	return fmt.Sprintf("%d grammar error(s) detected in %d unit(s): %s",
		e.TotalErrors(), len(e.Failures), strings.Join(dirs, ", "))
}

// TotalErrors sums the error counts of all failing units.
func (e *MultiUnitError) TotalErrors() int {
	n := 0
	for _, f := range e.Failures {
		n += f.Count
	}
	return n
}

// Unwrap exposes the per-unit errors to errors.Is and errors.As.
func (e *MultiUnitError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f)
	}
	return out
}

// Pipeline is the generate step.
type Pipeline struct {
	compiler *compiler.Compiler
	opts     Options
}

// New returns a Pipeline compiling through c.
func New(c *compiler.Compiler, opts Options) *Pipeline {
	if len(opts.Extensions) == 0 {
		opts.Extensions = fsutil.GrammarExtensions
	}
	return &Pipeline{compiler: c, opts: opts}
}

// Units discovers the units under srcRoot and pairs each with its mirrored
// directory under destRoot.
func (p *Pipeline) Units(srcRoot, destRoot string) (inputs, outputs []string, err error) {
	inputs, err = fsutil.QualifyingDirectories(srcRoot, p.opts.Extensions)
	if err != nil {
		return nil, nil, err
	}
	outputs = pathmap.Resolve(destRoot, pathmap.MustRelativize(srcRoot, inputs))
	return inputs, outputs, nil
}

// Run compiles every unit under srcRoot into the mirrored tree under
// destRoot. A missing source root is treated like an empty one. Output of
// units compiled before a failure is left in place.
func (p *Pipeline) Run(ctx context.Context, srcRoot, destRoot string, cfg *options.Config) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	report := &Report{}

	inputs, outputs, err := p.Units(srcRoot, destRoot)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Source directory does not exist, nothing to do.", "source", srcRoot)
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("failed to scan source directory %s: %w", srcRoot, err)
	}
	if len(inputs) == 0 {
		logger.Info("No grammar files found, nothing to do.", "source", srcRoot)
		return report, nil
	}
	logger.Debug("Units discovered.", "count", len(inputs), "source", srcRoot, "output", destRoot)

	var failures []*compiler.GrammarCompilationError
	for i, in := range inputs {
		res, err := p.compiler.CompileUnit(ctx, in, outputs[i], cfg)
		report.Units = append(report.Units, UnitReport{
			Input:  in,
			Output: outputs[i],
			Files:  res.FileNames(),
			Errors: res.ErrorCount,
		})
		if err == nil {
			continue
		}

		var gce *compiler.GrammarCompilationError
		if !p.opts.CollectAll || !errors.As(err, &gce) {
			return report, err
		}
		failures = append(failures, gce)
	}

	if len(failures) > 0 {
		return report, &MultiUnitError{Failures: failures}
	}
	logger.Info("Grammar generation finished.", "units", len(report.Units))
	return report, nil
}
