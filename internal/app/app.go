// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/specialistvlad/antlrgen/internal/compiler"
	"github.com/specialistvlad/antlrgen/internal/config"
	"github.com/specialistvlad/antlrgen/internal/ctxlog"
	"github.com/specialistvlad/antlrgen/internal/options"
	"github.com/specialistvlad/antlrgen/internal/pipeline"
	"github.com/specialistvlad/antlrgen/internal/tool"
	"github.com/zclconf/go-cty/cty"
)

// ToolFactory builds the grammar compiler for a project. stdout and stderr
// receive the compiler's own output.
type ToolFactory func(spec config.ToolSpec, stdout, stderr io.Writer) tool.Tool

// DefaultToolFactory runs the compiler as a child process.
func DefaultToolFactory(spec config.ToolSpec, stdout, stderr io.Writer) tool.Tool {
	return tool.NewExecTool(spec.Command, spec.LibDirectory, stdout, stderr)
}

// Option customises an App.
type Option func(*App)

// WithToolFactory replaces the grammar compiler.
func WithToolFactory(f ToolFactory) Option {
	return func(a *App) { a.newTool = f }
}

// WithHostClean sets the host clean operation that the clean command runs
// before removing the output directory.
func WithHostClean(fn pipeline.CleanFunc) Option {
	return func(a *App) { a.hostClean = fn }
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	loader    config.Loader
	newTool   ToolFactory
	hostClean pipeline.CleanFunc

	mu         sync.Mutex
	lastErr    error
	generated  int
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Human-readable step
// output goes to outW, structured logs to logW.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader, opts ...Option) *App {
	a := &App{
		outW:    outW,
		logger:  newLogger(appConfig.LogLevel, appConfig.LogFormat, logW),
		config:  appConfig,
		loader:  loader,
		newTool: DefaultToolFactory,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger.Debug("Logger configured successfully.")
	return a
}

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	switch a.config.Command {
	case CommandClean:
		return a.Clean(ctx)
	case CommandWatch:
		return a.Watch(ctx)
	default:
		return a.Generate(ctx)
	}
}

// loadProject reads the project file and applies the command-line overrides.
func (a *App) loadProject(ctx context.Context) (*config.Project, error) {
	root, err := filepath.Abs(a.config.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory %s: %w", a.config.ProjectDir, err)
	}

	project, err := a.loader.Load(ctx, root, a.config.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.config.SourceDir != "" {
		project.SourceDirectory = a.config.SourceDir
	}
	if a.config.OutputDir != "" {
		project.OutputDirectory = a.config.OutputDir
	}
	return project, nil
}

// compilerOptions merges the project's options with the command-line ones.
func (a *App) compilerOptions(project *config.Project) (*options.Config, error) {
	overrides := make(map[string]cty.Value, len(project.CompilerOptions)+len(a.config.Options))
	for k, v := range project.CompilerOptions {
		overrides[k] = v
	}
	flags, err := options.ParseOverrides(a.config.Options)
	if err != nil {
		return nil, err
	}
	for k, v := range flags {
		overrides[k] = v
	}

	cfg, err := options.Merge(overrides)
	if err != nil {
		return nil, fmt.Errorf("invalid compiler options: %w", err)
	}
	return cfg, nil
}

// Generate discovers and compiles every grammar unit of the project.
func (a *App) Generate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	project, err := a.loadProject(ctx)
	if err != nil {
		return err
	}
	cfg, err := a.compilerOptions(project)
	if err != nil {
		return err
	}

	src, dst := project.SourceRoot(), project.OutputRoot()
	logger.Debug("Starting grammar generation.", "source", src, "output", dst)

	p := pipeline.New(
		compiler.New(a.newTool(project.Tool, a.outW, a.outW)),
		pipeline.Options{CollectAll: a.config.CollectAll},
	)
	report, err := p.Run(ctx, src, dst, cfg)
	a.printReport(project, report, err == nil)
	if err != nil {
		return fmt.Errorf("grammar generation failed: %w", err)
	}
	return nil
}

func (a *App) printReport(project *config.Project, report *pipeline.Report, ok bool) {
	if report == nil {
		return
	}
	if report.Empty() && ok {
		fmt.Fprintf(a.outW, "source directory is empty: %s\n", a.display(project, project.SourceRoot()))
		return
	}
	for _, u := range report.Units {
		fmt.Fprintf(a.outW, "%s -> %s\n", a.display(project, u.Input), a.display(project, u.Output))
		for _, f := range u.Files {
			fmt.Fprintf(a.outW, "  %s\n", f)
		}
	}
}

// display shortens path to be relative to the project root when possible.
func (a *App) display(project *config.Project, path string) string {
	rel, err := filepath.Rel(project.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// Clean runs the host clean operation, then removes the output directory.
func (a *App) Clean(ctx context.Context) error {
	project, err := a.loadProject(ctx)
	if err != nil {
		return err
	}
	out := project.OutputRoot()
	if err := checkOutputRoot(project.Root, project.SourceRoot(), out); err != nil {
		return err
	}
	return pipeline.WrapClean(a.hostClean, out)(ctx)
}

// checkOutputRoot rejects output directories whose removal would take the
// project or its grammars with it.
func checkOutputRoot(root, src, out string) error {
	out = filepath.Clean(out)
	if out == filepath.Clean(root) {
		return fmt.Errorf("refusing to clean: output directory %s is the project root", out)
	}
	rel, err := filepath.Rel(out, filepath.Clean(src))
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to clean: output directory %s contains the source directory %s", out, src)
	}
	return nil
}
