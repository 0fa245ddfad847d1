// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import (
	"context"
	"path/filepath"

	"github.com/zclconf/go-cty/cty"
)

const (
	// DefaultProjectFile is looked up in the project root when no file is given.
	DefaultProjectFile = "antlrgen.hcl"
	// DefaultSourceDirectory is scanned for grammars, relative to the project root.
	DefaultSourceDirectory = "src/antlr"
	// DefaultOutputDirectory receives the mirrored generated sources.
	DefaultOutputDirectory = "gen-src"
)

// Project is the configuration of one project.
type Project struct {
	// Root is the project directory every relative path is resolved against.
	Root string
	// SourceDirectory is the absolute or root-relative grammar root.
	SourceDirectory string
	// OutputDirectory is the absolute or root-relative output root.
	OutputDirectory string
	// CompilerOptions are overrides for the compiler option defaults. Keys
	// are validated later, when the options are merged.
	CompilerOptions map[string]cty.Value
	// Tool describes how to launch the grammar compiler.
	Tool ToolSpec
}

// ToolSpec describes the external compiler command.
type ToolSpec struct {
	// Command is the program and its leading arguments. Empty means the default.
	Command []string
	// LibDirectory is passed to the compiler for imported grammars.
	LibDirectory string
}

// DefaultProject returns the configuration used when no project file exists.
func DefaultProject(root string) *Project {
	return &Project{
		Root:            root,
		SourceDirectory: DefaultSourceDirectory,
		OutputDirectory: DefaultOutputDirectory,
		CompilerOptions: map[string]cty.Value{},
	}
}

// Resolve makes p relative to the project root.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, filepath.FromSlash(path))
}

// SourceRoot is the resolved source directory.
func (p *Project) SourceRoot() string {
	return p.Resolve(p.SourceDirectory)
}

// OutputRoot is the resolved output directory.
func (p *Project) OutputRoot() string {
	return p.Resolve(p.OutputDirectory)
}

// Loader reads a project configuration.
type Loader interface {
	// Load reads the project rooted at root. An empty path means
	// DefaultProjectFile inside root, which may be absent; an explicit path
	// must exist.
	Load(ctx context.Context, root, path string) (*Project, error)
}
