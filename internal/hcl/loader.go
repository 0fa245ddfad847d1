// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/antlrgen/internal/config"
	"github.com/specialistvlad/antlrgen/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// projectFile is the top-level structure of a project file.
type projectFile struct {
	Antlr *antlrBlock `hcl:"antlr,block"`
	Tool  *toolBlock  `hcl:"tool,block"`
}

type antlrBlock struct {
	SourceDirectory *string       `hcl:"source-directory,optional"`
	OutputDirectory *string       `hcl:"output-directory,optional"`
	CompilerOptions *optionsBlock `hcl:"compiler-options,block"`
}

type optionsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type toolBlock struct {
	Command      []string `hcl:"command,optional"`
	LibDirectory *string  `hcl:"lib-directory,optional"`
}

// Loader reads antlrgen.hcl project files.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, root, path string) (*config.Project, error) {
	logger := ctxlog.FromContext(ctx)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, config.DefaultProjectFile)
	}

	project := config.DefaultProject(root)
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			logger.Debug("No project file found, using defaults.", "path", path)
			return project, nil
		}
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}
	if err := l.decode(src, path, project); err != nil {
		return nil, err
	}

	logger.Debug("Project file loaded.",
		"path", path,
		"source", project.SourceDirectory,
		"output", project.OutputDirectory,
		"options", len(project.CompilerOptions),
	)
	return project, nil
}

// decode parses src and applies whatever it sets onto project. A fresh
// parser is used every time because hclparse caches files by name.
func (l *Loader) decode(src []byte, filename string, project *config.Project) error {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var parsed projectFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	if a := parsed.Antlr; a != nil {
		if a.SourceDirectory != nil {
			project.SourceDirectory = *a.SourceDirectory
		}
		if a.OutputDirectory != nil {
			project.OutputDirectory = *a.OutputDirectory
		}
		if a.CompilerOptions != nil {
			opts, err := evalAttributes(a.CompilerOptions.Body)
			if err != nil {
				return fmt.Errorf("invalid compiler-options in %s: %w", filename, err)
			}
			project.CompilerOptions = opts
		}
	}

	if t := parsed.Tool; t != nil {
		project.Tool.Command = t.Command
		if t.LibDirectory != nil {
			project.Tool.LibDirectory = project.Resolve(*t.LibDirectory)
		}
	}
	return nil
}

// evalAttributes evaluates every attribute of body as a constant.
func evalAttributes(body hcl.Body) (map[string]cty.Value, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]cty.Value, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		out[name] = val
	}
	return out, nil
}
