// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"fmt"

	"github.com/specialistvlad/antlrgen/internal/options"
)

// Commands understood by App.Run.
const (
	CommandGenerate = "generate"
	CommandClean    = "clean"
	CommandWatch    = "watch"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command    string
	ProjectDir string
	ConfigPath string // project file; empty means antlrgen.hcl in ProjectDir

	// SourceDir and OutputDir override the project file. Relative values
	// are resolved against ProjectDir.
	SourceDir string
	OutputDir string
	// Options are raw key=value compiler option overrides. They win over
	// the project file.
	Options    []string
	CollectAll bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case "":
		cfg.Command = CommandGenerate
	case CommandGenerate, CommandClean, CommandWatch:
	default:
		return nil, fmt.Errorf("unknown command %q: must be one of %s, %s, %s", cfg.Command, CommandGenerate, CommandClean, CommandWatch)
	}

	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}

	// Malformed overrides are rejected here; unknown keys are rejected when
	// the options are merged.
	if _, err := options.ParseOverrides(cfg.Options); err != nil {
		return nil, err
	}

	if cfg.HealthcheckPort < 0 {
		return nil, fmt.Errorf("healthcheck port must not be negative")
	}
	return &cfg, nil
}
