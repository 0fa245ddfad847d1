// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/antlrgen/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// optionList collects repeated -O flags.
type optionList []string

func (o *optionList) String() string { return strings.Join(*o, ",") }

func (o *optionList) Set(v string) error {
	*o = append(*o, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("antlrgen", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
antlrgen - Compiles ANTLR v3 grammars into a mirrored source tree.

Usage:
  antlrgen [options] [generate|clean|watch]

Commands:
  generate  Compile every directory holding .g/.g3 files (default).
  clean     Remove the output directory.
  watch     Generate, then regenerate whenever a grammar changes.

Options:
`)
		flagSet.PrintDefaults()
	}

	var opts optionList
	projectFlag := flagSet.String("project", ".", "Project root directory.")
	pFlag := flagSet.String("p", "", "Project root directory (shorthand).")
	configFlag := flagSet.String("config", "", "Project file. Defaults to antlrgen.hcl in the project root.")
	srcFlag := flagSet.String("src", "", "Grammar source directory, overrides the project file.")
	outFlag := flagSet.String("out", "", "Generated source directory, overrides the project file.")
	flagSet.Var(&opts, "O", "Compiler option override as key=value. Repeatable.")
	collectAllFlag := flagSet.Bool("collect-all", false, "Compile every unit and report all failures instead of stopping at the first.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server in watch mode. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("too many arguments: %s", strings.Join(flagSet.Args(), " "))}
	}
	command := flagSet.Arg(0)

	projectDir := *projectFlag
	if *pFlag != "" {
		projectDir = *pFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Command:         command,
		ProjectDir:      projectDir,
		ConfigPath:      *configFlag,
		SourceDir:       *srcFlag,
		OutputDir:       *outFlag,
		Options:         opts,
		CollectAll:      *collectAllFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
