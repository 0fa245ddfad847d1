// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/specialistvlad/antlrgen/internal/ctxlog"
	"github.com/specialistvlad/antlrgen/internal/options"
)

// DefaultCommand runs the ANTLR v3 tool from the Java class path.
var DefaultCommand = []string{"java", "org.antlr.Tool"}

// ExecTool runs the grammar compiler as a child process, one process per
// Process call. Each option maps to one command-line switch.
type ExecTool struct {
	// Command is the program and leading arguments; defaults to DefaultCommand.
	Command []string
	// LibDirectory, when set, is passed as -lib.
	LibDirectory string
	// Stdout and Stderr receive the tool's output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	settings  options.Settings
	inputDir  string
	outputDir string
	files     []string
	errCount  int
}

var _ Tool = (*ExecTool)(nil)

// NewExecTool returns an ExecTool with the default settings applied.
func NewExecTool(command []string, libDir string, stdout, stderr io.Writer) *ExecTool {
	t := &ExecTool{Command: command, LibDirectory: libDir, Stdout: stdout, Stderr: stderr}
	t.Configure(options.MustDefault().Settings())
	return t
}

func (t *ExecTool) Configure(s options.Settings) { t.settings = s }
func (t *ExecTool) SetInputDirectory(dir string)  { t.inputDir = dir }
func (t *ExecTool) SetOutputDirectory(dir string) { t.outputDir = dir }
func (t *ExecTool) SetGrammarFiles(names []string) {
	t.files = append([]string(nil), names...)
}
func (t *ExecTool) ErrorCount() int  { return t.errCount }
func (t *ExecTool) ResetErrorState() { t.errCount = 0 }

// Args returns the switches derived from the current settings, followed by
// the output directory, the optional library directory, and the grammar files.
func (t *ExecTool) Args() ([]string, error) {
	var args []string
	s := t.settings
	flag := func(on bool, name string) {
		if on {
			args = append(args, name)
		}
	}
	flag(s.Debug, "-debug")
	flag(s.Trace, "-trace")
	flag(s.DFADotOutput, "-dfa")
	flag(s.NFADotOutput, "-nfa")
	if s.MessageFormat != "" {
		args = append(args, "-message-format", s.MessageFormat)
	}
	flag(s.Verbose, "-verbose")
	if s.MaxSwitchCaseLabels > 0 {
		args = append(args, "-Xmaxswitchcaselabels", strconv.Itoa(s.MaxSwitchCaseLabels))
	}
	flag(s.PrintGrammar, "-print")
	flag(s.Report, "-report")
	flag(s.Profile, "-profile")

	if t.outputDir != "" {
		// The child runs inside the input directory, so -o must not be relative.
		out, err := filepath.Abs(t.outputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve output directory %s: %w", t.outputDir, err)
		}
		args = append(args, "-o", out)
	}
	if t.LibDirectory != "" {
		lib, err := filepath.Abs(t.LibDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve lib directory %s: %w", t.LibDirectory, err)
		}
		args = append(args, "-lib", lib)
	}
	return append(args, t.files...), nil
}

// Process runs the tool once. Diagnostic lines in its output are added to
// the error count; a failing exit status with no recognised diagnostic
// counts as a single error.
func (t *ExecTool) Process(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	command := t.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	args, err := t.Args()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, command[0], append(append([]string(nil), command[1:]...), args...)...)
	cmd.Dir = t.inputDir

	var mu sync.Mutex
	stdout := newDiagnosticCounter(&mu, t.Stdout)
	stderr := newDiagnosticCounter(&mu, t.Stderr)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Debug("Running grammar compiler.", "command", command[0], "args", args, "dir", t.inputDir)
	runErr := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	found := stdout.count + stderr.count
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case errors.As(runErr, &exitErr):
		logger.Debug("Grammar compiler exited with failure.", "exit_code", exitErr.ExitCode(), "diagnostics", found)
		if found == 0 {
			found = 1
		}
	default:
		return fmt.Errorf("failed to run grammar compiler %q: %w", command[0], runErr)
	}

	t.errCount += found
	return nil
}

var (
	gnuError    = regexp.MustCompile(`:\d+:\d+: error\b`)
	vs2005Error = regexp.MustCompile(`\(\d+,\d+\) : error\b`)
)

// IsDiagnostic reports whether an output line is an error message in one of
// the tool's message formats (antlr, gnu, vs2005). Warnings and any other
// output, such as a printed grammar, are not diagnostics.
func IsDiagnostic(line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "warning"):
		return false
	case strings.HasPrefix(line, "error(") || strings.HasPrefix(line, "error:"):
		return true
	}
	return gnuError.MatchString(line) || vs2005Error.MatchString(line)
}

// diagnosticCounter forwards output and counts complete diagnostic lines.
type diagnosticCounter struct {
	mu    *sync.Mutex
	w     io.Writer
	buf   bytes.Buffer
	count int
}

func newDiagnosticCounter(mu *sync.Mutex, w io.Writer) *diagnosticCounter {
	if w == nil {
		w = io.Discard
	}
	return &diagnosticCounter{mu: mu, w: w}
}

func (d *diagnosticCounter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf.Write(p)
	for {
		line, err := d.buf.ReadString('\n')
		if err != nil {
			// Incomplete line: keep it for the next write.
			d.buf.Reset()
			d.buf.WriteString(line)
			break
		}
		if IsDiagnostic(line) {
			d.count++
		}
	}
	if _, err := d.w.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush counts a trailing line that had no newline.
func (d *diagnosticCounter) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buf.Len() > 0 && IsDiagnostic(d.buf.String()) {
		d.count++
	}
	d.buf.Reset()
}
