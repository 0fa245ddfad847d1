// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/specialistvlad/antlrgen/internal/options"
	"github.com/specialistvlad/antlrgen/internal/tool"
)

// FakeCall records one FakeTool.Process invocation.
type FakeCall struct {
	InputDir  string
	OutputDir string
	Files     []string
	Settings  options.Settings
}

// FakeTool is an in-process tool.Tool. For each grammar it writes
// <Name>Parser.java into the output directory, unless the grammar is listed
// in Failures, in which case it adds that many errors instead. Like the real
// compiler, the error count survives across Process calls until reset.
type FakeTool struct {
	// Failures maps a grammar file name to the number of errors it produces.
	Failures map[string]int
	// RunErr is returned from Process when set.
	RunErr error

	mu        sync.Mutex
	settings  options.Settings
	inputDir  string
	outputDir string
	files     []string
	errCount  int
	resets    int
	calls     []FakeCall
}

var _ tool.Tool = (*FakeTool)(nil)

func (f *FakeTool) Configure(s options.Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = s
}

func (f *FakeTool) SetInputDirectory(dir string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputDir = dir
}

func (f *FakeTool) SetOutputDirectory(dir string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputDir = dir
}

func (f *FakeTool) SetGrammarFiles(names []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append([]string(nil), names...)
}

func (f *FakeTool) Process(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, FakeCall{
		InputDir:  f.inputDir,
		OutputDir: f.outputDir,
		Files:     append([]string(nil), f.files...),
		Settings:  f.settings,
	})
	if f.RunErr != nil {
		return f.RunErr
	}

	for _, name := range f.files {
		if n := f.Failures[name]; n > 0 {
			f.errCount += n
			continue
		}
		if _, err := os.Stat(filepath.Join(f.inputDir, name)); err != nil {
			return err
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		out := filepath.Join(f.outputDir, base+"Parser.java")
		if err := os.WriteFile(out, []byte(fmt.Sprintf("// generated from %s\n", name)), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeTool) ErrorCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errCount
}

func (f *FakeTool) ResetErrorState() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errCount = 0
	f.resets++
}

// Calls returns the recorded Process invocations.
func (f *FakeTool) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// Resets returns how many times ResetErrorState was called.
func (f *FakeTool) Resets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}
