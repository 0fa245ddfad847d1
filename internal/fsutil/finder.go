// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package fsutil discovers grammar sources on disk. A directory qualifies as a
// compilation unit when at least one of its direct children is a file whose
// extension belongs to an ExtensionSet.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExtensionSet is a case-sensitive set of file extensions without the
// leading dot.
type ExtensionSet map[string]struct{}

// GrammarExtensions are the recognised grammar source suffixes.
var GrammarExtensions = NewExtensionSet("g", "g3")

// NewExtensionSet builds an ExtensionSet from the given extensions.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, e := range exts {
		if e == "" || strings.HasPrefix(e, ".") {
			panic(fmt.Sprintf("fsutil: invalid extension %q", e))
		}
		set[e] = struct{}{}
	}
	return set
}

// Matches reports whether name ends in one of the set's extensions. The
// extension is whatever follows the last dot; a name without a dot never
// matches.
func (s ExtensionSet) Matches(name string) bool {
	ext, ok := extensionOf(name)
	if !ok {
		return false
	}
	_, found := s[ext]
	return found
}

// Sorted returns the extensions in lexical order.
func (s ExtensionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func extensionOf(name string) (string, bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", false
	}
	return name[i+1:], true
}

// SourceFile is a grammar file found directly inside a unit directory.
type SourceFile struct {
	Name string
	Dir  string
	Ext  string
}

// ListSubdirectories returns root and every directory below it, depth-first
// with parents ahead of their children. Siblings follow os.ReadDir order.
// Symbolic links to directories are followed and listed under the link's
// path, so a directory reachable through a link appears once per path. A
// link leading back into one of its own ancestors is skipped.
func ListSubdirectories(root string) ([]string, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	ancestors := make(map[string]struct{})
	var dirs []string
	if err := walkDirs(root, ancestors, &dirs); err != nil {
		return nil, err
	}
	return dirs, nil
}

// walkDirs keeps the resolved paths of the directories on the current
// descent in ancestors.
func walkDirs(dir string, ancestors map[string]struct{}, dirs *[]string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if _, onPath := ancestors[resolved]; onPath {
		return nil
	}
	ancestors[resolved] = struct{}{}
	defer delete(ancestors, resolved)
	*dirs = append(*dirs, dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, e := range entries {
		child := filepath.Join(dir, e.Name())
		if !isDir(child, e) {
			continue
		}
		if err := walkDirs(child, ancestors, dirs); err != nil {
			return err
		}
	}
	return nil
}

// isDir resolves symlinks so a link to a directory counts as a directory.
// A dangling link is neither a directory nor a file.
func isDir(path string, e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink == 0 {
		return e.IsDir()
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string, e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink == 0 {
		return e.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// HasQualifyingFile reports whether dir directly contains a file matching exts.
func HasQualifyingFile(dir string, exts ExtensionSet) (bool, error) {
	files, err := FilesOfType(dir, exts)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// QualifyingDirectories returns, in ListSubdirectories order, every directory
// under root (root included) that directly holds at least one matching file.
// An empty result is not an error.
func QualifyingDirectories(root string, exts ExtensionSet) ([]string, error) {
	if len(exts) == 0 {
		panic("fsutil: extension set must not be empty")
	}
	dirs, err := ListSubdirectories(root)
	if err != nil {
		return nil, err
	}

	var units []string
	for _, d := range dirs {
		ok, err := HasQualifyingFile(d, exts)
		if err != nil {
			return nil, err
		}
		if ok {
			units = append(units, d)
		}
	}
	return units, nil
}

// FilesOfType lists the matching files directly inside dir. Subdirectories
// are not searched.
func FilesOfType(dir string, exts ExtensionSet) ([]SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []SourceFile
	for _, e := range entries {
		if !exts.Matches(e.Name()) || !isFile(filepath.Join(dir, e.Name()), e) {
			continue
		}
		ext, _ := extensionOf(e.Name())
		files = append(files, SourceFile{Name: e.Name(), Dir: dir, Ext: ext})
	}
	return files, nil
}
