// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package pathmap mirrors a set of directories found under one root onto a
// different root. A directory is first reduced to a Token describing where it
// sits relative to its root, and the Token is later resolved against the
// destination root. Nothing in this package touches the file system.
package pathmap

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidPathRelation is returned when a directory handed to Relativize
// does not live under the given root.
var ErrInvalidPathRelation = errors.New("path is not under root")

// Token is the platform-independent location of a directory relative to a
// root. The zero Token denotes the root itself.
type Token struct {
	segments []string
}

// IsRoot reports whether the token denotes the root itself.
func (t Token) IsRoot() bool {
	return len(t.segments) == 0
}

// Segments returns a copy of the path segments below the root.
func (t Token) Segments() []string {
	return append([]string(nil), t.segments...)
}

// String renders the token with forward slashes on every platform. The root
// token renders as the empty string.
func (t Token) String() string {
	return path.Join(t.segments...)
}

// Relativize computes a Token for each child relative to root. Every child
// must be root itself or one of its descendants.
func Relativize(root string, children []string) ([]Token, error) {
	cleanRoot := filepath.Clean(root)
	tokens := make([]Token, 0, len(children))
	for _, child := range children {
		rel, err := filepath.Rel(cleanRoot, filepath.Clean(child))
		if err != nil {
			return nil, fmt.Errorf("%w: %s (root %s): %v", ErrInvalidPathRelation, child, root, err)
		}
		if rel == "." {
			tokens = append(tokens, Token{})
			continue
		}
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s (root %s)", ErrInvalidPathRelation, child, root)
		}
		tokens = append(tokens, Token{segments: strings.Split(rel, string(filepath.Separator))})
	}
	return tokens, nil
}

// MustRelativize is like Relativize but panics when a child escapes root.
// Callers use it where the children were discovered by walking root, so a
// failure can only mean a bug.
func MustRelativize(root string, children []string) []Token {
	tokens, err := Relativize(root, children)
	if err != nil {
		panic(err)
	}
	return tokens
}

// Resolve places every token under newRoot. The root token resolves to
// newRoot unchanged. No directories are created.
func Resolve(newRoot string, tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.IsRoot() {
			out = append(out, newRoot)
			continue
		}
		out = append(out, filepath.Join(append([]string{newRoot}, t.segments...)...))
	}
	return out
}
