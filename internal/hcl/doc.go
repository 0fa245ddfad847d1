// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package hcl provides the HCL implementation of config.Loader. It parses
// the project file, decodes the antlr and tool blocks, and evaluates the
// compiler option attributes into cty values.
package hcl
