// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the generate, clean and watch lifecycles,
// decoupled from any specific entrypoint like a CLI or a host build tool.
package app
