// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package options holds the closed set of grammar compiler options, their
// defaults, and the merge of user overrides on top of those defaults.
//
// Option values travel as cty.Value so they can come straight out of an HCL
// project file or a command-line expression. Each key owns one typed setter
// that writes into Settings, which is what a tool.Tool is configured with.
package options

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Key names one compiler option.
type Key string

const (
	Debug               Key = "debug"
	Trace               Key = "trace"
	DFADotOutput        Key = "dfa-dot-output"
	NFADotOutput        Key = "nfa-dot-output"
	MessageFormat       Key = "message-format"
	Verbose             Key = "verbose"
	MaxSwitchCaseLabels Key = "max-switch-case-labels"
	PrintGrammar        Key = "print-grammar"
	Report              Key = "report"
	Profile             Key = "profile"
)

// Settings is the typed view of a merged option set.
type Settings struct {
	Debug               bool
	Trace               bool
	DFADotOutput        bool
	NFADotOutput        bool
	MessageFormat       string
	Verbose             bool
	MaxSwitchCaseLabels int
	PrintGrammar        bool
	Report              bool
	Profile             bool
}

type setter struct {
	ty    cty.Type
	apply func(*Settings, cty.Value) error
}

func field[T any](ty cty.Type, set func(*Settings, T)) setter {
	return setter{
		ty: ty,
		apply: func(s *Settings, v cty.Value) error {
			var out T
			if err := gocty.FromCtyValue(v, &out); err != nil {
				return err
			}
			set(s, out)
			return nil
		},
	}
}

var setters = map[Key]setter{
	Debug:               field(cty.Bool, func(s *Settings, v bool) { s.Debug = v }),
	Trace:               field(cty.Bool, func(s *Settings, v bool) { s.Trace = v }),
	DFADotOutput:        field(cty.Bool, func(s *Settings, v bool) { s.DFADotOutput = v }),
	NFADotOutput:        field(cty.Bool, func(s *Settings, v bool) { s.NFADotOutput = v }),
	MessageFormat:       field(cty.String, func(s *Settings, v string) { s.MessageFormat = v }),
	Verbose:             field(cty.Bool, func(s *Settings, v bool) { s.Verbose = v }),
	MaxSwitchCaseLabels: field(cty.Number, func(s *Settings, v int) { s.MaxSwitchCaseLabels = v }),
	PrintGrammar:        field(cty.Bool, func(s *Settings, v bool) { s.PrintGrammar = v }),
	Report:              field(cty.Bool, func(s *Settings, v bool) { s.Report = v }),
	Profile:             field(cty.Bool, func(s *Settings, v bool) { s.Profile = v }),
}

// Defaults returns a fresh copy of the default option values.
func Defaults() map[Key]cty.Value {
	return map[Key]cty.Value{
		Debug:               cty.False,
		Trace:               cty.False,
		DFADotOutput:        cty.False,
		NFADotOutput:        cty.False,
		MessageFormat:       cty.StringVal("antlr"),
		Verbose:             cty.True,
		MaxSwitchCaseLabels: cty.NumberIntVal(300),
		PrintGrammar:        cty.False,
		Report:              cty.False,
		Profile:             cty.False,
	}
}

// Keys lists every known option in lexical order.
func Keys() []Key {
	keys := make([]Key, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// UnknownOptionError reports an override key outside the known option set.
type UnknownOptionError struct {
	Key string
}

func (e *UnknownOptionError) Error() string {
	known := make([]string, 0, len(setters))
	for _, k := range Keys() {
		known = append(known, string(k))
	}
	return fmt.Sprintf("unknown compiler option %q (known options: %s)", e.Key, strings.Join(known, ", "))
}

// InvalidValueError reports an override whose value cannot be converted to
// the option's type.
type InvalidValueError struct {
	Key Key
	Err error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for compiler option %q: %v", e.Key, e.Err)
}

func (e *InvalidValueError) Unwrap() error { return e.Err }

// Config is an immutable, validated option set.
type Config struct {
	values   map[Key]cty.Value
	settings Settings
}

// Settings returns the typed settings.
func (c *Config) Settings() Settings {
	return c.settings
}

// Value returns the merged value for k.
func (c *Config) Value(k Key) cty.Value {
	return c.values[k]
}

// Values returns a copy of all merged values.
func (c *Config) Values() map[Key]cty.Value {
	out := make(map[Key]cty.Value, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Merge lays overrides over Defaults. Every override key is checked before
// any value is converted, so an unknown key is always reported first.
func Merge(overrides map[string]cty.Value) (*Config, error) {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := setters[Key(name)]; !ok {
			return nil, &UnknownOptionError{Key: name}
		}
	}

	values := Defaults()
	for _, name := range names {
		k := Key(name)
		v, err := normalize(setters[k].ty, overrides[name])
		if err != nil {
			return nil, &InvalidValueError{Key: k, Err: err}
		}
		values[k] = v
	}

	var s Settings
	for _, k := range Keys() {
		if err := setters[k].apply(&s, values[k]); err != nil {
			return nil, &InvalidValueError{Key: k, Err: err}
		}
	}
	return &Config{values: values, settings: s}, nil
}

// MustDefault returns the default configuration.
func MustDefault() *Config {
	cfg, err := Merge(nil)
	if err != nil {
		panic(err)
	}
	return cfg
}

func normalize(ty cty.Type, v cty.Value) (cty.Value, error) {
	if v.IsNull() {
		return cty.NilVal, fmt.Errorf("value must not be null")
	}
	if !v.IsWhollyKnown() {
		return cty.NilVal, fmt.Errorf("value must be known")
	}
	converted, err := convert.Convert(v, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %s to %s: %w", v.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return converted, nil
}
