// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package options

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ParseOverride splits a "key=value" command-line override. The value is
// read as an HCL expression, so `true`, `150` and `"gnu"` keep their types.
// A value that is not a valid constant expression, such as a bare word, is
// taken as a string.
func ParseOverride(s string) (string, cty.Value, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", cty.NilVal, fmt.Errorf("option override %q must have the form key=value", s)
	}

	raw = strings.TrimSpace(raw)
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "<flag -O "+key+">", hcl.InitialPos)
	if diags.HasErrors() {
		return key, cty.StringVal(raw), nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return key, cty.StringVal(raw), nil
	}
	return key, val, nil
}

// ParseOverrides applies ParseOverride to each entry. Later entries win.
func ParseOverrides(entries []string) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(entries))
	for _, e := range entries {
		k, v, err := ParseOverride(e)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
