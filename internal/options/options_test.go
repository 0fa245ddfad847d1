package options

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestDefaults(t *testing.T) {
	cfg := MustDefault()

	want := Settings{
		MessageFormat:       "antlr",
		Verbose:             true,
		MaxSwitchCaseLabels: 300,
	}
	if diff := cmp.Diff(want, cfg.Settings()); diff != "" {
		t.Errorf("Settings mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, Keys(), 10)
	assert.Len(t, Defaults(), len(Keys()), "every key needs a default")
}

func TestMerge_OverrideWins(t *testing.T) {
	cfg, err := Merge(map[string]cty.Value{"debug": cty.True})
	require.NoError(t, err)

	assert.True(t, cfg.Settings().Debug)
	for k, v := range Defaults() {
		if k == Debug {
			continue
		}
		assert.True(t, v.RawEquals(cfg.Value(k)), "option %s should keep its default", k)
	}
}

func TestMerge_Conversions(t *testing.T) {
	cfg, err := Merge(map[string]cty.Value{
		"max-switch-case-labels": cty.StringVal("150"),
		"message-format":         cty.StringVal("gnu"),
		"verbose":                cty.StringVal("false"),
	})
	require.NoError(t, err)

	s := cfg.Settings()
	assert.Equal(t, 150, s.MaxSwitchCaseLabels)
	assert.Equal(t, "gnu", s.MessageFormat)
	assert.False(t, s.Verbose)
	assert.True(t, cty.NumberIntVal(150).RawEquals(cfg.Value(MaxSwitchCaseLabels)))
}

func TestMerge_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		overrides map[string]cty.Value
		check     func(t *testing.T, err error)
	}{
		{
			name:      "unknown key",
			overrides: map[string]cty.Value{"debug": cty.True, "optimize": cty.True},
			check: func(t *testing.T, err error) {
				var unknown *UnknownOptionError
				require.True(t, errors.As(err, &unknown))
				assert.Equal(t, "optimize", unknown.Key)
				assert.Contains(t, err.Error(), "known options:")
			},
		},
		{
			name: "unknown key reported before bad value",
			overrides: map[string]cty.Value{
				"debug": cty.StringVal("maybe"),
				"zzz":   cty.True,
			},
			check: func(t *testing.T, err error) {
				var unknown *UnknownOptionError
				assert.True(t, errors.As(err, &unknown))
			},
		},
		{
			name:      "wrong type",
			overrides: map[string]cty.Value{"debug": cty.StringVal("maybe")},
			check: func(t *testing.T, err error) {
				var invalid *InvalidValueError
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, Debug, invalid.Key)
			},
		},
		{
			name:      "fractional number",
			overrides: map[string]cty.Value{"max-switch-case-labels": cty.NumberFloatVal(1.5)},
			check: func(t *testing.T, err error) {
				var invalid *InvalidValueError
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, MaxSwitchCaseLabels, invalid.Key)
			},
		},
		{
			name:      "null value",
			overrides: map[string]cty.Value{"trace": cty.NullVal(cty.Bool)},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "must not be null")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Merge(tc.overrides)
			require.Error(t, err)
			assert.Nil(t, cfg)
			tc.check(t, err)
		})
	}
}

func TestConfig_ValuesIsACopy(t *testing.T) {
	cfg := MustDefault()
	vals := cfg.Values()
	vals[Debug] = cty.True
	assert.True(t, cfg.Value(Debug).RawEquals(cty.False))
}

func TestParseOverride(t *testing.T) {
	testCases := []struct {
		in      string
		key     string
		want    cty.Value
		wantErr bool
	}{
		{in: "debug=true", key: "debug", want: cty.True},
		{in: "max-switch-case-labels=150", key: "max-switch-case-labels", want: cty.NumberIntVal(150)},
		{in: `message-format="vs2005"`, key: "message-format", want: cty.StringVal("vs2005")},
		{in: "message-format=gnu", key: "message-format", want: cty.StringVal("gnu")},
		{in: " verbose = false ", key: "verbose", want: cty.False},
		{in: "debug", wantErr: true},
		{in: "=true", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			key, val, err := ParseOverride(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.key, key)
			assert.True(t, tc.want.RawEquals(val), "got %#v", val)
		})
	}
}

func TestParseOverrides_LaterWins(t *testing.T) {
	got, err := ParseOverrides([]string{"debug=true", "debug=false"})
	require.NoError(t, err)
	assert.True(t, got["debug"].RawEquals(cty.False))
}
