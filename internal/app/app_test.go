package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/antlrgen/internal/compiler"
	"github.com/specialistvlad/antlrgen/internal/config"
	"github.com/specialistvlad/antlrgen/internal/hcl"
	"github.com/specialistvlad/antlrgen/internal/options"
	"github.com/specialistvlad/antlrgen/internal/testutil"
	"github.com/specialistvlad/antlrgen/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	app  *App
	out  *bytes.Buffer
	logs *testutil.SafeBuffer
	fake *testutil.FakeTool
	spec config.ToolSpec
}

func setup(t *testing.T, cfg Config, fake *testutil.FakeTool, opts ...Option) *harness {
	t.Helper()

	appConfig, err := NewConfig(cfg)
	require.NoError(t, err)
	if appConfig.LogLevel == "" {
		appConfig.LogLevel = "debug"
	}

	h := &harness{out: &bytes.Buffer{}, logs: &testutil.SafeBuffer{}, fake: fake}
	factory := func(spec config.ToolSpec, _, _ io.Writer) tool.Tool {
		h.spec = spec
		return fake
	}
	opts = append([]Option{WithToolFactory(factory)}, opts...)
	h.app = NewApp(h.out, h.logs, appConfig, hcl.NewLoader(), opts...)
	return h
}

func TestGenerate_EndToEnd(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"antlrgen.hcl": `
			antlr {
				source-directory = "grammars"
				output-directory = "out"
				compiler-options {
					debug = true
				}
			}
			tool {
				command = ["antlr3"]
			}
		`,
		"grammars/a/A.g":      "grammar A;",
		"grammars/b/sub/B.g3": "grammar B;",
	})

	h := setup(t, Config{ProjectDir: root, Options: []string{"verbose=false"}}, &testutil.FakeTool{})
	require.NoError(t, h.app.Run(context.Background()))

	assert.FileExists(t, filepath.Join(root, "out", "a", "AParser.java"))
	assert.FileExists(t, filepath.Join(root, "out", "b", "sub", "BParser.java"))
	assert.Equal(t,
		"grammars/a -> out/a\n  A.g\ngrammars/b/sub -> out/b/sub\n  B.g3\n",
		h.out.String(),
	)
	assert.Equal(t, []string{"antlr3"}, h.spec.Command)

	calls := h.fake.Calls()
	require.Len(t, calls, 2)
	assert.True(t, calls[0].Settings.Debug, "project file option applied")
	assert.False(t, calls[0].Settings.Verbose, "command-line option applied")
}

func TestGenerate_Defaults(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"src/antlr/T.g": ""})

	h := setup(t, Config{ProjectDir: root}, &testutil.FakeTool{})
	require.NoError(t, h.app.Run(context.Background()))
	assert.FileExists(t, filepath.Join(root, "gen-src", "TParser.java"))
}

func TestGenerate_EmptySource(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"src/antlr/README": ""})

	h := setup(t, Config{ProjectDir: root}, &testutil.FakeTool{})
	require.NoError(t, h.app.Run(context.Background()))
	assert.Equal(t, "source directory is empty: src/antlr\n", h.out.String())
	assert.NoDirExists(t, filepath.Join(root, "gen-src"))
}

func TestGenerate_CommandLineDirectories(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"g/X.g": ""})
	out := filepath.Join(t.TempDir(), "abs-out")

	h := setup(t, Config{ProjectDir: root, SourceDir: "g", OutputDir: out}, &testutil.FakeTool{})
	require.NoError(t, h.app.Run(context.Background()))
	assert.FileExists(t, filepath.Join(out, "XParser.java"))
	assert.Contains(t, h.out.String(), "g -> "+filepath.ToSlash(out))
}

func TestGenerate_GrammarErrorsFailTheStep(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"src/antlr/Bad.g": ""})

	h := setup(t, Config{ProjectDir: root}, &testutil.FakeTool{Failures: map[string]int{"Bad.g": 5}})
	err := h.app.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "5 grammar error(s) detected")
	var gce *compiler.GrammarCompilationError
	assert.True(t, errors.As(err, &gce))
}

func TestGenerate_UnknownOptionFailsBeforeCompiling(t *testing.T) {
	testCases := []struct {
		name  string
		files map[string]string
		cfg   Config
	}{
		{
			name: "from the project file",
			files: map[string]string{
				"antlrgen.hcl":  "antlr {\n  compiler-options {\n    turbo = true\n  }\n}\n",
				"src/antlr/A.g": "",
			},
		},
		{
			name:  "from the command line",
			files: map[string]string{"src/antlr/A.g": ""},
			cfg:   Config{Options: []string{"turbo=true"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := testutil.WriteTree(t, tc.files)
			tc.cfg.ProjectDir = root

			h := setup(t, tc.cfg, &testutil.FakeTool{})
			err := h.app.Run(context.Background())

			var unknown *options.UnknownOptionError
			require.True(t, errors.As(err, &unknown))
			assert.Equal(t, "turbo", unknown.Key)
			assert.Empty(t, h.fake.Calls())
		})
	}
}

func TestClean(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"src/antlr/a/A.g":      "",
		"src/antlr/b/sub/B.g3": "",
	})

	h := setup(t, Config{ProjectDir: root}, &testutil.FakeTool{})
	require.NoError(t, h.app.Run(context.Background()))
	require.DirExists(t, filepath.Join(root, "gen-src", "b", "sub"))

	var hostRan bool
	c := setup(t, Config{ProjectDir: root, Command: CommandClean}, &testutil.FakeTool{},
		WithHostClean(func(context.Context) error {
			hostRan = true
			return nil
		}),
	)
	require.NoError(t, c.app.Run(context.Background()))
	assert.True(t, hostRan)
	assert.NoDirExists(t, filepath.Join(root, "gen-src"))
	assert.DirExists(t, filepath.Join(root, "src", "antlr"))

	require.NoError(t, c.app.Run(context.Background()), "second clean is a no-op")
}

func TestClean_RefusesDangerousOutput(t *testing.T) {
	testCases := []struct {
		name string
		out  string
	}{
		{name: "project root", out: "."},
		{name: "parent of the sources", out: "src"},
		{name: "the sources", out: "src/antlr"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := testutil.WriteTree(t, map[string]string{"src/antlr/A.g": ""})

			h := setup(t, Config{ProjectDir: root, OutputDir: tc.out, Command: CommandClean}, &testutil.FakeTool{})
			err := h.app.Run(context.Background())

			assert.ErrorContains(t, err, "refusing to clean")
			assert.FileExists(t, filepath.Join(root, "src", "antlr", "A.g"))
		})
	}
}

func TestWatch_MissingSourceFailsUpFront(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"antlrgen.hcl": ""})

	h := setup(t, Config{ProjectDir: root, Command: CommandWatch}, &testutil.FakeTool{})
	err := h.app.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, "cannot watch: source directory does not exist: src/antlr", err.Error())
	assert.Empty(t, h.fake.Calls())
}

func TestHealthHandler(t *testing.T) {
	h := setup(t, Config{Command: CommandWatch}, &testutil.FakeTool{})

	get := func() (int, string) {
		rec := httptest.NewRecorder()
		h.app.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		return rec.Code, rec.Body.String()
	}

	code, body := get()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "STARTING\n", body)

	h.app.recordGeneration(errors.New("3 grammar error(s) detected in x"))
	code, body = get()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "FAILED: 3 grammar error(s)")

	h.app.recordGeneration(nil)
	code, body = get()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK\n", body)
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{})
	require.NoError(t, err)
	assert.Equal(t, CommandGenerate, cfg.Command)
	assert.Equal(t, ".", cfg.ProjectDir)

	_, err = NewConfig(Config{Command: "build"})
	assert.ErrorContains(t, err, "unknown command")

	_, err = NewConfig(Config{Options: []string{"novalue"}})
	assert.ErrorContains(t, err, "key=value")

	_, err = NewConfig(Config{HealthcheckPort: -1})
	assert.Error(t, err)
}
