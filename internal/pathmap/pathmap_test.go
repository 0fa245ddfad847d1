package pathmap

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativizeAndResolve(t *testing.T) {
	root := filepath.Join("project", "grammars")
	children := []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "b", "sub"),
	}

	tokens, err := Relativize(root, children)
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	assert.True(t, tokens[0].IsRoot())
	assert.Equal(t, "", tokens[0].String())
	assert.Equal(t, "a", tokens[1].String())
	assert.Equal(t, "b/sub", tokens[2].String())
	assert.Equal(t, []string{"b", "sub"}, tokens[2].Segments())

	t.Run("round trip against the original root", func(t *testing.T) {
		assert.Equal(t, children, Resolve(root, tokens))
	})

	t.Run("mirrors under a different root", func(t *testing.T) {
		out := filepath.Join("build", "out")
		assert.Equal(t, []string{
			out,
			filepath.Join(out, "a"),
			filepath.Join(out, "b", "sub"),
		}, Resolve(out, tokens))
	})
}

func TestRelativize_SuffixPreserved(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "src", "antlr")
	dirs := []string{
		filepath.Join(root, "x"),
		filepath.Join(root, "x", "y", "z"),
		filepath.Join(root, "deep", "er", "still"),
	}
	newRoot := filepath.Join(string(filepath.Separator), "gen-src")

	resolved := Resolve(newRoot, MustRelativize(root, dirs))
	for i, d := range dirs {
		wantSuffix, err := filepath.Rel(root, d)
		require.NoError(t, err)
		gotSuffix, err := filepath.Rel(newRoot, resolved[i])
		require.NoError(t, err)
		assert.Equal(t, wantSuffix, gotSuffix)
	}
}

func TestRelativize_InvalidRelation(t *testing.T) {
	root := filepath.Join("src", "antlr")

	testCases := []struct {
		name  string
		child string
	}{
		{name: "sibling", child: filepath.Join("src", "other")},
		{name: "parent", child: "src"},
		{name: "unrelated", child: filepath.Join("elsewhere", "antlr")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Relativize(root, []string{tc.child})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPathRelation))
		})
	}

	t.Run("directory name starting with dots is still a child", func(t *testing.T) {
		tokens, err := Relativize(root, []string{filepath.Join(root, "..hidden")})
		require.NoError(t, err)
		assert.Equal(t, "..hidden", tokens[0].String())
	})
}

func TestMustRelativize_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustRelativize("a", []string{"b"})
	})
}

func TestResolve_DoesNotTouchDisk(t *testing.T) {
	tmp := t.TempDir()
	out := Resolve(filepath.Join(tmp, "missing"), []Token{{segments: []string{"a"}}})
	require.Len(t, out, 1)
	assert.NoDirExists(t, out[0])
}
