package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessConditional(t *testing.T) {
	src := "SELECT *\n#if flag\nFROM a\n#else\nFROM b\n#endif\n"

	out, err := Preprocess(src, map[string]any{"flag": true})
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM a", out)

	out, err = Preprocess(src, map[string]any{"flag": false})
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM b", out)

	// A missing parameter evaluates falsy.
	out, err = Preprocess(src, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM b", out)
}

func TestPreprocessElif(t *testing.T) {
	src := "#if n == 1\none\n#elif n == 2\ntwo\n#else\nmany\n#endif"

	for _, tt := range []struct {
		n    int
		want string
	}{{1, "one"}, {2, "two"}, {3, "many"}} {
		out, err := Preprocess(src, map[string]any{"n": tt.n})
		require.NoError(t, err)
		assert.Equal(t, tt.want, out)
	}
}

func TestPreprocessNested(t *testing.T) {
	src := "#if a\nA\n#if b\nB\n#endif\n#endif\nZ"

	out, err := Preprocess(src, map[string]any{"a": true, "b": false})
	require.NoError(t, err)
	assert.Equal(t, "A\nZ", out)

	// Inner block is dead when the outer is inactive, whatever b says.
	out, err = Preprocess(src, map[string]any{"a": false, "b": true})
	require.NoError(t, err)
	assert.Equal(t, "Z", out)
}

func TestPreprocessErrors(t *testing.T) {
	_, err := Preprocess("#if a\nx", map[string]any{})
	require.ErrorIs(t, err, ErrUnterminatedIf)

	_, err = Preprocess("#endif", map[string]any{})
	require.ErrorIs(t, err, ErrUnmatchedEndif)

	_, err = Preprocess("#else", map[string]any{})
	require.ErrorIs(t, err, ErrUnmatchedBranch)

	_, err = Preprocess("#if a\n#else\n#else\n#endif", map[string]any{})
	require.ErrorIs(t, err, ErrBranchAfterElse)

	_, err = Preprocess("#if a\n#else\n#elif b\n#endif", map[string]any{})
	require.ErrorIs(t, err, ErrBranchAfterElse)
}

func TestPreprocessComments(t *testing.T) {
	src := "SELECT a, -- trailing\n  b # another\nFROM t"
	out, err := Preprocess(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a,\n  b\nFROM t", out)
}

func TestPreprocessCommentMarkersInsideLiterals(t *testing.T) {
	src := "SELECT 'a -- b', 'c # d' FROM t"
	out, err := Preprocess(src, nil)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestPreprocessBlockCommentPreserved(t *testing.T) {
	src := "SELECT /*+ MAX_EXECUTION_TIME(1000) */ a FROM t"
	out, err := Preprocess(src, nil)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestPreprocessNormalizesLineEndings(t *testing.T) {
	out, err := Preprocess("SELECT a\r\nFROM t\rWHERE x=1", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a\nFROM t\nWHERE x=1", out)
}

func TestPreprocessDropsBlankLines(t *testing.T) {
	out, err := Preprocess("SELECT a\n\n   \nFROM t", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a\nFROM t", out)
}

func TestEvalCond(t *testing.T) {
	params := map[string]any{
		"n":    2,
		"name": "alice",
		"on":   true,
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"on", true},
		{"!on", false},
		{"missing", false},
		{"n == 2", true},
		{"n = 2", true},
		{"n != 2", false},
		{"n > 1 && n < 3", true},
		{"n > 2 || on", true},
		{"not on", false},
		{"name == 'alice'", true},
		{`name == "bob"`, false},
		{"(n == 1 || n == 2) && on", true},
		{"1", true},
		{"0", false},
		{"''", false},
		{"'x'", true},
		{"n >= 2", true},
		{"n <= 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalCond(tt.expr, params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "expr %q", tt.expr)
		})
	}
}

func TestEvalCondParseError(t *testing.T) {
	_, err := evalCond("n ==", map[string]any{})
	require.Error(t, err)
}
