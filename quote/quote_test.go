package quote

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueScalars(t *testing.T) {
	q := New("mysql")

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"int", 42, "42"},
		{"negative int", int64(-7), "-7"},
		{"uint", uint32(7), "7"},
		{"float", 1.5, "1.5"},
		{"nan", math.NaN(), "null"},
		{"pos inf", math.Inf(1), "null"},
		{"neg inf", math.Inf(-1), "null"},
		{"true", true, "1"},
		{"false", false, "0"},
		{"string", "abc", "'abc'"},
		{"string with quote", "it's", `'it\'s'`},
		{"null keyword", Null, "null"},
		{"default keyword", Default, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.Value(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueBoolNonMySQL(t *testing.T) {
	q := New("ansi")
	got, err := q.Value(true)
	require.NoError(t, err)
	assert.Equal(t, "true", got)
}

func TestValueLists(t *testing.T) {
	q := New("mysql")

	got, err := q.Value([]any{1, "a", nil})
	require.NoError(t, err)
	assert.Equal(t, "1,'a',null", got)

	got, err = q.Value([]int{3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, "3,4,5", got)

	// Empty sequence reads as IN (null).
	got, err = q.Value([]any{})
	require.NoError(t, err)
	assert.Equal(t, "null", got)
}

func TestValueUnsupported(t *testing.T) {
	q := New("mysql")
	_, err := q.Value(struct{}{})
	require.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, `a\'b`, EscapeString("a'b"))
	assert.Equal(t, `a\\b`, EscapeString(`a\b`))
	assert.Equal(t, `a\nb`, EscapeString("a\nb"))
	assert.Equal(t, `a\0b`, EscapeString("a\x00b"))
}

func TestIdentifier(t *testing.T) {
	q := New("mysql")

	got, err := q.Identifier("users")
	require.NoError(t, err)
	assert.Equal(t, "users", got)

	got, err = q.Identifier("Order")
	require.NoError(t, err)
	assert.Equal(t, "`Order`", got)

	got, err = q.Identifier("shop.Order")
	require.NoError(t, err)
	assert.Equal(t, "shop.`Order`", got)

	// Already back-quoted names pass through verbatim.
	got, err = q.Identifier("`weird.name`")
	require.NoError(t, err)
	assert.Equal(t, "`weird.name`", got)

	// Surrounding whitespace is trimmed.
	got, err = q.Identifier("  users ")
	require.NoError(t, err)
	assert.Equal(t, "users", got)

	_, err = q.Identifier("   ")
	require.ErrorIs(t, err, ErrMissingIdentifier)

	_, err = q.Identifier(12)
	require.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestSetReserved(t *testing.T) {
	q := New("mysql")
	q.SetReserved(BuildReserved([]string{"rank"}))

	got, err := q.Identifier("rank")
	require.NoError(t, err)
	assert.Equal(t, "`rank`", got)

	got, err = q.Identifier("order")
	require.NoError(t, err)
	assert.Equal(t, "order", got)
}
