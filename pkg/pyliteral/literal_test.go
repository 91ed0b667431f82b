package pyliteral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"decimal int", "42", int64(42)},
		{"negative int", "-7", int64(-7)},
		{"explicit positive", "+7", int64(7)},
		{"hex int", "0x1F", int64(31)},
		{"float", "3.25", 3.25},
		{"float exponent", "1.5e-2", 0.015},
		{"leading dot float", ".5", 0.5},
		{"double quoted string", `"hello"`, "hello"},
		{"single quoted string", `'world'`, "world"},
		{"escapes", `"a\tb\nA"`, "a\tb\nA"},
		{"true", "True", true},
		{"false", "False", false},
		{"none", "None", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Containers(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		got, err := Parse("[1, 2.5, 'x', True, None]")
		require.NoError(t, err)
		assert.Equal(t, []any{int64(1), 2.5, "x", true, nil}, got)
	})

	t.Run("empty list", func(t *testing.T) {
		got, err := Parse("[]")
		require.NoError(t, err)
		assert.Equal(t, []any{}, got)
	})

	t.Run("trailing comma", func(t *testing.T) {
		got, err := Parse("[1, 2,]")
		require.NoError(t, err)
		assert.Equal(t, []any{int64(1), int64(2)}, got)
	})

	t.Run("dict", func(t *testing.T) {
		got, err := Parse(`{'a': 1, "b": [2, 3]}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": int64(1), "b": []any{int64(2), int64(3)}}, got)
	})

	t.Run("nested dict", func(t *testing.T) {
		got, err := Parse(`{'outer': {'inner': 'v'}}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"outer": map[string]any{"inner": "v"}}, got)
	})

	t.Run("tuple", func(t *testing.T) {
		got, err := Parse("('kind', 'reflected')")
		require.NoError(t, err)
		assert.Equal(t, []any{"kind", "reflected"}, got)
	})

	t.Run("single element tuple", func(t *testing.T) {
		got, err := Parse("(5,)")
		require.NoError(t, err)
		assert.Equal(t, []any{int64(5)}, got)
	})

	t.Run("parenthesized value collapses", func(t *testing.T) {
		got, err := Parse("(5)")
		require.NoError(t, err)
		assert.Equal(t, int64(5), got)
	})
}

func TestParse_Comments(t *testing.T) {
	input := `
# export metadata
{
    'message': {'type': 'rays'},  # root type
    'types': {},
}
`
	got, err := Parse(input)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"message": map[string]any{"type": "rays"},
		"types":   map[string]any{},
	}, got)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare identifier", "foo"},
		{"call syntax", "open('x')"},
		{"dunder lookup", "__import__"},
		{"non-string dict key", "{1: 'a'}"},
		{"unterminated string", `"abc`},
		{"unterminated dict", "{'a': 1"},
		{"unterminated list", "[1, 2"},
		{"missing colon", "{'a' 1}"},
		{"trailing garbage", "1 2"},
		{"empty input", ""},
		{"lone sign", "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
		})
	}
}

func TestParse_ErrorPositions(t *testing.T) {
	_, err := Parse("{'a':\n  oops}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2:")
}
