package hdmstruct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHeaderSplit(t *testing.T) {
	header := `{
	'message': {'type': 'point'},
	'types': {
		'point': {'type': 'object', 'layout': [
			{'name': 'x', 'type': 'coord'},
		]},
		'coord': {'type': 'float', 'bytes': 4},
	},
}
`
	payload := []byte{0x00, 0x00, 0xC0, 0x3F}
	data := append([]byte(header+HeaderEndMarker+"\n"), payload...)

	hdr, rest, err := LoadHeader(data)
	require.NoError(t, err)
	assert.Equal(t, payload, rest)
	assert.Equal(t, "point", hdr.Message.Type)
	require.Contains(t, hdr.Types, "coord")
	assert.Equal(t, "float", hdr.Types["coord"].Tag)
	assert.Equal(t, 4, hdr.Types["coord"].Bytes)
}

func TestLoadHeaderPayloadMayContainMarkerBytes(t *testing.T) {
	// Binary payload bytes happen to spell the marker again; only the
	// first occurrence splits.
	header := "{'message': {'type': 'n'}, 'types': {'n': {'type': 'object', 'layout': []}}}\n"
	payload := []byte(HeaderEndMarker)
	data := append([]byte(header+HeaderEndMarker+"\n"), payload...)

	_, rest, err := LoadHeader(data)
	require.NoError(t, err)
	assert.Equal(t, payload, rest)
}

func TestLoadHeaderNoMarker(t *testing.T) {
	_, _, err := LoadHeader([]byte("{'message': {'type': 'x'}}"))
	assert.ErrorIs(t, err, ErrNotHDM)
}

func TestLoadHeaderMarkerAtEnd(t *testing.T) {
	data := []byte("{'message': {'type': 'n'}, 'types': {'n': {'type': 'object', 'layout': []}}}\n" + HeaderEndMarker)
	_, rest, err := LoadHeader(data)
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestLoadHeaderSyntaxError(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"unterminated dict", "{'message': {'type': 'x'"},
		{"executable content", "__import__('os')"},
		{"bare identifier", "{'message': foo}"},
		{"empty header", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := LoadHeader([]byte(tc.header + "\n" + HeaderEndMarker + "\n"))
			assert.ErrorIs(t, err, ErrHeaderSyntax)
		})
	}
}

func TestLoadHeaderShapeErrors(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"root not a dict", "[1, 2]"},
		{"no message", "{'types': {}}"},
		{"no message type", "{'message': {}, 'types': {}}"},
		{"no types", "{'message': {'type': 'x'}}"},
		{"type not a dict", "{'message': {'type': 'x'}, 'types': {'x': 7}}"},
		{"type without tag", "{'message': {'type': 'x'}, 'types': {'x': {}}}"},
		{"bytes not integer", "{'message': {'type': 'x'}, 'types': {'x': {'type': 'int', 'bytes': 'four'}}}"},
		{"values not strings", "{'message': {'type': 'x'}, 'types': {'x': {'type': 'enum', 'bytes': 1, 'values': [1]}}}"},
		{"layout entry without name", "{'message': {'type': 'x'}, 'types': {'x': {'type': 'object', 'layout': [{'type': 'y'}]}}}"},
		{"optional not a pair", "{'message': {'type': 'x'}, 'types': {'x': {'type': 'object', 'layout': [{'name': 'a', 'type': 'y', 'optional': 'mode'}]}}}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := LoadHeader([]byte(tc.header + "\n" + HeaderEndMarker + "\n"))
			assert.ErrorIs(t, err, ErrHeaderSyntax)
		})
	}
}

func TestLoadHeaderMessageMeta(t *testing.T) {
	header := "{'message': {'type': 'n', 'version': 3, 'solver': 'fdtd'}, 'types': {'n': {'type': 'object', 'layout': []}}}\n"
	hdr, _, err := LoadHeader([]byte(header + HeaderEndMarker + "\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), hdr.Message.Meta["version"])
	assert.Equal(t, "fdtd", hdr.Message.Meta["solver"])
	assert.NotContains(t, hdr.Message.Meta, "type")
}

func TestLoadHeaderFieldAliases(t *testing.T) {
	header := `{
	'message': {'type': 'n'},
	'types': {
		'n': {'type': 'object', 'layout': [
			{'names': ['id', 'ident'], 'type': 'u2'},
			{'name': 'mode', 'type': 'u2', 'optional': ('kind', 'dense')},
		]},
		'u2': {'type': 'int', 'bytes': 2, 'signed': False},
	},
}
`
	hdr, _, err := LoadHeader([]byte(header + HeaderEndMarker + "\n"))
	require.NoError(t, err)
	layout := hdr.Types["n"].Layout
	require.Len(t, layout, 2)
	assert.Equal(t, []string{"id", "ident"}, layout[0].Names)
	require.NotNil(t, layout[1].Optional)
	assert.Equal(t, "kind", layout[1].Optional.Field)
	assert.Equal(t, "dense", layout[1].Optional.Expected)
	assert.False(t, hdr.Types["u2"].Signed)
}
