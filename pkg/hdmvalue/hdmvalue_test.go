package hdmvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUint(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		width int
		want  int64
	}{
		{"u1", []byte{0xFF}, 1, 255},
		{"u2", []byte{0x34, 0x12}, 2, 0x1234},
		{"u4", []byte{0x78, 0x56, 0x34, 0x12}, 4, 0x12345678},
		{"u4 high bit", []byte{0xFF, 0xFF, 0xFF, 0xFF}, 4, 0xFFFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadUint(tt.data, tt.width)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("short buffer", func(t *testing.T) {
		_, err := ReadUint([]byte{0x01}, 2)
		require.Error(t, err)
	})

	t.Run("bad width", func(t *testing.T) {
		_, err := ReadUint([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 8)
		require.Error(t, err)
	})
}

func TestReadInt(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		width int
		want  int64
	}{
		{"s1 negative", []byte{0xFF}, 1, -1},
		{"s2 negative", []byte{0x00, 0x80}, 2, -32768},
		{"s4 positive", []byte{0x78, 0x56, 0x34, 0x12}, 4, 0x12345678},
		{"s4 negative", []byte{0xFF, 0xFF, 0xFF, 0xFF}, 4, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadInt(tt.data, tt.width)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFloat(t *testing.T) {
	t.Run("f4", func(t *testing.T) {
		// 1.5 as little-endian float32
		got, err := ReadFloat([]byte{0x00, 0x00, 0xC0, 0x3F}, 4)
		require.NoError(t, err)
		assert.Equal(t, 1.5, got)
	})

	t.Run("f8", func(t *testing.T) {
		// -2.0 as little-endian float64
		got, err := ReadFloat([]byte{0, 0, 0, 0, 0, 0, 0x00, 0xC0}, 8)
		require.NoError(t, err)
		assert.Equal(t, -2.0, got)
	})

	t.Run("short buffer", func(t *testing.T) {
		_, err := ReadFloat([]byte{0x00, 0x00}, 4)
		require.Error(t, err)
	})
}

func TestReadComplex(t *testing.T) {
	t.Run("c8 pairs two f4", func(t *testing.T) {
		data := []byte{
			0x00, 0x00, 0xC0, 0x3F, // 1.5 real
			0x00, 0x00, 0x00, 0xC0, // -2.0 imag
		}
		got, err := ReadComplex(data, 8)
		require.NoError(t, err)
		assert.Equal(t, complex(1.5, -2.0), got)
	})

	t.Run("c16 pairs two f8", func(t *testing.T) {
		data := []byte{
			0, 0, 0, 0, 0, 0, 0xF8, 0x3F, // 1.5 real
			0, 0, 0, 0, 0, 0, 0x00, 0xC0, // -2.0 imag
		}
		got, err := ReadComplex(data, 16)
		require.NoError(t, err)
		assert.Equal(t, complex(1.5, -2.0), got)
	})
}

func TestEnumTable(t *testing.T) {
	table := NewEnumTable("ray_kind", 0, []string{"reflected", "transmitted"})

	t.Run("lookup by raw value", func(t *testing.T) {
		e, err := table.Lookup(1)
		require.NoError(t, err)
		assert.Equal(t, "transmitted", e.Name())
		assert.Equal(t, int64(1), e.Value())
		assert.Equal(t, "ray_kind", e.EnumName())
		assert.True(t, e.Is("transmitted"))
		assert.False(t, e.Is("reflected"))
	})

	t.Run("start offset shifts values", func(t *testing.T) {
		shifted := NewEnumTable("status", 10, []string{"ok", "failed"})
		e, err := shifted.Lookup(11)
		require.NoError(t, err)
		assert.Equal(t, "failed", e.Name())

		_, err = shifted.Lookup(0)
		require.Error(t, err)
	})

	t.Run("unknown value errors", func(t *testing.T) {
		_, err := table.Lookup(99)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ray_kind")
	})
}

func TestFlagTable(t *testing.T) {
	table := NewFlagTable("hit_flags", []string{"x", "y", "z"})

	t.Run("resolve tests declared bits", func(t *testing.T) {
		set := table.Resolve(0b101)
		assert.Equal(t, FlagSet{"x": true, "y": false, "z": true}, set)
		assert.True(t, set.Test("x"))
		assert.False(t, set.Test("y"))
	})

	t.Run("undeclared bits are not exposed", func(t *testing.T) {
		set := table.Resolve(0b11111000)
		assert.Equal(t, FlagSet{"x": false, "y": false, "z": false}, set)
	})

	t.Run("undeclared name tests false", func(t *testing.T) {
		set := table.Resolve(0b111)
		assert.False(t, set.Test("w"))
	})

	t.Run("has", func(t *testing.T) {
		assert.True(t, table.Has("y"))
		assert.False(t, table.Has("w"))
	})
}
