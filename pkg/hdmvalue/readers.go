// Package hdmvalue holds the decoded value types of the HDM engine: enum and
// flag views over raw integers, the enum/flag tables owned by a compiled
// schema, and the little-endian scalar readers used by the decoder.
package hdmvalue

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ReadUint decodes an unsigned little-endian integer of 1, 2 or 4 bytes.
// The result is widened to int64, where every legal value fits.
func ReadUint(data []byte, width int) (int64, error) {
	if len(data) < width {
		return 0, fmt.Errorf("need %d bytes for u%d, have %d", width, width, len(data))
	}
	switch width {
	case 1:
		return int64(data[0]), nil
	case 2:
		return int64(binary.LittleEndian.Uint16(data)), nil
	case 4:
		return int64(binary.LittleEndian.Uint32(data)), nil
	}
	return 0, fmt.Errorf("unsupported unsigned integer width %d", width)
}

// ReadInt decodes a signed little-endian integer of 1, 2 or 4 bytes.
func ReadInt(data []byte, width int) (int64, error) {
	if len(data) < width {
		return 0, fmt.Errorf("need %d bytes for s%d, have %d", width, width, len(data))
	}
	switch width {
	case 1:
		return int64(int8(data[0])), nil
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(data))), nil
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(data))), nil
	}
	return 0, fmt.Errorf("unsupported signed integer width %d", width)
}

// ReadFloat decodes a little-endian IEEE float of 4 or 8 bytes.
func ReadFloat(data []byte, width int) (float64, error) {
	if len(data) < width {
		return 0, fmt.Errorf("need %d bytes for f%d, have %d", width, width, len(data))
	}
	switch width {
	case 4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data))), nil
	case 8:
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
	}
	return 0, fmt.Errorf("unsupported float width %d", width)
}

// ReadComplex decodes a little-endian complex value of 8 or 16 bytes: two
// adjacent floats of half the total width, real part first.
func ReadComplex(data []byte, width int) (complex128, error) {
	if len(data) < width {
		return 0, fmt.Errorf("need %d bytes for c%d, have %d", width, width, len(data))
	}
	half := width / 2
	re, err := ReadFloat(data[:half], half)
	if err != nil {
		return 0, err
	}
	im, err := ReadFloat(data[half:width], half)
	if err != nil {
		return 0, err
	}
	return complex(re, im), nil
}
