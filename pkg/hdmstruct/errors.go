package hdmstruct

import (
	"errors"
	"fmt"
)

// Standard error variables for the three failure classes of the engine.
// Format errors surface during header loading, schema errors during
// compilation, decode errors while consuming payload bytes. All are fatal
// for the current parse; none is retryable without new input bytes.
var (
	// ErrNotHDM indicates the end-of-header marker was not found.
	ErrNotHDM = errors.New("not an HDM file")

	// ErrHeaderSyntax indicates the header text is not the expected
	// restricted literal structure.
	ErrHeaderSyntax = errors.New("malformed HDM header")

	// ErrSchema indicates the header's type declarations do not compile.
	ErrSchema = errors.New("invalid HDM schema")

	// ErrDecode indicates the payload could not be decoded against the
	// compiled schema.
	ErrDecode = errors.New("HDM decode failed")

	// ErrShortPayload indicates the payload ended in the middle of a value.
	// It wraps ErrDecode.
	ErrShortPayload = fmt.Errorf("%w: payload truncated", ErrDecode)

	// ErrUnknownEnumValue indicates a raw integer with no declared
	// enumerator. It wraps ErrDecode.
	ErrUnknownEnumValue = fmt.Errorf("%w: unknown enum value", ErrDecode)
)

// schemaErrf builds a compile-time schema error.
func schemaErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

// headerErrf builds a header structure error.
func headerErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrHeaderSyntax, fmt.Sprintf(format, args...))
}

// decodeErrf builds a decode-time error.
func decodeErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}
