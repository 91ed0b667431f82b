package hdmstruct

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"

	"github.com/twinfer/hdm-plugin/pkg/hdmvalue"
)

// Interpreter decodes messages from one HDM payload against a compiled
// registry. It owns the single cursor into the payload; each ParseMessage
// call advances it past one message. An Interpreter is not safe for
// concurrent use, but independent Interpreters share nothing.
type Interpreter struct {
	registry *Registry
	stream   *kaitai.Stream
	logger   *slog.Logger
}

// NewInterpreter loads the header from raw file bytes, compiles the
// registry, and positions the cursor at the start of the payload.
func NewInterpreter(data []byte, logger *slog.Logger) (*Interpreter, error) {
	hdr, payload, err := LoadHeader(data)
	if err != nil {
		return nil, err
	}
	registry, err := Compile(hdr)
	if err != nil {
		return nil, err
	}
	return NewPayloadInterpreter(registry, payload, logger), nil
}

// NewPayloadInterpreter decodes an already-separated payload against a
// previously compiled registry.
func NewPayloadInterpreter(registry *Registry, payload []byte, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		registry: registry,
		stream:   kaitai.NewStream(bytes.NewReader(payload)),
		logger:   logger,
	}
}

// Registry returns the compiled schema this interpreter decodes against.
func (in *Interpreter) Registry() *Registry { return in.registry }

// Pos returns the cursor's current byte offset into the payload.
func (in *Interpreter) Pos() (int64, error) {
	return in.stream.Pos()
}

// ParseMessage decodes the next message from the payload and advances the
// cursor past it. At a clean end of payload it returns io.EOF; a payload
// that ends mid-message is a decode error instead.
func (in *Interpreter) ParseMessage(ctx context.Context) (*Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	eof, err := in.stream.EOF()
	if err != nil {
		return nil, decodeErrf("checking end of payload: %v", err)
	}
	if eof {
		return nil, io.EOF
	}

	root, _ := in.registry.Lookup(in.registry.MessageType())
	in.logger.DebugContext(ctx, "decoding message", "message_type", root.Name)
	record, err := in.decodeObject(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("decoding message %q: %w", root.Name, err)
	}
	return record, nil
}

// decodeObject is the recursive-descent core: it walks the object's layout
// in declared order, threading a field environment scoped to this one
// instance through condition and length lookups.
func (in *Interpreter) decodeObject(ctx context.Context, d *Descriptor) (*Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	env := make(map[string]any, len(d.shape.fields))
	for i := range d.Layout {
		f := &d.Layout[i]

		if f.Cond != nil {
			ok, err := in.conditionHolds(f.Cond, env)
			if err != nil {
				return nil, fmt.Errorf("field %q of %q: %w", f.Names[0], d.Name, err)
			}
			if !ok {
				// Skipped fields consume no bytes and stay present as nil.
				in.logger.DebugContext(ctx, "skipping optional field",
					"object", d.Name, "field", f.Names[0],
					"condition", f.Cond.Field, "expected", f.Cond.Expected)
				for _, name := range f.Names {
					env[name] = nil
				}
				continue
			}
		}

		val, err := in.decodeValue(ctx, f.Type, env)
		if err != nil {
			return nil, fmt.Errorf("field %q of %q: %w", f.Names[0], d.Name, err)
		}
		for _, name := range f.Names {
			env[name] = val
		}
	}
	return newRecord(d.shape, env), nil
}

// conditionHolds evaluates a compiled optional condition against the
// already-decoded siblings. The comparison kind was fixed at compile time;
// a value of the wrong shape here is a hard error, never a default.
func (in *Interpreter) conditionHolds(cond *Condition, env map[string]any) (bool, error) {
	val, ok := env[cond.Field]
	if !ok {
		return false, decodeErrf("condition field %q has not been decoded", cond.Field)
	}
	switch cond.Kind {
	case CondEnum:
		e, ok := val.(*hdmvalue.Enum)
		if !ok {
			return false, decodeErrf("condition field %q is not an enum value (%T)", cond.Field, val)
		}
		return e.Is(cond.Expected), nil
	case CondFlag:
		set, ok := val.(hdmvalue.FlagSet)
		if !ok {
			return false, decodeErrf("condition field %q is not a flag set (%T)", cond.Field, val)
		}
		return set.Test(cond.Expected), nil
	}
	return false, decodeErrf("condition on %q has unknown kind", cond.Field)
}

// decodeValue dispatches on the compiled kind of a type name. Indirection
// chains (object field naming a container naming a primitive) resolve
// through the registry one hop per call.
func (in *Interpreter) decodeValue(ctx context.Context, typeName string, env map[string]any) (any, error) {
	d, ok := in.registry.Lookup(typeName)
	if !ok {
		return nil, decodeErrf("type %q is not declared", typeName)
	}
	switch d.Kind {
	case KindInt, KindFloat, KindComplex, KindEnum, KindFlag:
		return in.decodePrimitive(d)
	case KindVector, KindList:
		return in.decodeContainer(ctx, d, env)
	case KindObject:
		return in.decodeObject(ctx, d)
	}
	return nil, decodeErrf("type %q has unknown kind %s", typeName, d.Kind)
}

// decodePrimitive reads width*count bytes at the cursor and interprets them
// per the descriptor. A count above one yields an ordered slice; enum and
// flag values are mapped through their schema-owned tables.
func (in *Interpreter) decodePrimitive(d *Descriptor) (any, error) {
	raw, err := in.readBytes(d.Width * d.Count)
	if err != nil {
		return nil, fmt.Errorf("reading %s %q: %w", d.Kind, d.Name, err)
	}

	if d.Count == 1 {
		return in.decodeScalar(d, raw)
	}

	switch d.Kind {
	case KindInt:
		out := make([]int64, d.Count)
		for i := range out {
			v, err := in.decodeScalar(d, raw[i*d.Width:])
			if err != nil {
				return nil, err
			}
			out[i] = v.(int64)
		}
		return out, nil
	case KindFloat:
		out := make([]float64, d.Count)
		for i := range out {
			v, err := in.decodeScalar(d, raw[i*d.Width:])
			if err != nil {
				return nil, err
			}
			out[i] = v.(float64)
		}
		return out, nil
	case KindComplex:
		out := make([]complex128, d.Count)
		for i := range out {
			v, err := in.decodeScalar(d, raw[i*d.Width:])
			if err != nil {
				return nil, err
			}
			out[i] = v.(complex128)
		}
		return out, nil
	}
	return nil, decodeErrf("type %q: count is not valid for %s", d.Name, d.Kind)
}

// decodeScalar interprets one element's bytes per the descriptor kind.
func (in *Interpreter) decodeScalar(d *Descriptor, raw []byte) (any, error) {
	switch d.Kind {
	case KindInt:
		if d.Signed {
			return hdmvalue.ReadInt(raw, d.Width)
		}
		return hdmvalue.ReadUint(raw, d.Width)
	case KindFloat:
		return hdmvalue.ReadFloat(raw, d.Width)
	case KindComplex:
		return hdmvalue.ReadComplex(raw, d.Width)
	case KindEnum:
		v, err := hdmvalue.ReadUint(raw, d.Width)
		if err != nil {
			return nil, err
		}
		e, err := d.Enum.Lookup(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownEnumValue, err)
		}
		return e, nil
	case KindFlag:
		v, err := hdmvalue.ReadUint(raw, d.Width)
		if err != nil {
			return nil, err
		}
		return d.Flags.Resolve(v), nil
	}
	return nil, decodeErrf("type %q: %s is not a scalar kind", d.Name, d.Kind)
}

// decodeContainer resolves the element count, then decodes the elements.
// Numeric bases are read in one contiguous pass; object and container
// bases recurse element by element with the same enclosing environment.
func (in *Interpreter) decodeContainer(ctx context.Context, d *Descriptor, env map[string]any) (any, error) {
	n, err := in.resolveLength(d, env)
	if err != nil {
		return nil, err
	}

	base, ok := in.registry.Lookup(d.Base)
	if !ok {
		return nil, decodeErrf("%s %q: base type %q is not declared", d.Kind, d.Name, d.Base)
	}

	if d.Kind == KindVector {
		return in.decodeVector(d, base, n)
	}

	// List: ordered, possibly heterogeneous elements.
	if n == 0 {
		return []any{}, nil
	}
	elems := make([]any, n)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		elem, err := in.decodeValue(ctx, d.Base, env)
		if err != nil {
			return nil, fmt.Errorf("element %d of %q: %w", i, d.Name, err)
		}
		elems[i] = elem
	}
	if n == 1 {
		// Historical surface behavior: a one-element container collapses
		// to its bare element.
		return elems[0], nil
	}
	return elems, nil
}

// decodeVector bulk-reads n contiguous numeric elements.
func (in *Interpreter) decodeVector(d, base *Descriptor, n int) (any, error) {
	var raw []byte
	if n > 0 {
		var err error
		raw, err = in.readBytes(base.Width * n)
		if err != nil {
			return nil, fmt.Errorf("reading %d elements of vector %q: %w", n, d.Name, err)
		}
	}

	if n == 1 {
		return in.decodeScalar(base, raw)
	}

	switch base.Kind {
	case KindInt:
		out := make([]int64, n)
		for i := range out {
			v, err := in.decodeScalar(base, raw[i*base.Width:])
			if err != nil {
				return nil, err
			}
			out[i] = v.(int64)
		}
		return out, nil
	case KindFloat:
		out := make([]float64, n)
		for i := range out {
			v, err := in.decodeScalar(base, raw[i*base.Width:])
			if err != nil {
				return nil, err
			}
			out[i] = v.(float64)
		}
		return out, nil
	case KindComplex:
		out := make([]complex128, n)
		for i := range out {
			v, err := in.decodeScalar(base, raw[i*base.Width:])
			if err != nil {
				return nil, err
			}
			out[i] = v.(complex128)
		}
		return out, nil
	}
	return nil, decodeErrf("vector %q: base %q is not numeric", d.Name, base.Name)
}

// resolveLength turns a compiled Length into a concrete element count,
// looking field references up in the enclosing object's environment. A
// missing or non-integer reference fails loudly; it is a schema or
// programming error, never a zero default.
func (in *Interpreter) resolveLength(d *Descriptor, env map[string]any) (int, error) {
	if d.Length.FieldRef == "" {
		return d.Length.Literal, nil
	}
	val, ok := env[d.Length.FieldRef]
	if !ok {
		return 0, decodeErrf("%s %q: length field %q has not been decoded", d.Kind, d.Name, d.Length.FieldRef)
	}
	n, ok := val.(int64)
	if !ok {
		return 0, decodeErrf("%s %q: length field %q is not an integer (%T)", d.Kind, d.Name, d.Length.FieldRef, val)
	}
	if n < 0 {
		return 0, decodeErrf("%s %q: length field %q is negative (%d)", d.Kind, d.Name, d.Length.FieldRef, n)
	}
	return int(n), nil
}

// readBytes pulls exactly n bytes from the cursor, mapping stream
// exhaustion onto the decode error taxonomy.
func (in *Interpreter) readBytes(n int) ([]byte, error) {
	raw, err := in.stream.ReadBytes(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: wanted %d more bytes", ErrShortPayload, n)
		}
		return nil, decodeErrf("reading %d bytes: %v", n, err)
	}
	return raw, nil
}
