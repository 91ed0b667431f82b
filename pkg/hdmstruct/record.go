package hdmstruct

import (
	"fmt"

	"github.com/twinfer/hdm-plugin/pkg/hdmvalue"
)

// recordShape is the interned field table of one object type: output names
// in declared layout order. It is built once at schema compile time and
// shared by every record of that type.
type recordShape struct {
	typeName string
	fields   []string
}

// Record is one decoded object: an instance of a schema-declared object
// type, with one value per layout output name. Records are owned by the
// caller once returned; they hold no reference back to the parser.
type Record struct {
	shape  *recordShape
	values map[string]any
}

func newRecord(shape *recordShape, values map[string]any) *Record {
	return &Record{shape: shape, values: values}
}

// TypeName returns the name of the object type this record instantiates.
func (r *Record) TypeName() string { return r.shape.typeName }

// FieldNames returns the record's field names in declared layout order.
func (r *Record) FieldNames() []string { return r.shape.fields }

// Get returns the value of a field. A skipped optional field is present
// with a nil value; an undeclared name reports ok == false.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Map renders the record as plain JSON-friendly Go values: nested records
// become maps, enums become {"name", "value"} pairs, flag sets become
// name→bool maps, and complex values become {"real", "imag"} pairs.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.shape.fields))
	for _, name := range r.shape.fields {
		out[name] = renderValue(r.values[name])
	}
	return out
}

func (r *Record) String() string {
	return fmt.Sprintf("Record(%s)", r.shape.typeName)
}

func renderValue(v any) any {
	switch val := v.(type) {
	case *Record:
		return val.Map()
	case *hdmvalue.Enum:
		return map[string]any{"name": val.Name(), "value": val.Value()}
	case hdmvalue.FlagSet:
		out := make(map[string]bool, len(val))
		for name, set := range val {
			out[name] = set
		}
		return out
	case complex128:
		return map[string]any{"real": real(val), "imag": imag(val)}
	case []complex128:
		out := make([]any, len(val))
		for i, c := range val {
			out[i] = map[string]any{"real": real(c), "imag": imag(c)}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = renderValue(item)
		}
		return out
	default:
		return val
	}
}
