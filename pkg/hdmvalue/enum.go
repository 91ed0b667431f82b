package hdmvalue

import "fmt"

// EnumTable maps raw stored integers to enumerator names. Tables are built
// once during schema compilation and owned by the compiled schema; there is
// no process-wide enum registry.
type EnumTable struct {
	name    string
	start   int64
	values  []string
	byValue map[int64]string
}

// NewEnumTable creates a table for the declared value list. The raw integer
// start+i names values[i].
func NewEnumTable(name string, start int64, values []string) *EnumTable {
	t := &EnumTable{
		name:    name,
		start:   start,
		values:  values,
		byValue: make(map[int64]string, len(values)),
	}
	for i, v := range values {
		t.byValue[start+int64(i)] = v
	}
	return t
}

// Name returns the enum type's name.
func (t *EnumTable) Name() string { return t.name }

// Start returns the raw integer naming the first declared value.
func (t *EnumTable) Start() int64 { return t.start }

// Values returns the declared enumerator names in declaration order.
func (t *EnumTable) Values() []string { return t.values }

// Lookup maps a raw stored integer to its enumerator. A raw value with no
// declared name is a decode error, never silently passed through.
func (t *EnumTable) Lookup(raw int64) (*Enum, error) {
	name, ok := t.byValue[raw]
	if !ok {
		return nil, fmt.Errorf("value %d has no enumerator in enum %q", raw, t.name)
	}
	return &Enum{name: name, value: raw, enumName: t.name}, nil
}

// Enum is one decoded enumerator: a raw stored integer resolved to its
// declared name.
type Enum struct {
	name     string
	value    int64
	enumName string
}

// Name returns the enumerator name.
func (e *Enum) Name() string { return e.name }

// Value returns the raw stored integer.
func (e *Enum) Value() int64 { return e.value }

// EnumName returns the name of the enum type this value belongs to.
func (e *Enum) EnumName() string { return e.enumName }

// Is reports whether the enumerator has the given name.
func (e *Enum) Is(name string) bool { return e.name == name }

func (e *Enum) String() string {
	return fmt.Sprintf("%s.%s", e.enumName, e.name)
}
