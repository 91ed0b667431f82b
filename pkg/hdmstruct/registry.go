package hdmstruct

import (
	"fmt"
	"slices"

	"github.com/twinfer/hdm-plugin/pkg/hdmvalue"
)

// Kind tags a compiled type descriptor.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindComplex
	KindEnum
	KindFlag
	KindVector
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	case KindEnum:
		return "enum"
	case KindFlag:
		return "flag"
	case KindVector:
		return "vector"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Length is a container's element count: either a compile-time literal or a
// runtime reference to an earlier sibling field of the enclosing object.
type Length struct {
	Literal  int
	FieldRef string // non-empty means runtime lookup
}

// CondKind records which comparison an optional condition performs. It is
// fixed at compile time from the condition field's declared type, keeping
// the decode path free of type inspection.
type CondKind int

const (
	CondEnum CondKind = iota // enumerator name comparison
	CondFlag                 // declared flag bit test
)

// Condition gates an optional field on an earlier-decoded sibling.
type Condition struct {
	Field    string
	Expected string
	Kind     CondKind
}

// FieldSpec is one compiled layout entry. A single decode populates every
// name in Names with the same value.
type FieldSpec struct {
	Names []string
	Type  string
	Cond  *Condition
}

// Descriptor is one compiled type. Only the fields relevant to its Kind
// are populated.
type Descriptor struct {
	Name   string
	Kind   Kind
	Width  int  // bytes per scalar element
	Signed bool // KindInt only
	Count  int  // adjacent scalar count, >= 1
	Enum   *hdmvalue.EnumTable
	Flags  *hdmvalue.FlagTable
	Base   string // containers
	Length Length // containers
	Layout []FieldSpec
	shape  *recordShape
}

// Registry is the compiled, immutable schema of one HDM file: every
// declared type as a Descriptor plus the designated root message type.
// Compilation never touches payload bytes; all schema problems surface
// here, before decoding starts.
type Registry struct {
	types   map[string]*Descriptor
	message string
	meta    map[string]any
}

// MessageType returns the root type name decoded per message.
func (r *Registry) MessageType() string { return r.message }

// MessageMeta returns message-level metadata carried by the header.
func (r *Registry) MessageMeta() map[string]any { return r.meta }

// Lookup returns the descriptor for a type name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.types[name]
	return d, ok
}

// TypeNames returns all declared type names, sorted.
func (r *Registry) TypeNames() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var intWidths = []int{1, 2, 4}
var floatWidths = []int{4, 8}
var complexWidths = []int{8, 16}

// Compile builds the registry from a loaded header. It is deterministic and
// total for well-formed schemas; any unknown tag or dangling reference is an
// immediate compile error.
func Compile(hdr *Header) (*Registry, error) {
	reg := &Registry{
		types:   make(map[string]*Descriptor, len(hdr.Types)),
		message: hdr.Message.Type,
		meta:    hdr.Message.Meta,
	}

	for name, def := range hdr.Types {
		d, err := compileType(name, def)
		if err != nil {
			return nil, err
		}
		reg.types[name] = d
	}

	for _, name := range reg.TypeNames() {
		if err := reg.validate(reg.types[name]); err != nil {
			return nil, err
		}
	}

	root, ok := reg.types[hdr.Message.Type]
	if !ok {
		return nil, schemaErrf("message type %q is not declared", hdr.Message.Type)
	}
	if root.Kind != KindObject {
		return nil, schemaErrf("message type %q must be an object, is %s", root.Name, root.Kind)
	}

	if err := reg.detectCycles(); err != nil {
		return nil, err
	}
	return reg, nil
}

// compileType checks a declaration's local properties and produces its
// descriptor. Cross-type references are validated afterwards.
func compileType(name string, def TypeDef) (*Descriptor, error) {
	d := &Descriptor{Name: name, Count: 1}

	switch def.Tag {
	case "int", "enum", "flag":
		if !slices.Contains(intWidths, def.Bytes) {
			return nil, schemaErrf("type %q: integer width must be 1, 2 or 4 bytes, got %d", name, def.Bytes)
		}
		d.Width = def.Bytes
	case "float":
		if !slices.Contains(floatWidths, def.Bytes) {
			return nil, schemaErrf("type %q: float width must be 4 or 8 bytes, got %d", name, def.Bytes)
		}
		d.Width = def.Bytes
	case "complex":
		if !slices.Contains(complexWidths, def.Bytes) {
			return nil, schemaErrf("type %q: complex width must be 8 or 16 bytes, got %d", name, def.Bytes)
		}
		d.Width = def.Bytes
	}

	switch def.Tag {
	case "int":
		d.Kind = KindInt
		d.Signed = def.Signed
		if def.Count < 1 {
			return nil, schemaErrf("type %q: count must be at least 1, got %d", name, def.Count)
		}
		d.Count = def.Count
	case "float":
		d.Kind = KindFloat
		if def.Count < 1 {
			return nil, schemaErrf("type %q: count must be at least 1, got %d", name, def.Count)
		}
		d.Count = def.Count
	case "complex":
		d.Kind = KindComplex
		if def.Count < 1 {
			return nil, schemaErrf("type %q: count must be at least 1, got %d", name, def.Count)
		}
		d.Count = def.Count
	case "enum":
		d.Kind = KindEnum
		if len(def.Values) == 0 {
			return nil, schemaErrf("enum %q declares no values", name)
		}
		d.Enum = hdmvalue.NewEnumTable(name, def.Start, def.Values)
	case "flag":
		d.Kind = KindFlag
		if len(def.Values) == 0 {
			return nil, schemaErrf("flag %q declares no values", name)
		}
		if len(def.Values) > def.Bytes*8 {
			return nil, schemaErrf("flag %q declares %d values, more than fit in %d bytes", name, len(def.Values), def.Bytes)
		}
		d.Flags = hdmvalue.NewFlagTable(name, def.Values)
	case "vector", "list":
		if def.Tag == "vector" {
			d.Kind = KindVector
		} else {
			d.Kind = KindList
		}
		if def.Base == "" {
			return nil, schemaErrf("%s %q has no base type", def.Tag, name)
		}
		d.Base = def.Base
		switch sz := def.Size.(type) {
		case int64:
			if sz < 0 {
				return nil, schemaErrf("%s %q: size must not be negative, got %d", def.Tag, name, sz)
			}
			d.Length = Length{Literal: int(sz)}
		case string:
			if sz == "" {
				return nil, schemaErrf("%s %q: size field name must not be empty", def.Tag, name)
			}
			d.Length = Length{FieldRef: sz}
		default:
			return nil, schemaErrf("%s %q has no size", def.Tag, name)
		}
	case "object":
		d.Kind = KindObject
		d.Layout = make([]FieldSpec, len(def.Layout))
		outputs := make([]string, 0, len(def.Layout))
		for i, f := range def.Layout {
			d.Layout[i] = FieldSpec{Names: slices.Clone(f.Names), Type: f.Type}
			outputs = append(outputs, f.Names...)
		}
		d.shape = &recordShape{typeName: name, fields: outputs}
	default:
		return nil, schemaErrf("type %q has unknown tag %q", name, def.Tag)
	}

	// The shorthand count applies to plain numerics only; containers cover
	// every other repetition.
	if def.Count != 1 && d.Kind != KindInt && d.Kind != KindFloat && d.Kind != KindComplex {
		return nil, schemaErrf("type %q: count is only valid on int, float and complex types", name)
	}

	// Carry the raw optional definitions over; they are resolved against
	// sibling types in validate, once every descriptor exists.
	if d.Kind == KindObject {
		for i, f := range def.Layout {
			if f.Optional != nil {
				d.Layout[i].Cond = &Condition{Field: f.Optional.Field, Expected: f.Optional.Expected}
			}
		}
	}
	return d, nil
}

// validate resolves a descriptor's cross-type references.
func (r *Registry) validate(d *Descriptor) error {
	switch d.Kind {
	case KindVector, KindList:
		base, ok := r.types[d.Base]
		if !ok {
			return schemaErrf("%s %q: base type %q is not declared", d.Kind, d.Name, d.Base)
		}
		if d.Kind == KindVector {
			switch base.Kind {
			case KindInt, KindFloat, KindComplex:
			default:
				return schemaErrf("vector %q: base type %q must be numeric, is %s", d.Name, d.Base, base.Kind)
			}
			if base.Count != 1 {
				return schemaErrf("vector %q: base type %q must be a single scalar", d.Name, d.Base)
			}
		}
	case KindObject:
		return r.validateLayout(d)
	}
	return nil
}

// validateLayout enforces the forward-only sibling rules of an object
// layout: a FieldRef length and an optional condition may only name fields
// that occur earlier in the same layout, and a condition field must be
// enum- or flag-typed so its comparison kind is fixed here.
func (r *Registry) validateLayout(d *Descriptor) error {
	typeOf := make(map[string]*Descriptor) // earlier output name -> descriptor

	for i := range d.Layout {
		f := &d.Layout[i]
		ft, ok := r.types[f.Type]
		if !ok {
			return schemaErrf("object %q: field %q references undeclared type %q", d.Name, f.Names[0], f.Type)
		}

		for _, ref := range r.lengthRefs(ft, nil) {
			refType, declared := typeOf[ref]
			if !declared {
				return schemaErrf("object %q: field %q: length reference %q must name an earlier sibling", d.Name, f.Names[0], ref)
			}
			if refType.Kind != KindInt || refType.Count != 1 {
				return schemaErrf("object %q: length reference %q must be a scalar integer field", d.Name, ref)
			}
		}

		if f.Cond != nil {
			condType, declared := typeOf[f.Cond.Field]
			if !declared {
				return schemaErrf("object %q: field %q: condition %q must name an earlier sibling", d.Name, f.Names[0], f.Cond.Field)
			}
			switch condType.Kind {
			case KindEnum:
				f.Cond.Kind = CondEnum
				if !slices.Contains(condType.Enum.Values(), f.Cond.Expected) {
					return schemaErrf("object %q: field %q: enum %q has no value %q", d.Name, f.Names[0], condType.Name, f.Cond.Expected)
				}
			case KindFlag:
				f.Cond.Kind = CondFlag
				if !condType.Flags.Has(f.Cond.Expected) {
					return schemaErrf("object %q: field %q: flag %q has no value %q", d.Name, f.Names[0], condType.Name, f.Cond.Expected)
				}
			default:
				return schemaErrf("object %q: field %q: condition field %q must be enum- or flag-typed, is %s", d.Name, f.Names[0], f.Cond.Field, condType.Kind)
			}
		}

		for _, name := range f.Names {
			typeOf[name] = ft
		}
	}
	return nil
}

// lengthRefs collects the FieldRef names a field of the given type resolves
// against its enclosing object: the type's own length if it is a container,
// plus any reachable through container bases. Nested objects stop the walk;
// their lengths resolve in their own scope.
func (r *Registry) lengthRefs(d *Descriptor, seen []string) []string {
	var refs []string
	for d != nil && (d.Kind == KindVector || d.Kind == KindList) {
		if slices.Contains(seen, d.Name) {
			return refs // cyclic container chain, reported by detectCycles
		}
		seen = append(seen, d.Name)
		if d.Length.FieldRef != "" {
			refs = append(refs, d.Length.FieldRef)
		}
		d = r.types[d.Base]
	}
	return refs
}

// detectCycles rejects schemas whose type graph loops without passing
// through a length-bounded list, since decoding such a type cannot
// terminate.
func (r *Registry) detectCycles() error {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[string]int, len(r.types))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case inProgress:
			return schemaErrf("type %q is part of a reference cycle", name)
		}
		state[name] = inProgress
		d := r.types[name]
		switch d.Kind {
		case KindVector:
			if err := visit(d.Base); err != nil {
				return err
			}
		case KindList:
			// A list repeats its base a bounded number of times, but the
			// base itself must still terminate.
			if err := visit(d.Base); err != nil {
				return err
			}
		case KindObject:
			for _, f := range d.Layout {
				if err := visit(f.Type); err != nil {
					return err
				}
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range r.TypeNames() {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
