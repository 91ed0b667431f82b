// Package hdmstruct implements the HDM decode engine: header loading,
// schema compilation into an immutable registry, and payload decoding
// into records. The hdm package offers a friendlier surface over it.
package hdmstruct

import (
	"bytes"
	"fmt"

	"github.com/twinfer/hdm-plugin/pkg/pyliteral"
)

// HeaderEndMarker separates the textual header from the binary payload.
// Everything before it is restricted-literal header text; everything after
// its line is payload, consumed strictly left to right.
const HeaderEndMarker = "#header end"

// Header is the typed form of a file's embedded schema declaration.
type Header struct {
	Message MessageDef
	Types   map[string]TypeDef
}

// MessageDef names the root type decoded per message, plus any
// message-level metadata carried alongside it in the header.
type MessageDef struct {
	Type string
	Meta map[string]any
}

// TypeDef is one declared type, still in header terms. The Type Registry
// compiles these into Descriptors.
type TypeDef struct {
	Tag    string // int, float, complex, enum, flag, vector, list, object
	Bytes  int
	Signed bool
	Count  int
	Start  int64    // enum only
	Values []string // enum and flag only
	Base   string   // vector and list only
	Size   any      // vector and list only: int64 literal or sibling field name
	Layout []FieldDef
}

// FieldDef is one entry of an object layout. A single parse result is
// stored under every name in Names.
type FieldDef struct {
	Names    []string
	Type     string
	Optional *OptionalDef
}

// OptionalDef conditions a field's presence on an earlier-decoded sibling.
type OptionalDef struct {
	Field    string
	Expected string
}

// LoadHeader splits raw file bytes at the end-of-header marker, parses the
// header text as a restricted literal structure, and returns the typed
// header plus the untouched payload bytes. The header text is hostile
// input: it is parsed as pure data, never evaluated.
func LoadHeader(data []byte) (*Header, []byte, error) {
	idx := bytes.Index(data, []byte(HeaderEndMarker))
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: %q marker not found", ErrNotHDM, HeaderEndMarker)
	}
	payload := data[idx+len(HeaderEndMarker):]
	if nl := bytes.IndexByte(payload, '\n'); nl >= 0 {
		payload = payload[nl+1:]
	} else {
		payload = nil
	}

	val, err := pyliteral.Parse(string(data[:idx]))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrHeaderSyntax, err)
	}

	hdr, err := headerFromLiteral(val)
	if err != nil {
		return nil, nil, err
	}
	return hdr, payload, nil
}

// headerFromLiteral converts the generic literal value into typed header
// structures, validating shape as it goes.
func headerFromLiteral(val any) (*Header, error) {
	root, ok := val.(map[string]any)
	if !ok {
		return nil, headerErrf("header must be a mapping, got %T", val)
	}

	msgRaw, ok := root["message"]
	if !ok {
		return nil, headerErrf("header has no 'message' entry")
	}
	msgMap, ok := msgRaw.(map[string]any)
	if !ok {
		return nil, headerErrf("'message' must be a mapping, got %T", msgRaw)
	}
	msgType, ok := msgMap["type"].(string)
	if !ok || msgType == "" {
		return nil, headerErrf("'message' has no 'type' name")
	}
	meta := make(map[string]any, len(msgMap)-1)
	for k, v := range msgMap {
		if k != "type" {
			meta[k] = v
		}
	}

	typesRaw, ok := root["types"]
	if !ok {
		return nil, headerErrf("header has no 'types' entry")
	}
	typesMap, ok := typesRaw.(map[string]any)
	if !ok {
		return nil, headerErrf("'types' must be a mapping, got %T", typesRaw)
	}

	hdr := &Header{
		Message: MessageDef{Type: msgType, Meta: meta},
		Types:   make(map[string]TypeDef, len(typesMap)),
	}
	for name, defRaw := range typesMap {
		def, err := typeDefFromLiteral(name, defRaw)
		if err != nil {
			return nil, err
		}
		hdr.Types[name] = def
	}
	return hdr, nil
}

func typeDefFromLiteral(name string, raw any) (TypeDef, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return TypeDef{}, headerErrf("type %q must be a mapping, got %T", name, raw)
	}
	tag, ok := m["type"].(string)
	if !ok || tag == "" {
		return TypeDef{}, headerErrf("type %q has no 'type' tag", name)
	}

	def := TypeDef{Tag: tag, Signed: true, Count: 1}

	if v, present := m["bytes"]; present {
		n, ok := asInt(v)
		if !ok {
			return TypeDef{}, headerErrf("type %q: 'bytes' must be an integer, got %T", name, v)
		}
		def.Bytes = int(n)
	}
	if v, present := m["signed"]; present {
		b, ok := v.(bool)
		if !ok {
			return TypeDef{}, headerErrf("type %q: 'signed' must be a boolean, got %T", name, v)
		}
		def.Signed = b
	}
	if v, present := m["count"]; present {
		n, ok := asInt(v)
		if !ok {
			return TypeDef{}, headerErrf("type %q: 'count' must be an integer, got %T", name, v)
		}
		def.Count = int(n)
	}
	if v, present := m["start"]; present {
		n, ok := asInt(v)
		if !ok {
			return TypeDef{}, headerErrf("type %q: 'start' must be an integer, got %T", name, v)
		}
		def.Start = n
	}
	if v, present := m["values"]; present {
		list, ok := v.([]any)
		if !ok {
			return TypeDef{}, headerErrf("type %q: 'values' must be a list, got %T", name, v)
		}
		def.Values = make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return TypeDef{}, headerErrf("type %q: value %d must be a string, got %T", name, i, item)
			}
			def.Values[i] = s
		}
	}
	if v, present := m["base"]; present {
		s, ok := v.(string)
		if !ok {
			return TypeDef{}, headerErrf("type %q: 'base' must be a type name, got %T", name, v)
		}
		def.Base = s
	}
	if v, present := m["size"]; present {
		switch sz := v.(type) {
		case int64:
			def.Size = sz
		case string:
			def.Size = sz
		default:
			return TypeDef{}, headerErrf("type %q: 'size' must be an integer or field name, got %T", name, v)
		}
	}
	if v, present := m["layout"]; present {
		list, ok := v.([]any)
		if !ok {
			return TypeDef{}, headerErrf("type %q: 'layout' must be a list, got %T", name, v)
		}
		def.Layout = make([]FieldDef, len(list))
		for i, item := range list {
			field, err := fieldDefFromLiteral(name, i, item)
			if err != nil {
				return TypeDef{}, err
			}
			def.Layout[i] = field
		}
	}
	return def, nil
}

func fieldDefFromLiteral(typeName string, index int, raw any) (FieldDef, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return FieldDef{}, headerErrf("type %q: layout entry %d must be a mapping, got %T", typeName, index, raw)
	}

	var field FieldDef
	if v, present := m["name"]; present {
		s, ok := v.(string)
		if !ok {
			return FieldDef{}, headerErrf("type %q: layout entry %d: 'name' must be a string", typeName, index)
		}
		field.Names = []string{s}
	}
	if v, present := m["names"]; present {
		list, ok := v.([]any)
		if !ok {
			return FieldDef{}, headerErrf("type %q: layout entry %d: 'names' must be a list", typeName, index)
		}
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return FieldDef{}, headerErrf("type %q: layout entry %d: alias must be a string, got %T", typeName, index, item)
			}
			field.Names = append(field.Names, s)
		}
	}
	if len(field.Names) == 0 {
		return FieldDef{}, headerErrf("type %q: layout entry %d has no 'name' or 'names'", typeName, index)
	}

	ft, ok := m["type"].(string)
	if !ok || ft == "" {
		return FieldDef{}, headerErrf("type %q: field %q has no 'type'", typeName, field.Names[0])
	}
	field.Type = ft

	if v, present := m["optional"]; present {
		pair, ok := v.([]any)
		if !ok || len(pair) != 2 {
			return FieldDef{}, headerErrf("type %q: field %q: 'optional' must be a (field, value) pair", typeName, field.Names[0])
		}
		condField, ok1 := pair[0].(string)
		expected, ok2 := pair[1].(string)
		if !ok1 || !ok2 {
			return FieldDef{}, headerErrf("type %q: field %q: 'optional' entries must be strings", typeName, field.Names[0])
		}
		field.Optional = &OptionalDef{Field: condField, Expected: expected}
	}
	return field, nil
}

// asInt accepts literal integers, tolerating whole-number floats the way
// the header's producer sometimes writes them.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
