package hdmstruct

// SchemaDump is a marshal-friendly summary of a compiled registry. Types
// appear in sorted name order so repeated dumps of the same schema are
// byte-identical.
type SchemaDump struct {
	Message string     `yaml:"message" json:"message"`
	Types   []TypeDump `yaml:"types" json:"types"`
}

// TypeDump summarizes one compiled descriptor. Fields that do not apply to
// the type's kind are left at their zero values and omitted on marshal.
type TypeDump struct {
	Name   string      `yaml:"name" json:"name"`
	Kind   string      `yaml:"kind" json:"kind"`
	Width  int         `yaml:"width,omitempty" json:"width,omitempty"`
	Signed bool        `yaml:"signed,omitempty" json:"signed,omitempty"`
	Count  int         `yaml:"count,omitempty" json:"count,omitempty"`
	Start  int64       `yaml:"start,omitempty" json:"start,omitempty"`
	Values []string    `yaml:"values,omitempty" json:"values,omitempty"`
	Base   string      `yaml:"base,omitempty" json:"base,omitempty"`
	Size   string      `yaml:"size,omitempty" json:"size,omitempty"`
	Fields []FieldDump `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// FieldDump summarizes one layout entry of an object type.
type FieldDump struct {
	Names   []string `yaml:"names" json:"names"`
	Type    string   `yaml:"type" json:"type"`
	OnField string   `yaml:"on_field,omitempty" json:"on_field,omitempty"`
	OnValue string   `yaml:"on_value,omitempty" json:"on_value,omitempty"`
}

// Dump renders the compiled schema as a deterministic summary, suitable
// for yaml or json marshaling.
func (r *Registry) Dump() SchemaDump {
	dump := SchemaDump{Message: r.message}
	for _, name := range r.TypeNames() {
		d := r.types[name]
		td := TypeDump{
			Name: d.Name,
			Kind: d.Kind.String(),
			Base: d.Base,
		}
		switch d.Kind {
		case KindInt:
			td.Width = d.Width
			td.Signed = d.Signed
			td.Count = d.Count
		case KindFloat, KindComplex:
			td.Width = d.Width
			td.Count = d.Count
		case KindEnum:
			td.Width = d.Width
			td.Start = d.Enum.Start()
			td.Values = d.Enum.Values()
		case KindFlag:
			td.Width = d.Width
			td.Values = d.Flags.Values()
		case KindVector, KindList:
			if d.Length.FieldRef != "" {
				td.Size = d.Length.FieldRef
			} else {
				td.Count = d.Length.Literal
			}
		case KindObject:
			for _, f := range d.Layout {
				fd := FieldDump{Names: f.Names, Type: f.Type}
				if f.Cond != nil {
					fd.OnField = f.Cond.Field
					fd.OnValue = f.Cond.Expected
				}
				td.Fields = append(td.Fields, fd)
			}
		}
		dump.Types = append(dump.Types, td)
	}
	return dump
}
