package hdmvalue

// FlagTable maps declared flag names to single-bit masks: the i-th declared
// value owns bit 1<<i. Like EnumTable, it is built once per compiled schema.
type FlagTable struct {
	name   string
	values []string
	masks  map[string]int64
}

// NewFlagTable creates a table for the declared value list.
func NewFlagTable(name string, values []string) *FlagTable {
	t := &FlagTable{
		name:   name,
		values: values,
		masks:  make(map[string]int64, len(values)),
	}
	for i, v := range values {
		t.masks[v] = 1 << i
	}
	return t
}

// Name returns the flag type's name.
func (t *FlagTable) Name() string { return t.name }

// Values returns the declared flag names in declaration order.
func (t *FlagTable) Values() []string { return t.values }

// Has reports whether name is one of the declared flags.
func (t *FlagTable) Has(name string) bool {
	_, ok := t.masks[name]
	return ok
}

// Resolve tests every declared bit against the raw integer. Set bits with no
// declared name are not exposed; only schema-declared flags appear.
func (t *FlagTable) Resolve(raw int64) FlagSet {
	set := make(FlagSet, len(t.values))
	for _, v := range t.values {
		set[v] = raw&t.masks[v] != 0
	}
	return set
}

// FlagSet is the decoded form of a flag field: one boolean per declared
// flag name.
type FlagSet map[string]bool

// Test reports whether the named flag is set. Undeclared names test false.
func (f FlagSet) Test(name string) bool { return f[name] }
