package models

import "sort"

// Mask replaces every targeted value regardless of its original type.
const Mask = "***"

// Field is one named value inside a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered set of fields with unique names.
type Record []Field

// NewRecord builds a record from fields in the given order.
func NewRecord(fields ...Field) Record {
	return Record(fields)
}

// F is shorthand for constructing a Field.
func F(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// Get returns the value stored under name.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether the record carries name as a key.
func (r Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Set replaces the value under an existing name and reports whether the
// name was present. Set never adds a field.
func (r Record) Set(name string, v Value) bool {
	for i := range r {
		if r[i].Name == name {
			r[i].Value = v
			return true
		}
	}
	return false
}

// Names returns the field names in record order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// Equal compares names, order and values.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i].Name != o[i].Name || !r[i].Value.Equal(o[i].Value) {
			return false
		}
	}
	return true
}

// RecordSet is the ordered collection of records decoded from one file.
type RecordSet []Record

// Clone deep-copies every record.
func (rs RecordSet) Clone() RecordSet {
	if rs == nil {
		return nil
	}
	out := make(RecordSet, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}

// Equal compares two record sets record by record.
func (rs RecordSet) Equal(o RecordSet) bool {
	if len(rs) != len(o) {
		return false
	}
	for i := range rs {
		if !rs[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// ColumnType is the declared scalar type of a typed column.
type ColumnType string

const (
	ColumnText    ColumnType = "text"
	ColumnBool    ColumnType = "bool"
	ColumnInt8    ColumnType = "int8"
	ColumnInt16   ColumnType = "int16"
	ColumnInt32   ColumnType = "int32"
	ColumnInt64   ColumnType = "int64"
	ColumnUint8   ColumnType = "uint8"
	ColumnUint16  ColumnType = "uint16"
	ColumnUint32  ColumnType = "uint32"
	ColumnUint64  ColumnType = "uint64"
	ColumnFloat32 ColumnType = "float32"
	ColumnFloat64 ColumnType = "float64"
)

// Column describes one entry of a Schema.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Schema is the ordered column list of a typed container. A nil Schema
// means the container carries no column declarations.
type Schema []Column

// Index returns the position of the named column or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Clone copies the schema; nil stays nil.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	copy(out, s)
	return out
}

// FieldSet is the set of PII field names requested for masking.
type FieldSet map[string]struct{}

// NewFieldSet builds a set from names; duplicates collapse.
func NewFieldSet(names ...string) FieldSet {
	fs := make(FieldSet, len(names))
	for _, n := range names {
		fs[n] = struct{}{}
	}
	return fs
}

func (fs FieldSet) Contains(name string) bool {
	_, ok := fs[name]
	return ok
}

// Names returns the set members sorted.
func (fs FieldSet) Names() []string {
	names := make([]string, 0, len(fs))
	for n := range fs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
