package gamestore

import (
	"fmt"
	"time"
)

// ColumnType is the explicit, closed union of column type descriptors. It is
// built once per record-type registration from each field's default value,
// so no backend ever needs runtime type inspection of stored data.
type ColumnType interface {
	isColumnType()
}

// TextColumn stores plain strings (TEXT affinity).
type TextColumn struct{}

// IntegerColumn stores 64-bit integers (INTEGER affinity).
type IntegerColumn struct{}

// RealColumn stores floating-point numbers (REAL affinity).
type RealColumn struct{}

// BoolColumn stores booleans (INTEGER 0/1 in relational storage).
type BoolColumn struct{}

// TimeColumn stores timestamps as ISO-8601 text.
type TimeColumn struct{}

// ListColumn stores sequences, JSON-encoded in relational storage. Elem
// describes the element type; nil means untyped scalars.
type ListColumn struct {
	Elem ColumnType
}

// EnumColumn stores one member of a closed enumeration.
type EnumColumn struct {
	Enum *EnumType
}

func (TextColumn) isColumnType()    {}
func (IntegerColumn) isColumnType() {}
func (RealColumn) isColumnType()    {}
func (BoolColumn) isColumnType()    {}
func (TimeColumn) isColumnType()    {}
func (ListColumn) isColumnType()    {}
func (EnumColumn) isColumnType()    {}

// Enum is one enumeration member: a symbolic name plus its underlying value.
type Enum struct {
	Name  string
	Value any
}

// EnumType is the closed member set of an enumeration. Codecs use it to map
// stored names or underlying values back to members.
type EnumType struct {
	Name    string
	Members []Enum
}

// NewEnumType creates an enumeration type from its members.
func NewEnumType(name string, members ...Enum) *EnumType {
	return &EnumType{Name: name, Members: members}
}

// Member returns the member with the given symbolic name.
func (t *EnumType) Member(name string) (Enum, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Enum{}, false
}

// MemberByValue returns the member with the given underlying value.
func (t *EnumType) MemberByValue(value any) (Enum, bool) {
	for _, m := range t.Members {
		if looseEqual(m.Value, value) {
			return m, true
		}
	}
	return Enum{}, false
}

// Field is one declared record field: name, column type and default value.
type Field struct {
	Name    string
	Type    ColumnType
	Default any
}

// FieldOf declares a field whose column type is inferred from the runtime
// type of its default value: string→Text, integer→Integer, float→Real,
// bool→Bool, time→Time, Enum→Enum, slice→List. A nil default yields a Text
// column; use the typed constructors below when the default carries no type
// information.
func FieldOf(name string, def any) Field {
	return Field{Name: name, Type: inferColumnType(def), Default: def}
}

// TimeField declares a nullable timestamp field with no default.
func TimeField(name string) Field {
	return Field{Name: name, Type: TimeColumn{}}
}

// RealField declares a nullable floating-point field with no default.
func RealField(name string) Field {
	return Field{Name: name, Type: RealColumn{}}
}

// IntegerField declares a nullable integer field with no default.
func IntegerField(name string) Field {
	return Field{Name: name, Type: IntegerColumn{}}
}

// EnumField declares an enumeration field. A zero-valued def means no
// default.
func EnumField(name string, enum *EnumType, def ...Enum) Field {
	f := Field{Name: name, Type: EnumColumn{Enum: enum}}
	if len(def) > 0 {
		f.Default = def[0]
	}
	return f
}

// ListField declares a sequence field with the given element type and an
// empty-list default.
func ListField(name string, elem ColumnType) Field {
	return Field{Name: name, Type: ListColumn{Elem: elem}, Default: []any{}}
}

func inferColumnType(def any) ColumnType {
	switch v := def.(type) {
	case string:
		return TextColumn{}
	case int, int32, int64:
		return IntegerColumn{}
	case float32, float64:
		return RealColumn{}
	case bool:
		return BoolColumn{}
	case time.Time, *time.Time:
		return TimeColumn{}
	case Enum:
		return EnumColumn{}
	case []any:
		if len(v) > 0 {
			return ListColumn{Elem: inferColumnType(v[0])}
		}
		return ListColumn{}
	case []string:
		return ListColumn{Elem: TextColumn{}}
	case []Enum:
		if len(v) > 0 {
			return ListColumn{Elem: EnumColumn{}}
		}
		return ListColumn{}
	default:
		return TextColumn{}
	}
}

// Schema describes a record shape: the table (entity) name plus the ordered
// declared fields. Descriptors are immutable once a backend has been built
// for them. The relational backend derives its DDL from the descriptor; the
// file and document backends use it for typed decoding.
type Schema struct {
	Table  string
	Fields []Field
}

// NewSchema validates and creates a schema descriptor.
func NewSchema(table string, fields ...Field) (*Schema, error) {
	if table == "" {
		return nil, NewSchemaError("", "missing table name")
	}
	if len(fields) == 0 {
		return nil, NewSchemaError(table, "no fields declared")
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, NewSchemaError(table, "field with empty name")
		}
		if isMetaColumn(f.Name) {
			return nil, NewSchemaError(table, fmt.Sprintf("field %s collides with a managed column", f.Name))
		}
		if seen[f.Name] {
			return nil, NewSchemaError(table, "duplicate field "+f.Name)
		}
		seen[f.Name] = true
	}
	return &Schema{Table: table, Fields: fields}, nil
}

// MustSchema is NewSchema for statically known descriptors; it panics on a
// malformed one.
func MustSchema(table string, fields ...Field) *Schema {
	s, err := NewSchema(table, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Field returns the declared field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// NormalizeFields returns the stored shape of a field map: declared columns
// only, with defaults substituted for missing keys. Every backend runs
// created fields through this so undeclared keys never persist and schema
// defaults are filterable everywhere.
func (s *Schema) NormalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		if v, ok := fields[f.Name]; ok {
			out[f.Name] = v
			continue
		}
		out[f.Name] = f.Default
	}
	return out
}

// HasColumn reports whether name is a declared field or a managed column.
func (s *Schema) HasColumn(name string) bool {
	if isMetaColumn(name) {
		return true
	}
	_, ok := s.Field(name)
	return ok
}

func isMetaColumn(name string) bool {
	switch name {
	case "id", "created_at", "updated_at", "deleted_at":
		return true
	}
	return false
}
