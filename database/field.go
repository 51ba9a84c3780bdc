package database

import (
	"strings"
)

// The semantic type of a field, which decides how its value is stored.
type FieldType int

const (
	Text FieldType = iota
	Number
	Boolean
	Multiline
)

func (t FieldType) String() string {
	switch t {
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Multiline:
		return "multiline"
	default:
		return "text"
	}
}

// The column type each field type is stored as.
func (t FieldType) sqlType() string {
	switch t {
	case Number:
		return "real"
	case Boolean:
		return "integer"
	case Multiline:
		return "blob"
	default:
		return "text"
	}
}

// Maps a declared column type back onto a field type. Unknown types are text.
func fieldTypeFromSQL(declared string) FieldType {
	switch strings.ToUpper(strings.TrimSpace(declared)) {
	case "REAL", "DOUBLE", "FLOAT", "NUMERIC":
		return Number
	case "INTEGER", "INT", "BOOLEAN":
		return Boolean
	case "BLOB":
		return Multiline
	default:
		return Text
	}
}

// The value kind a field of this type holds once loaded.
func (t FieldType) kind() Kind {
	switch t {
	case Number:
		return KindNumber
	case Boolean:
		return KindBoolean
	case Multiline:
		return KindBytes
	default:
		return KindText
	}
}

// A single named, typed attribute of an entry.
type Field struct {
	Name  string
	Type  FieldType
	Value Value
}

func NewField(name string, t FieldType, v Value) *Field {
	return &Field{Name: name, Type: t, Value: v}
}

func TextField(name, value string) *Field {
	return NewField(name, Text, TextValue(value))
}

func NumberField(name string, value float64) *Field {
	return NewField(name, Number, NumberValue(value))
}

func BoolField(name string, value bool) *Field {
	return NewField(name, Boolean, BoolValue(value))
}

func MultilineField(name, value string) *Field {
	return NewField(name, Multiline, BytesValue([]byte(value)))
}

// The field's value as text.
func (f *Field) String() string {
	return f.Value.String()
}

func (f *Field) IsName() bool {
	return strings.EqualFold(f.Name, "name")
}

func (f *Field) IsPassword() bool {
	return strings.EqualFold(f.Name, "password")
}

func (f *Field) IsMultiline() bool {
	return f.Type == Multiline
}

// A field named like a one-time password secret.
func (f *Field) IsOTP() bool {
	return strings.EqualFold(f.Name, "otp") || strings.EqualFold(f.Name, "2fa")
}

// Equal reports whether both fields have the same name, type, and value.
func (f *Field) Equal(other *Field) bool {
	return f.Name == other.Name && f.Type == other.Type && f.Value.Equal(other.Value)
}

// Converts a stored value into the canonical kind for this field's type,
// decoding newline markers in textual data. Empty values, as read from an empty
// table, become zero. Values that don't convert are kept as text.
func (t FieldType) decode(v Value) Value {
	switch t.kind() {
	case KindNumber:
		f, err := v.Float()
		if err != nil && v.String() != "" {
			return TextValue(v.String())
		}
		return NumberValue(f)
	case KindBoolean:
		b, err := v.Bool()
		if err != nil && v.String() != "" {
			return TextValue(v.String())
		}
		return BoolValue(b)
	case KindBytes:
		return BytesValue([]byte(decodeNewlines(v.String())))
	default:
		return TextValue(decodeNewlines(v.String()))
	}
}
