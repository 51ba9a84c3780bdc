package database

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// The kinds of data a Value can hold.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBoolean
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// A Value holds exactly one of text, a number, a boolean, or raw bytes. The zero
// Value is empty text.
type Value struct {
	kind   Kind
	text   string
	number float64
	flag   bool
	bytes  []byte
}

func TextValue(s string) Value    { return Value{kind: KindText, text: s} }
func NumberValue(f float64) Value { return Value{kind: KindNumber, number: f} }
func BoolValue(b bool) Value      { return Value{kind: KindBoolean, flag: b} }
func BytesValue(b []byte) Value   { return Value{kind: KindBytes, bytes: append([]byte(nil), b...)} }
func (v Value) Kind() Kind        { return v.kind }

// String renders the value as text. Numbers use their shortest exact form.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.number, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.flag)
	case KindBytes:
		return string(v.bytes)
	default:
		return v.text
	}
}

// Float converts the value to a number. Text and bytes must parse as one, and
// booleans become 1 or 0.
func (v Value) Float() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.number, nil
	case KindBoolean:
		if v.flag {
			return 1, nil
		}
		return 0, nil
	default:
		s := strings.TrimSpace(v.String())
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Errorf("%q is not a number", s)
		}
		return f, nil
	}
}

// Bool converts the value to a boolean. Numbers are true when non-zero, and
// text is either a boolean literal or a number.
func (v Value) Bool() (bool, error) {
	switch v.kind {
	case KindBoolean:
		return v.flag, nil
	case KindNumber:
		return v.number != 0, nil
	default:
		s := strings.TrimSpace(v.String())
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
			return f != 0, nil
		}
		return false, errors.Errorf("%q is not a boolean", s)
	}
}

// Bytes returns a copy of the value's raw bytes, or its text form for other
// kinds.
func (v Value) Bytes() []byte {
	if v.kind == KindBytes {
		return append([]byte(nil), v.bytes...)
	}
	return []byte(v.String())
}

// Equal reports whether both values have the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindNumber:
		return v.number == other.number
	case KindBoolean:
		return v.flag == other.flag
	case KindBytes:
		return string(v.bytes) == string(other.bytes)
	default:
		return v.text == other.text
	}
}

// Zeroes any secret material the value holds. Text can't be wiped in place, so
// it's only dropped.
func (v *Value) wipe() {
	for i := range v.bytes {
		v.bytes[i] = 0
	}
	*v = Value{}
}
