package database

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// An Entry is one credential: an ordered list of fields, named by its first.
type Entry struct {
	fields []*Field
}

// NewEntry creates an entry from the given fields. Without any, it gets the
// default Name, Email, URL, Notes, and Password fields.
func NewEntry(fields ...*Field) *Entry {
	if len(fields) == 0 {
		fields = []*Field{
			TextField("Name", ""),
			TextField("Email", ""),
			TextField("URL", ""),
			MultilineField("Notes", ""),
			TextField("Password", ""),
		}
	}
	return &Entry{fields: fields}
}

// Name is the text of the entry's first field, or "" when it has none. Entries
// with an empty name aren't saved.
func (e *Entry) Name() string {
	if len(e.fields) == 0 {
		return ""
	}
	return e.fields[0].String()
}

// Fields returns the entry's fields in order. The slice is a copy but the
// fields aren't.
func (e *Entry) Fields() []*Field {
	fields := make([]*Field, len(e.fields))
	copy(fields, e.fields)
	return fields
}

func (e *Entry) Len() int {
	return len(e.fields)
}

func (e *Entry) FieldAt(i int) *Field {
	return e.fields[i]
}

// FieldNamed returns the first field whose name matches case-insensitively.
// When none does, it returns an empty field that isn't part of the entry.
func (e *Entry) FieldNamed(name string) *Field {
	for _, f := range e.fields {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return &Field{}
}

// HasField reports whether a field with the given name exists.
func (e *Entry) HasField(name string) bool {
	for _, f := range e.fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Password is the text of the entry's password field.
func (e *Entry) Password() string {
	return e.FieldNamed("password").String()
}

func (e *Entry) AddField(f *Field) {
	e.fields = append(e.fields, f)
}

// RemoveField removes the first field with the given name, reporting whether
// there was one.
func (e *Entry) RemoveField(name string) bool {
	for i, f := range e.fields {
		if strings.EqualFold(f.Name, name) {
			e.fields = append(e.fields[:i], e.fields[i+1:]...)
			return true
		}
	}
	return false
}

// Equal reports whether both entries have equal fields in the same order.
func (e *Entry) Equal(other *Entry) bool {
	if len(e.fields) != len(other.fields) {
		return false
	}
	for i := range e.fields {
		if !e.fields[i].Equal(other.fields[i]) {
			return false
		}
	}
	return true
}

// Returned by OTPCode when the entry has no one-time password field.
var ErrNoOTP = errors.New("entry has no one-time password field")

// OTPCode generates the current one-time password for the entry's otp or 2fa
// field, using a generator supplied by the host.
func (e *Entry) OTPCode(generator OTPGenerator, at time.Time) (string, error) {
	for _, f := range e.fields {
		if !f.IsOTP() {
			continue
		}

		otp, err := generator(f.String())
		if err != nil {
			return "", errors.Wrapf(err, "invalid one-time password field %q", f.Name)
		}
		return otp.Code(at)
	}
	return "", ErrNoOTP
}

func (e *Entry) wipe() {
	for _, f := range e.fields {
		if f.IsPassword() || f.IsOTP() {
			f.Value.wipe()
		}
	}
}
