package container

import (
	"fmt"

	"github.com/pkg/errors"
)

// A FormatError describes a header that can't be read or written, such as a
// bad magic number, an unknown version, or an algorithm index out of bounds.
type FormatError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *FormatError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// IsFormatError reports whether any error in err's chain is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func formatError(field string, value interface{}, reason string) error {
	return &FormatError{Field: field, Value: value, Reason: reason}
}

// Returned by ReadLegacy when the first line isn't a hex encoded IV.
var ErrNotLegacy = errors.New("not a legacy database")
