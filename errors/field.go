package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field attaches err to a field of a validated value and returns nil for a
// nil err. Name fields the Go way, for example Amount, and address list
// elements by index, for example Signers.2. The description is formatted
// with args when any are given.
func Field(name string, err error, description string, args ...interface{}) error {
	if errIsNil(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) != 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{field: name, desc: description, parent: err}
}

// AppendField adds a field error to errs. Both may be nil.
func AppendField(errs error, name string, err error) error {
	return Append(errs, Field(name, err, ""))
}

// FieldErrors collects every error reported for the named field, looking
// through wraps and multi errors.
func FieldErrors(err error, name string) []error {
	var found []error
	for ; !errIsNil(err); err = unwrap(err) {
		if f, ok := err.(*fieldError); ok && f.field == name {
			return append(found, err)
		}
		if u, ok := err.(unpacker); ok {
			for _, e := range u.Unpack() {
				found = append(found, FieldErrors(e, name)...)
			}
			return found
		}
	}
	return found
}

type fieldError struct {
	field  string
	desc   string
	parent error
}

func (e *fieldError) Error() string {
	if e.desc == "" {
		return fmt.Sprintf("field %q: %s", e.field, e.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", e.field, e.desc, e.parent)
}

func (e *fieldError) Cause() error {
	return e.parent
}

func (e *fieldError) Field() string {
	return e.field
}
