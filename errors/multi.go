package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If no non-nil errors are given, nil is returned. If exactly one non-nil
// error is given, it is returned unchanged. Otherwise a multi error carrying
// all errors in order is returned. Multi errors are flattened.
func Append(errs ...error) error {
	var all []error
	for _, e := range errs {
		if errIsNil(e) {
			continue
		}
		if u, ok := e.(unpacker); ok {
			all = append(all, u.Unpack()...)
			continue
		}
		all = append(all, e)
	}
	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	}
	return multiErr(all)
}

type multiErr []error

func (m multiErr) Error() string {
	points := make([]string, len(m))
	for i, err := range m {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n", len(m), strings.Join(points, "\n\t"))
}

// Unpack returns all errors carried.
func (m multiErr) Unpack() []error {
	return m
}

// ABCICode returns the code of the first error, consistent with a fail fast
// approach.
func (m multiErr) ABCICode() uint32 {
	return abciCode(m[0])
}
