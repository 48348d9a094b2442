// Package assert holds the few assertions used across the custody tests.
// Every helper stops the test on failure.
package assert

import (
	"reflect"

	"github.com/iov-one/custody/errors"
)

// Tester is the part of testing.TB the helpers need.
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
}

// Nil fails unless value is nil or a nil pointer, slice, map, chan, func
// or interface.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// %+v prints the stack trace of wrapped errors.
		t.Fatalf("want nil, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

// Equal compares with reflect.DeepEqual.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal\nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// Panics fails unless fn panics.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("want panic")
		}
	}()
	fn()
}

// IsErr fails unless got is want or want.Is(got) holds.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	if kind, ok := want.(interface{ Is(error) bool }); ok && kind.Is(got) {
		return
	}
	t.Fatalf("want %q, got %+v", want, got)
}

// FieldError checks the errors collected for fieldName in err. With a nil
// want there must be none, otherwise there must be exactly one of that kind.
func FieldError(t Tester, err error, fieldName string, want *errors.Error) {
	t.Helper()
	errs := errors.FieldErrors(err, fieldName)

	if want == nil {
		if len(errs) != 0 {
			t.Fatalf("field %q: want no error, got %q", fieldName, errs)
		}
		return
	}
	switch len(errs) {
	case 0:
		t.Fatalf("field %q: want %q, got no error", fieldName, want)
	case 1:
		if !want.Is(errs[0]) {
			t.Fatalf("field %q: want %q, got %q", fieldName, want, errs[0])
		}
	default:
		t.Fatalf("field %q: want one error, got %q", fieldName, errs)
	}
}
