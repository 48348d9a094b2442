package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Root errors shared by all packages. Codes are part of the ABCI responses
// and must stay stable.
var (
	ErrUnauthorized = Register(2, "unauthorized")
	ErrNotFound     = Register(3, "not found")

	// ErrMsg is a message that cannot be handled at all.
	ErrMsg = Register(4, "invalid message")
	// ErrModel is a stored object that cannot be used.
	ErrModel = Register(5, "invalid model")

	// ErrDuplicate is a conflict on a unique key or index.
	ErrDuplicate = Register(6, "duplicate")

	// ErrHuman marks a code path that correct code never reaches.
	ErrHuman = Register(7, "coding error")

	ErrEmpty = Register(9, "value is empty")
	ErrState = Register(10, "invalid state")
	ErrType  = Register(11, "invalid type")

	// ErrInsufficientAmount is a balance or fee that does not cover the
	// requested amount.
	ErrInsufficientAmount = Register(12, "insufficient amount")
	ErrAmount             = Register(13, "invalid amount")
	ErrInput              = Register(14, "invalid input")
	ErrOverflow           = Register(16, "an operation cannot be completed due to value overflow")
	ErrDatabase           = Register(17, "database")

	// ErrPanic comes only from Recover. It is always redacted outside of
	// debug mode.
	ErrPanic = Register(111222, "panic")
)

// Code 1 is reserved for errors without a registered code.
var registry = map[uint32]*Error{
	internalABCICode: {code: internalABCICode, desc: "internal"},
}

// Register declares a root error. Extensions register their own codes at
// package initialization. Reusing a code panics.
func Register(code uint32, description string) *Error {
	if prev, ok := registry[code]; ok {
		panic(fmt.Sprintf("error code %d already registered as %q", code, prev.desc))
	}
	e := &Error{code: code, desc: description}
	registry[code] = e
	return e
}

// Error is a root error. Errors created at runtime wrap one of them, which
// gives the ABCI code and lets callers test the kind with Is.
type Error struct {
	code uint32
	desc string
}

func (e *Error) Error() string {
	return e.desc
}

func (e *Error) ABCICode() uint32 {
	return e.code
}

// Is reports whether err is, wraps or, for a multi error, carries kind. A
// nil kind matches only nil errors, including typed nil pointers.
func (kind *Error) Is(err error) bool {
	if kind == nil {
		return errIsNil(err)
	}
	for ; err != nil; err = unwrap(err) {
		if err == error(kind) {
			return true
		}
		if u, ok := err.(unpacker); ok {
			for _, e := range u.Unpack() {
				if kind.Is(e) {
					return true
				}
			}
			return false
		}
	}
	return false
}

// Wrap prefixes err with description. A stack trace is attached at the
// innermost wrap. Errors without a registered code are reported as
// internal. Wrap(nil, ...) is nil.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	return &wrappedError{msg: description, parent: err}
}

func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithType wraps err with the Go type of obj.
func WithType(err error, obj interface{}) error {
	return Wrapf(err, "%T", obj)
}

// Recover turns a panic into an ErrPanic assigned to *err. It only works
// when deferred.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.parent.Error()
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Format prints the stack trace for %+v.
func (e *wrappedError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s: %+v", e.msg, e.parent)
		return
	}
	fmt.Fprint(s, e.Error())
}

type causer interface {
	Cause() error
}

type unpacker interface {
	Unpack() []error
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// unwrap returns the cause of err or nil.
func unwrap(err error) error {
	if c, ok := err.(causer); ok {
		return c.Cause()
	}
	return nil
}

// stackTrace returns the outermost stack trace in the cause chain.
func stackTrace(err error) errors.StackTrace {
	for ; err != nil; err = unwrap(err) {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}
	}
	return nil
}

// errIsNil also catches typed nil pointers hidden in an error interface.
func errIsNil(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
