package errors

import (
	"errors"
	"fmt"
)

// SuccessABCICode is the code of a successful ABCI response.
const SuccessABCICode = 0

// Errors without a registered code share code 1. Outside of debug mode
// their message is hidden as well.
const (
	internalABCICode uint32 = 1
	internalABCILog         = "internal error"
)

// ABCIInfo returns the code and log of the ABCI response for err. Debug
// mode prints the full chain with stack traces and reveals the message of
// unregistered errors.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if errIsNil(err) {
		return SuccessABCICode, ""
	}
	code := abciCode(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalABCICode:
		return code, internalABCILog
	default:
		return code, err.Error()
	}
}

type coder interface {
	ABCICode() uint32
}

// abciCode returns the code of the first error in the cause chain that has
// one.
func abciCode(err error) uint32 {
	if errIsNil(err) {
		return SuccessABCICode
	}
	for ; err != nil; err = unwrap(err) {
		if c, ok := err.(coder); ok {
			return c.ABCICode()
		}
	}
	return internalABCICode
}

// Redact hides errors that have no registered code, and panics, behind a
// generic internal error. Debug mode returns err unchanged.
func Redact(err error, debug bool) error {
	if debug {
		return err
	}
	if ErrPanic.Is(err) || abciCode(err) == internalABCICode {
		return errors.New(internalABCILog)
	}
	return err
}
