package sigs

import (
	"github.com/iov-one/custody/errors"
)

// x/sigs reserves 120 ~ 129.
var (
	// ErrInvalidSequence is returned when a signature carries a sequence
	// that does not match the stored user sequence.
	ErrInvalidSequence = errors.Register(120, "invalid sequence number")
)
