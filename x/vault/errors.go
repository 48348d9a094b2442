package vault

import (
	"github.com/iov-one/custody/errors"
)

var (
	// ErrWrongSignerCount is returned when the number of signers or
	// witnesses does not agree with the declared or stored signer count.
	ErrWrongSignerCount = errors.Register(100, "wrong amount of signers")

	// ErrMissingSignature is returned when a required witness did not sign
	// the transaction.
	ErrMissingSignature = errors.Register(101, "missing signature")

	// ErrWrongSigner is returned when a witness does not match the signer
	// stored at the same position.
	ErrWrongSigner = errors.Register(102, "wrong signer")

	ErrInsufficientBalance = errors.Register(103, "insufficient vault balance")
	ErrBalanceOverflow     = errors.Register(104, "vault balance overflow")
)
