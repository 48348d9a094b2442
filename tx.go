package custody

import (
	"reflect"

	"github.com/iov-one/custody/errors"
)

// Marshaller serializes a value. Value receivers are enough, which is why
// it is separate from Persistent.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent round trips through its binary form. Unmarshal usually needs
// a pointer receiver.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Msg is the state transition a transaction asks for, such as a vault
// withdrawal. Authentication lives in the enclosing Tx.
type Msg interface {
	Persistent

	// Path routes the message to its handler. It matches
	// [0-9A-Za-z_\-/]+, for example "vault/withdraw".
	Path() string

	// Validate checks everything that can be checked without reading the
	// store.
	Validate() error
}

// Tx is what clients submit: one message plus whatever the decorators need,
// signatures in particular.
type Tx interface {
	Persistent
	GetMsg() (Msg, error)
}

// TxDecoder parses the raw bytes of a transaction.
type TxDecoder func(raw []byte) (Tx, error)

// GetPath is the message path of tx, or "(missing)" for use in logs.
func GetPath(tx Tx) string {
	if msg, err := tx.GetMsg(); err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// LoadMsg validates the message of tx and copies it into dst, which must
// point to a message of the expected type:
//
//	var msg CreateVaultMsg
//	if err := custody.LoadMsg(tx, &msg); err != nil {
//		return nil, err
//	}
func LoadMsg(tx Tx, dst interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}
	if msg == nil {
		return errors.Wrap(errors.ErrMsg, "no message")
	}

	out := reflect.ValueOf(dst)
	if out.Kind() != reflect.Ptr {
		return errors.Wrap(errors.ErrType, "destination must be a pointer")
	}
	want := out.Elem().Type()
	src := reflect.ValueOf(msg)
	// Messages travel as pointers while callers usually hold a value.
	if src.Type() != want && src.Kind() == reflect.Ptr {
		src = src.Elem()
	}
	if src.Type() != want {
		return errors.Wrapf(errors.ErrType, "want %s message, got %T", want, msg)
	}

	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	out.Elem().Set(src)
	return nil
}
