package custody

import (
	"encoding/json"

	"github.com/iov-one/custody/errors"
)

// Handler executes one kind of message, for example a vault withdrawal.
// Check decides whether a transaction may enter the mempool and Deliver
// applies it to the block state.
type Handler interface {
	Checker
	Deliverer
}

// Checker is the Check half of a Handler. Decorators receive the next
// step of the chain as a Checker.
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer is the Deliver half of a Handler.
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator runs around the rest of the handler chain. Signature checks,
// panic recovery and savepoints are decorators.
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Registry binds message types to handlers. Registering with a message
// value instead of a path keeps the route and the message in sync.
type Registry interface {
	Handle(Msg, Handler)
}

// Options is the app_state of the genesis file, keyed by extension.
type Options map[string]json.RawMessage

// ReadOptions decodes the JSON under key into obj. A missing key leaves obj
// untouched.
func (o Options) ReadOptions(key string, obj interface{}) error {
	raw, ok := o[key]
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "options %q: %s", key, err)
	}
	return nil
}

// Initializer loads the genesis state of an extension.
type Initializer interface {
	FromGenesis(Options, KVStore) error
}
