package server

import (
	"os"
	"path/filepath"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store/badger"
	"github.com/iov-one/custody/store/iavl"
)

// Supported storage backends for the application state.
const (
	BackendIAVL   = "iavl"
	BackendBadger = "badger"
)

const dirData = "data"

// OpenStore opens the application state stored under home with the
// given backend. The returned function releases the database.
func OpenStore(backend, home string) (custody.CommitKVStore, func(), error) {
	dir := filepath.Join(home, dirData)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, errors.Wrap(err, "cannot create data directory")
	}

	switch backend {
	case BackendIAVL:
		kv := iavl.NewCommitStore(dir, "abci")
		return kv, kv.Close, nil
	case BackendBadger:
		kv, err := badger.NewCommitStore(filepath.Join(dir, "abci-badger"))
		if err != nil {
			return nil, nil, errors.Wrap(err, "cannot open badger store")
		}
		return kv, func() { _ = kv.Close() }, nil
	default:
		return nil, nil, errors.Wrapf(errors.ErrInput, "unknown database backend %q", backend)
	}
}
