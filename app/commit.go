package app

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// CommitStore keeps two caches over the committed state. Block execution
// writes into deliver, mempool validation into check. Commit flushes
// deliver and starts both over.
type CommitStore struct {
	committed custody.CommitKVStore
	deliver   custody.KVCacheWrap
	check     custody.KVCacheWrap
}

// NewCommitStore panics if the latest version cannot be loaded.
func NewCommitStore(store custody.CommitKVStore) *CommitStore {
	if err := store.LoadLatestVersion(); err != nil {
		panic(err)
	}
	cs := &CommitStore{committed: store}
	cs.reset()
	return cs
}

func (cs *CommitStore) reset() {
	cs.deliver = cs.committed.CacheWrap()
	cs.check = cs.committed.CacheWrap()
}

// CommitInfo returns the height and hash of the last commit.
func (cs *CommitStore) CommitInfo() (custody.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Commit persists everything delivered since the previous commit. Pending
// check state is dropped.
func (cs *CommitStore) Commit() (custody.CommitID, error) {
	if err := cs.deliver.Write(); err != nil {
		return custody.CommitID{}, errors.Wrap(err, "write deliver cache")
	}
	cs.check.Discard()

	id, err := cs.committed.Commit()
	if err != nil {
		return id, errors.Wrap(err, "commit")
	}
	cs.reset()
	return id, nil
}

func (cs *CommitStore) CheckStore() custody.CacheableKVStore {
	return cs.check
}

func (cs *CommitStore) DeliverStore() custody.CacheableKVStore {
	return cs.deliver
}

// Keys starting with "_cs:" belong to the application itself.
const chainIDKey = "_cs:chainID"

// mustLoadChainID returns "" before genesis. It panics on store failure.
func mustLoadChainID(db custody.ReadOnlyKVStore) string {
	raw, err := db.Get([]byte(chainIDKey))
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// saveChainID records the chain id once. A second call fails with
// ErrUnauthorized.
func saveChainID(db custody.KVStore, chainID string) error {
	if !custody.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	key := []byte(chainIDKey)
	switch exists, err := db.Has(key); {
	case err != nil:
		return errors.Wrap(err, "load chain id")
	case exists:
		return errors.Wrap(errors.ErrUnauthorized, "chain id cannot change after genesis")
	}
	return errors.Wrap(db.Set(key, []byte(chainID)), "save chain id")
}
