package custody

// ReadOnlyKVStore reads keys and key ranges. Handlers and queries only ever
// see state through it or through KVStore.
type ReadOnlyKVStore interface {
	// Get returns nil when the key is absent.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)

	// Iterator walks [start, end) in ascending key order. A nil bound is
	// open. The range must not be written while the iterator is in use.
	Iterator(start, end []byte) (Iterator, error)

	// ReverseIterator walks [start, end) in descending key order.
	ReverseIterator(start, end []byte) (Iterator, error)
}

// SetDeleter writes single keys. Callers must not modify key or value
// after the call.
type SetDeleter interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStore is the read and write view every backend provides.
type KVStore interface {
	ReadOnlyKVStore
	SetDeleter
	NewBatch() Batch
}

// Batch collects writes and applies them together on Write.
type Batch interface {
	SetDeleter
	Write() error
}

// Iterator is a cursor over a key range:
//
//	it, err := db.Iterator(start, end)
//	if err != nil {
//		return err
//	}
//	defer it.Close()
//	for it.Valid() {
//		use(it.Key(), it.Value())
//		if err := it.Next(); err != nil {
//			return err
//		}
//	}
//
// Key, Value and Next must only be called while Valid is true. Once
// invalid, an iterator stays invalid. Returned slices are read only.
type Iterator interface {
	Valid() bool
	Next() error
	Key() []byte
	Value() []byte
	Close()
}

// CacheableKVStore can stack a scratch layer on top of itself.
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}

// KVCacheWrap buffers writes over a parent store. Reads see the buffered
// writes first. Write pushes them to the parent, Discard drops them. A
// cache can be wrapped again, which is how a failed transaction is rolled
// back without touching the block state.
type KVCacheWrap interface {
	CacheableKVStore
	Write() error
	Discard()
}

// CommitKVStore is the persistent root of the state. Changes go through a
// CacheWrap and become durable with Commit, which also yields the app hash.
type CommitKVStore interface {
	// Get reads the last committed state.
	Get(key []byte) ([]byte, error)
	CacheWrap() KVCacheWrap

	// Commit persists the next version.
	Commit() (CommitID, error)

	// LoadLatestVersion restores the last complete commit, dropping a
	// partially written one.
	LoadLatestVersion() error
	LatestVersion() (CommitID, error)
}

// CommitID identifies a committed version by height and root hash.
type CommitID struct {
	Version int64
	Hash    []byte
}
