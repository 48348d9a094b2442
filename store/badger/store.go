/*
Package badger provides a commit store persisted in a badger database.

All writes of a block are kept in memory until Commit. Commit streams them
through a badger write batch, which splits them over as many transactions as
the database limits require, and then records the new version. The version
record is written last, so it never names a block whose data is missing. A
crash in the middle of a commit can leave part of the unfinished block on
disk. The application hash is a chain: sha256 over the previous hash and
every operation of the block, in the order they were written.
*/
package badger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/dgraph-io/badger/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

// DefaultCacheSize is the number of committed values kept in the read cache
const DefaultCacheSize = 4096

var (
	dataPrefix = []byte("d:")
	// dataEnd is the first key after all data keys.
	dataEnd    = []byte("d;")
	versionKey = []byte("m:version")
)

// CommitStore manages a badger committed state
type CommitStore struct {
	db    *badger.DB
	cache *lru.Cache

	// work holds all writes since the last commit, ops is the
	// ordered list of them.
	work store.BTreeCacheWrap
	ops  *store.NonAtomicBatch
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore opens or creates a database in given directory
func NewCommitStore(dir string) (*CommitStore, error) {
	return open(badger.DefaultOptions(dir).WithLogger(nil))
}

// MockCommitStore creates an in-memory store for testing
func MockCommitStore() (*CommitStore, error) {
	return open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func open(opts badger.Options) (*CommitStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open badger: %s", err)
	}
	cache, err := lru.New(DefaultCacheSize)
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrHuman, "lru: %s", err)
	}
	s := &CommitStore{db: db, cache: cache}
	s.resetWork()
	return s, nil
}

func (s *CommitStore) resetWork() {
	// The batch never writes, its operations are read at commit time.
	s.ops = store.NewNonAtomicBatch(store.EmptyKVStore{})
	s.work = store.NewBTreeCacheWrap(committed{s}, s.ops, nil)
}

// Close releases the database.
func (s *CommitStore) Close() error {
	return s.db.Close()
}

// Get returns the value at last committed state
// returns nil iff key doesn't exist.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	if v, ok := s.cache.Get(string(key)); ok {
		return v.([]byte), nil
	}
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dataKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	s.cache.Add(string(key), val)
	return val, nil
}

// CacheWrap returns a cache over all uncommitted writes. Writing it makes
// the changes part of the next Commit.
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	return s.work.CacheWrap()
}

// Commit persists all written changes as the next version.
func (s *CommitStore) Commit() (store.CommitID, error) {
	prev, err := s.LatestVersion()
	if err != nil {
		return store.CommitID{}, err
	}
	ops := s.ops.ShowOps()

	h := sha256.New()
	h.Write(prev.Hash)
	for _, op := range ops {
		h.Write(encodeOp(op))
	}
	next := store.CommitID{
		Version: prev.Version + 1,
		Hash:    h.Sum(nil),
	}

	if err := s.writeOps(ops); err != nil {
		return store.CommitID{}, errors.Wrapf(errors.ErrDatabase, "commit version %d: %s", next.Version, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(versionKey, encodeCommitID(next))
	})
	if err != nil {
		return store.CommitID{}, errors.Wrapf(errors.ErrDatabase, "commit version %d: %s", next.Version, err)
	}

	for _, op := range ops {
		s.cache.Remove(string(op.Key()))
	}
	s.resetWork()
	return next, nil
}

// writeOps applies the operations in order. Large blocks do not fit into a
// single badger transaction, the write batch commits them in several.
func (s *CommitStore) writeOps(ops []store.Op) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, op := range ops {
		var err error
		if op.IsSetOp() {
			err = wb.Set(dataKey(op.Key()), op.Value())
		} else {
			err = wb.Delete(dataKey(op.Key()))
		}
		if err != nil {
			return err
		}
	}
	return wb.Flush()
}

// LoadLatestVersion drops all uncommitted writes. Badger recovers its own
// state on open, so the last committed version is always the stored one.
func (s *CommitStore) LoadLatestVersion() error {
	s.cache.Purge()
	s.resetWork()
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s *CommitStore) LatestVersion() (store.CommitID, error) {
	var id store.CommitID
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(versionKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, err = decodeCommitID(raw)
		return err
	})
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return id, nil
}

// committed is a read only view of the last committed state
type committed struct {
	s *CommitStore
}

var _ store.ReadOnlyKVStore = committed{}

func (c committed) Get(key []byte) ([]byte, error) {
	return c.s.Get(key)
}

func (c committed) Has(key []byte) (bool, error) {
	v, err := c.s.Get(key)
	return v != nil, err
}

func (c committed) Iterator(start, end []byte) (store.Iterator, error) {
	return c.scan(start, end, false)
}

func (c committed) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return c.scan(start, end, true)
}

// scan loads the whole range from a single badger snapshot.
func (c committed) scan(start, end []byte, reverse bool) (store.Iterator, error) {
	lower := dataKey(start)
	upper := dataEnd
	if end != nil {
		upper = dataKey(end)
	}

	var res []store.Model
	err := c.s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
			Reverse:        reverse,
			Prefix:         dataPrefix,
		})
		defer it.Close()

		if reverse {
			it.Seek(upper)
		} else {
			it.Seek(lower)
		}
		for ; it.ValidForPrefix(dataPrefix); it.Next() {
			item := it.Item()
			k := item.Key()
			if !inRange(k, lower, upper) {
				if reverse && bytes.Compare(k, upper) >= 0 {
					// the seek lands on the exclusive end itself
					continue
				}
				break
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			res = append(res, store.Pair(item.KeyCopy(nil)[len(dataPrefix):], v))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.NewSliceIterator(res), nil
}

// inRange checks lower <= key < upper.
func inRange(key, lower, upper []byte) bool {
	return bytes.Compare(key, lower) >= 0 && bytes.Compare(key, upper) < 0
}

func dataKey(key []byte) []byte {
	k := make([]byte, 0, len(dataPrefix)+len(key))
	return append(append(k, dataPrefix...), key...)
}

// encodeOp is the hashed form of an operation: kind, key and value, each
// length prefixed.
func encodeOp(op store.Op) []byte {
	kind := byte(0)
	if op.IsSetOp() {
		kind = 1
	}
	buf := make([]byte, 0, 1+16+len(op.Key())+len(op.Value()))
	buf = append(buf, kind)
	buf = appendLen(buf, op.Key())
	buf = appendLen(buf, op.Value())
	return buf
}

func appendLen(buf, b []byte) []byte {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(b)))
	return append(append(buf, size[:]...), b...)
}

func encodeCommitID(id store.CommitID) []byte {
	raw := make([]byte, 8, 8+len(id.Hash))
	binary.BigEndian.PutUint64(raw, uint64(id.Version))
	return append(raw, id.Hash...)
}

func decodeCommitID(raw []byte) (store.CommitID, error) {
	if len(raw) < 8 {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, "malformed version record")
	}
	return store.CommitID{
		Version: int64(binary.BigEndian.Uint64(raw[:8])),
		Hash:    append([]byte(nil), raw[8:]...),
	}, nil
}
