package store

import (
	"bytes"

	"github.com/google/btree"
)

// btreeDegree is small because cache wraps only live for one transaction
// or one block.
const btreeDegree = 2

// MemStore returns an in-memory store with nothing underneath. It is used
// in tests and to dry run genesis files.
func MemStore() CacheableKVStore {
	base := EmptyKVStore{}
	return NewBTreeCacheWrap(base, base.NewBatch(), nil)
}

// ShowOpser exposes every operation recorded by a store, in order.
type ShowOpser interface {
	ShowOps() []Op
}

// LogableStore returns a memory store together with the log of all writes
// made to it. Tests use it to assert that a failed operation wrote nothing.
func LogableStore() (CacheableKVStore, ShowOpser) {
	base := EmptyKVStore{}
	batch := NewNonAtomicBatch(base)
	return NewBTreeCacheWrap(base, batch, nil), batch
}

// BTreeCacheWrap keeps pending writes in a btree over a read only parent.
// Reads see the pending writes first. Write flushes them through the batch
// and Discard drops them.
type BTreeCacheWrap struct {
	pending *btree.BTree
	free    *btree.FreeList
	parent  ReadOnlyKVStore
	batch   Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap wraps parent. All writes are queued in batch, which is
// the only path back to the parent. A non nil free list is shared with the
// new btree.
func NewBTreeCacheWrap(parent ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(btree.DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		pending: btree.NewWithFreeList(btreeDegree, free),
		free:    free,
		parent:  parent,
		batch:   batch,
	}
}

// CacheWrap nests another cache on top of this one.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a batch writing into this cache.
func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write flushes all pending operations to the parent and empties the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops all pending operations and returns their nodes to the
// free list.
func (b BTreeCacheWrap) Discard() {
	for b.pending.DeleteMin() != nil {
	}
}

func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.pending.ReplaceOrInsert(entry{key: key, value: value})
	return b.batch.Set(key, value)
}

func (b BTreeCacheWrap) Delete(key []byte) error {
	b.pending.ReplaceOrInsert(entry{key: key, deleted: true})
	return b.batch.Delete(key)
}

func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	if e, ok := b.lookup(key); ok {
		if e.deleted {
			return nil, nil
		}
		return e.value, nil
	}
	return b.parent.Get(key)
}

func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	if e, ok := b.lookup(key); ok {
		return !e.deleted, nil
	}
	return b.parent.Has(key)
}

func (b BTreeCacheWrap) lookup(key []byte) (entry, bool) {
	found := b.pending.Get(entry{key: key})
	if found == nil {
		return entry{}, false
	}
	return found.(entry), true
}

// Iterator merges pending entries in [start, end) with the parent's, in
// ascending key order.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	it, err := b.parent.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(cachedRange(b.pending, start, end, false), it, false)
}

// ReverseIterator is Iterator in descending key order.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	it, err := b.parent.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(cachedRange(b.pending, start, end, true), it, true)
}

// entry is a pending write. A deleted entry hides the parent's value.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

var _ btree.Item = entry{}

func (e entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(entry).key) < 0
}
