package store

import (
	"github.com/iov-one/custody/errors"
)

// SliceIterator walks models that are already loaded, in slice order.
type SliceIterator struct {
	data []Model
	pos  int
}

var _ Iterator = (*SliceIterator)(nil)

func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{data: data}
}

func (s *SliceIterator) Valid() bool {
	return s.pos < len(s.data)
}

// Next fails with ErrDatabase once the iterator is exhausted or closed.
func (s *SliceIterator) Next() error {
	if !s.Valid() {
		return errors.Wrap(errors.ErrDatabase, "iterator passed the end")
	}
	s.pos++
	return nil
}

// Key panics when the iterator is not valid.
func (s *SliceIterator) Key() []byte {
	return s.current().Key
}

// Value panics when the iterator is not valid.
func (s *SliceIterator) Value() []byte {
	return s.current().Value
}

func (s *SliceIterator) current() Model {
	if !s.Valid() {
		panic("slice iterator is not valid")
	}
	return s.data[s.pos]
}

func (s *SliceIterator) Close() {
	s.data = nil
}

// EmptyKVStore holds nothing and drops every write. It is the bottom layer
// of MemStore.
type EmptyKVStore struct{}

var _ KVStore = EmptyKVStore{}

func (EmptyKVStore) Get([]byte) ([]byte, error)  { return nil, nil }
func (EmptyKVStore) Has([]byte) (bool, error)    { return false, nil }
func (EmptyKVStore) Set(key, value []byte) error { return nil }
func (EmptyKVStore) Delete([]byte) error         { return nil }

func (EmptyKVStore) Iterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

func (EmptyKVStore) ReverseIterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

func (e EmptyKVStore) NewBatch() Batch {
	return NewNonAtomicBatch(e)
}

// Op is a recorded set or delete.
type Op struct {
	del   bool
	key   []byte
	value []byte
}

func SetOp(key, value []byte) Op {
	return Op{key: key, value: value}
}

func DelOp(key []byte) Op {
	return Op{del: true, key: key}
}

// Apply replays the operation on out.
func (o Op) Apply(out SetDeleter) error {
	if o.del {
		return out.Delete(o.key)
	}
	return out.Set(o.key, o.value)
}

func (o Op) IsSetOp() bool {
	return !o.del
}

func (o Op) Key() []byte {
	return o.key
}

// Value is nil for a delete.
func (o Op) Value() []byte {
	return o.value
}

// NonAtomicBatch queues operations and replays them one by one on Write. A
// failure halfway leaves the earlier operations applied, so persistent
// stores must not rely on it for atomicity.
type NonAtomicBatch struct {
	out SetDeleter
	ops []Op
}

var _ Batch = (*NonAtomicBatch)(nil)

func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{out: out}
}

func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

// Write applies the queued operations in order and empties the queue.
func (b *NonAtomicBatch) Write() error {
	for i, op := range b.ops {
		if err := op.Apply(b.out); err != nil {
			b.ops = b.ops[i:]
			return err
		}
	}
	b.ops = nil
	return nil
}

// ShowOps returns the queued operations without applying them.
func (b *NonAtomicBatch) ShowOps() []Op {
	return b.ops
}
