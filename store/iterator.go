package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/custody/errors"
)

// cachedRange returns a snapshot of all cache items within [start, end), in
// the requested order. Taking a snapshot keeps the iterator valid when the
// cache is written to while iterating.
func cachedRange(bt *btree.BTree, start, end []byte, reverse bool) []entry {
	var items []entry
	add := func(i btree.Item) bool {
		items = append(items, i.(entry))
		return true
	}

	switch {
	case start == nil && end == nil:
		bt.Ascend(add)
	case start == nil:
		bt.AscendLessThan(entry{key: end}, add)
	case end == nil:
		bt.AscendGreaterOrEqual(entry{key: start}, add)
	default:
		bt.AscendRange(entry{key: start}, entry{key: end}, add)
	}

	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// mergeIterator joins the cached items with those of the parent,
// taking into consideration overwrites and deletes.
type mergeIterator struct {
	items   []entry
	idx     int
	parent  Iterator
	reverse bool
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(items []entry, parent Iterator, reverse bool) (*mergeIterator, error) {
	iter := &mergeIterator{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
	if err := iter.skipAllDeleted(); err != nil {
		iter.Close()
		return nil, err
	}
	return iter, nil
}

// Valid implements Iterator and returns true iff it can be read
func (i *mergeIterator) Valid() bool {
	return i.firstKey() != none
}

// Next moves the iterator to the next sequential key in the database, as
// defined by order of iteration.
func (i *mergeIterator) Next() error {
	switch i.firstKey() {
	case us:
		i.idx++
	case both:
		i.idx++
		if err := i.parent.Next(); err != nil {
			return err
		}
	case parent:
		if err := i.parent.Next(); err != nil {
			return err
		}
	default:
		return errors.Wrap(errors.ErrDatabase, "iterator passed the end")
	}
	return i.skipAllDeleted()
}

// Key returns the key of the cursor.
func (i *mergeIterator) Key() (key []byte) {
	switch i.firstKey() {
	case us, both:
		return i.items[i.idx].key
	case parent:
		return i.parent.Key()
	default:
		panic("Advanced past the end!")
	}
}

// Value returns the value of the cursor.
func (i *mergeIterator) Value() (value []byte) {
	switch i.firstKey() {
	case us, both:
		return i.items[i.idx].value
	case parent:
		return i.parent.Value()
	default:
		panic("Advanced past the end!")
	}
}

// Close releases the Iterator.
func (i *mergeIterator) Close() {
	i.parent.Close()
	i.items = nil
}

// skipAllDeleted advances over every deleted entry at the front,
// together with the parent entry it hides.
func (i *mergeIterator) skipAllDeleted() error {
	for {
		src := i.firstKey()
		if src != us && src != both {
			return nil
		}
		if !i.items[i.idx].deleted {
			return nil
		}
		i.idx++
		if src == both {
			if err := i.parent.Next(); err != nil {
				return err
			}
		}
	}
}

// firstKey selects the source with the next key in iteration order
func (i *mergeIterator) firstKey() source {
	usValid := i.idx < len(i.items)
	parentValid := i.parent != nil && i.parent.Valid()
	switch {
	case !usValid && !parentValid:
		return none
	case !parentValid:
		return us
	case !usValid:
		return parent
	}

	cmp := bytes.Compare(i.parent.Key(), i.items[i.idx].key)
	if i.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}
