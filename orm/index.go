package orm

import (
	"bytes"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Index maps a value derived from an object back to the object's primary
// key. A bucket keeps its indexes current on every Save and Delete.
type Index interface {
	custody.QueryHandler

	// Update moves the index entry of an object. A nil prev is an insert,
	// a nil save is a removal. Both objects must share a primary key.
	Update(db custody.KVStore, prev Object, save Object) error

	// GetAt lists the primary keys stored under the index value.
	GetAt(db custody.ReadOnlyKVStore, value []byte) ([][]byte, error)
}

// Indexer derives the index value of an object. An empty value leaves the
// object out of the index.
type Indexer func(Object) ([]byte, error)

// refIndex keeps all primary keys for one index value under a single store
// key. A unique index stores the raw key, otherwise a MultiRef is stored.
// It suits indexes where few objects share a value.
type refIndex struct {
	name   string
	prefix []byte
	unique bool
	value  Indexer
	refKey func([]byte) []byte
}

var _ Index = refIndex{}

// NewIndex builds an index stored under "_i.<name>:". refKey turns a primary
// key into the store key of the indexed object, so queries can load it.
func NewIndex(name string, indexer Indexer, unique bool, refKey func([]byte) []byte) Index {
	return refIndex{
		name:   name,
		prefix: []byte("_i." + name + ":"),
		unique: unique,
		value:  indexer,
		refKey: refKey,
	}
}

func (x refIndex) key(value []byte) []byte {
	out := make([]byte, 0, len(x.prefix)+len(value))
	out = append(out, x.prefix...)
	return append(out, value...)
}

func (x refIndex) Update(db custody.KVStore, prev Object, save Object) error {
	if prev == nil && save == nil {
		return errors.Wrap(errors.ErrHuman, "index update without an object")
	}
	if prev != nil && save != nil && !bytes.Equal(prev.Key(), save.Key()) {
		return errors.Wrap(errors.ErrInput, "primary key cannot change")
	}

	var before, after []byte
	var err error
	if prev != nil {
		if before, err = x.value(prev); err != nil {
			return err
		}
	}
	if save != nil {
		if after, err = x.value(save); err != nil {
			return err
		}
	}
	if prev != nil && save != nil && bytes.Equal(before, after) {
		return nil
	}

	if prev != nil {
		if err := x.remove(db, before, prev.Key()); err != nil {
			return err
		}
	}
	if save != nil {
		return x.add(db, after, save.Key())
	}
	return nil
}

func (x refIndex) GetAt(db custody.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	raw, err := db.Get(x.key(value))
	if err != nil || raw == nil {
		return nil, err
	}
	return x.decode(raw)
}

func (x refIndex) decode(raw []byte) ([][]byte, error) {
	if x.unique {
		return [][]byte{raw}, nil
	}
	var refs MultiRef
	if err := refs.Unmarshal(raw); err != nil {
		return nil, err
	}
	return refs.GetRefs(), nil
}

// Query resolves the index value, or every value starting with the given
// prefix, into the stored objects.
func (x refIndex) Query(db custody.ReadOnlyKVStore, mod string, data []byte) ([]custody.Model, error) {
	var refs [][]byte
	switch mod {
	case custody.KeyQueryMod:
		found, err := x.GetAt(db, data)
		if err != nil {
			return nil, err
		}
		refs = found
	case custody.PrefixQueryMod:
		entries, err := queryPrefix(db, x.key(data))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			found, err := x.decode(e.Value)
			if err != nil {
				return nil, err
			}
			refs = append(refs, found...)
		}
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}

	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]custody.Model, 0, len(refs))
	for _, ref := range refs {
		key := x.refKey(ref)
		value, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		out = append(out, custody.Pair(key, value))
	}
	return out, nil
}

func (x refIndex) remove(db custody.KVStore, value []byte, pk []byte) error {
	if len(value) == 0 {
		return nil
	}
	key := x.key(value)
	raw, err := db.Get(key)
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s has no entry to remove", x.name)
	}

	if x.unique {
		if !bytes.Equal(raw, pk) {
			return errors.Wrapf(errors.ErrNotFound, "%s entry belongs to another object", x.name)
		}
		return db.Delete(key)
	}

	var refs MultiRef
	if err := refs.Unmarshal(raw); err != nil {
		return err
	}
	if err := refs.Remove(pk); err != nil {
		return err
	}
	if refs.Size() == 0 {
		return db.Delete(key)
	}
	return x.store(db, key, &refs)
}

func (x refIndex) add(db custody.KVStore, value []byte, pk []byte) error {
	if len(value) == 0 {
		return nil
	}
	key := x.key(value)
	raw, err := db.Get(key)
	if err != nil {
		return err
	}

	if x.unique {
		if raw != nil {
			return errors.Wrap(errors.ErrDuplicate, x.name)
		}
		return db.Set(key, pk)
	}

	var refs MultiRef
	if raw != nil {
		if err := refs.Unmarshal(raw); err != nil {
			return err
		}
	}
	if err := refs.Add(pk); err != nil {
		return err
	}
	return x.store(db, key, &refs)
}

func (x refIndex) store(db custody.KVStore, key []byte, refs *MultiRef) error {
	raw, err := refs.Marshal()
	if err != nil {
		return err
	}
	return db.Set(key, raw)
}
