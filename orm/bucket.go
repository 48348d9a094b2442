// Package orm keeps typed records in named, prefixed regions of a KVStore.
//
// A Bucket holds one kind of Object under "<name>:<key>". It can carry
// secondary indexes that are rewritten whenever an object is saved or
// deleted, and it answers key and prefix queries for itself and for each of
// its indexes.
package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

var validBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`)

// Bucket is a prefixed region of the store holding objects cloned from
// proto. Embed it in a typed wrapper so callers cannot mix record kinds.
type Bucket struct {
	name    string
	prefix  []byte
	proto   Cloneable
	indexes map[string]Index
}

var _ custody.QueryHandler = Bucket{}

// NewBucket panics when name is not 3 to 10 lowercase letters or
// underscores.
func NewBucket(name string, proto Cloneable) Bucket {
	if !validBucketName.MatchString(name) {
		panic(fmt.Sprintf("invalid bucket name %q", name))
	}
	return Bucket{
		name:   name,
		prefix: []byte(name + ":"),
		proto:  proto,
	}
}

func (b Bucket) Name() string {
	return b.name
}

// Register mounts the bucket at "/<name>" and every index at
// "/<name>/<index>". An empty name falls back to the bucket name.
func (b Bucket) Register(name string, r custody.QueryRouter) {
	if name == "" {
		name = b.name
	}
	path := "/" + name
	r.Register(path, b)
	for idxName, idx := range b.indexes {
		r.Register(path+"/"+idxName, idx)
	}
}

// Query answers exact key lookups and prefix scans over the bucket.
func (b Bucket) Query(db custody.ReadOnlyKVStore, mod string, data []byte) ([]custody.Model, error) {
	if mod == custody.PrefixQueryMod {
		return queryPrefix(db, b.DBKey(data))
	}
	if mod != custody.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}

	key := b.DBKey(data)
	value, err := db.Get(key)
	switch {
	case err != nil:
		return nil, err
	case value == nil:
		return nil, nil
	}
	return []custody.Model{custody.Pair(key, value)}, nil
}

// DBKey prepends the bucket prefix to key. The result never shares memory
// with the prefix, so it is safe to keep.
func (b Bucket) DBKey(key []byte) []byte {
	out := make([]byte, 0, len(b.prefix)+len(key))
	out = append(out, b.prefix...)
	return append(out, key...)
}

// Get returns nil, nil if nothing is stored under key.
func (b Bucket) Get(db custody.ReadOnlyKVStore, key []byte) (Object, error) {
	raw, err := db.Get(b.DBKey(key))
	if err != nil || raw == nil {
		return nil, err
	}
	return b.Parse(key, raw)
}

func (b Bucket) Has(db custody.ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(b.DBKey(key))
}

// Parse decodes a raw value into a fresh copy of the bucket prototype.
func (b Bucket) Parse(key, value []byte) (Object, error) {
	obj := b.proto.Clone()
	if err := obj.Value().Unmarshal(value); err != nil {
		return nil, errors.Wrapf(err, "%s bucket", b.name)
	}
	obj.SetKey(key)
	return obj, nil
}

// Save validates obj, refreshes the indexes and writes the value.
func (b Bucket) Save(db custody.KVStore, obj Object) error {
	if err := obj.Validate(); err != nil {
		return err
	}
	raw, err := obj.Value().Marshal()
	if err != nil {
		return err
	}
	if err := b.reindex(db, obj.Key(), obj); err != nil {
		return err
	}
	return db.Set(b.DBKey(obj.Key()), raw)
}

// Delete drops key from the bucket and from every index.
func (b Bucket) Delete(db custody.KVStore, key []byte) error {
	if err := b.reindex(db, key, nil); err != nil {
		return err
	}
	return db.Delete(b.DBKey(key))
}

// reindex moves the index entries of key from the stored object to next.
// A nil next removes them.
func (b Bucket) reindex(db custody.KVStore, key []byte, next Object) error {
	if len(b.indexes) == 0 {
		return nil
	}
	prev, err := b.Get(db, key)
	if err != nil {
		return err
	}
	if prev == nil && next == nil {
		return nil
	}
	for name, idx := range b.indexes {
		if err := idx.Update(db, prev, next); err != nil {
			return errors.Wrapf(err, "index %s", name)
		}
	}
	return nil
}

// WithIndex returns a copy of the bucket that also maintains the named
// index. Registering the same name twice panics.
func (b Bucket) WithIndex(name string, indexer Indexer, unique bool) Bucket {
	if _, ok := b.indexes[name]; ok {
		panic(fmt.Sprintf("index %q already registered on %s", name, b.name))
	}
	indexes := make(map[string]Index, len(b.indexes)+1)
	for n, idx := range b.indexes {
		indexes[n] = idx
	}
	indexes[name] = NewIndex(b.name+"_"+name, indexer, unique, b.DBKey)
	b.indexes = indexes
	return b
}

// GetIndexed loads every object stored under value in the named index.
func (b Bucket) GetIndexed(db custody.ReadOnlyKVStore, name string, value []byte) ([]Object, error) {
	idx, ok := b.indexes[name]
	if !ok {
		return nil, errors.Wrap(ErrInvalidIndex, name)
	}
	refs, err := idx.GetAt(db, value)
	if err != nil || len(refs) == 0 {
		return nil, err
	}
	objs := make([]Object, 0, len(refs))
	for _, ref := range refs {
		obj, err := b.Get(db, ref)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}
