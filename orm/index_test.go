package orm

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

func TestUniqueIndex(t *testing.T) {
	bucket := NewBucket("cnts", NewSimpleObj(nil, &Counter{}))
	idx := NewIndex("cnts_parity", counterIndex, true, bucket.DBKey)
	db := store.MemStore()

	one := NewSimpleObj([]byte("one"), NewCounter(1))
	three := NewSimpleObj([]byte("three"), NewCounter(3))

	assert.Nil(t, idx.Update(db, nil, one))
	if err := idx.Update(db, nil, three); !errors.ErrDuplicate.Is(err) {
		t.Fatalf("unique index must reject a second entry: %s", err)
	}

	refs, err := idx.GetAt(db, []byte("odd"))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("one")}, refs)

	// Removing an object that is not referenced fails.
	if err := idx.Update(db, three, nil); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %s", err)
	}
	assert.Nil(t, idx.Update(db, one, nil))

	refs, err = idx.GetAt(db, []byte("odd"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(refs))

	if err := idx.Update(db, nil, nil); !errors.ErrHuman.Is(err) {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestIndexCannotChangePrimaryKey(t *testing.T) {
	bucket := NewBucket("cnts", NewSimpleObj(nil, &Counter{}))
	idx := NewIndex("cnts_parity", counterIndex, false, bucket.DBKey)
	db := store.MemStore()

	a := NewSimpleObj([]byte("a"), NewCounter(1))
	b := NewSimpleObj([]byte("b"), NewCounter(2))
	if err := idx.Update(db, a, b); !errors.ErrInput.Is(err) {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestIndexQuery(t *testing.T) {
	bucket := NewBucket("cnts", NewSimpleObj(nil, &Counter{})).
		WithIndex("parity", counterIndex, false)
	db := store.MemStore()

	assert.Nil(t, bucket.Save(db, NewSimpleObj([]byte("one"), NewCounter(1))))
	assert.Nil(t, bucket.Save(db, NewSimpleObj([]byte("two"), NewCounter(2))))
	assert.Nil(t, bucket.Save(db, NewSimpleObj([]byte("five"), NewCounter(5))))

	qr := custody.NewQueryRouter()
	bucket.Register("", qr)
	h := qr.Handler("/cnts/parity")

	res, err := h.Query(db, custody.KeyQueryMod, []byte("odd"))
	assert.Nil(t, err)
	if len(res) != 2 {
		t.Fatalf("want two results, got %d", len(res))
	}
	assert.Equal(t, []byte("cnts:five"), res[0].Key)
	assert.Equal(t, []byte("cnts:one"), res[1].Key)

	res, err = h.Query(db, custody.PrefixQueryMod, nil)
	assert.Nil(t, err)
	if len(res) != 3 {
		t.Fatalf("want all three results, got %d", len(res))
	}
}
