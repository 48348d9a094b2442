package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSuite runs the same checks against any CacheableKVStore. Each backend
// package passes a constructor and calls the methods it needs from its own
// tests.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store and a function releasing it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// GetSet checks that a cache wrap reads through to its parent, keeps its
// own writes private until Write and drops them on Discard.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	vault, record := []byte("vault:1"), []byte("two signers")
	s.AssertGetHas(t, base, vault, nil, false)
	assert.Nil(t, base.Set(vault, record))
	s.AssertGetHas(t, base, vault, record, true)

	savepoint := base.CacheWrap()
	s.AssertGetHas(t, savepoint, vault, record, true)

	wallet, funds := []byte("wallet:custody"), []byte("100")
	s.AssertGetHas(t, savepoint, wallet, nil, false)
	assert.Nil(t, savepoint.Set(wallet, funds))
	s.AssertGetHas(t, savepoint, wallet, funds, true)
	s.AssertGetHas(t, base, wallet, nil, false)

	assert.Nil(t, savepoint.Write())
	s.AssertGetHas(t, base, vault, record, true)
	s.AssertGetHas(t, base, wallet, funds, true)

	// A failed transaction leaves nothing behind.
	deposit := []byte("deposit:alice")
	failed := base.CacheWrap()
	assert.Nil(t, failed.Set(deposit, []byte("30")))
	assert.Nil(t, failed.Delete(vault))
	s.AssertGetHas(t, failed, vault, nil, false)
	failed.Discard()
	s.AssertGetHas(t, base, deposit, nil, false)
	s.AssertGetHas(t, base, vault, record, true)

	// Deletes written from a later cache are visible to an older one.
	later := base.CacheWrap()
	assert.Nil(t, later.Delete(vault))
	assert.Nil(t, later.Write())
	s.AssertGetHas(t, failed, vault, nil, false)
	s.AssertGetHas(t, failed, wallet, funds, true)
	s.AssertGetHas(t, failed, deposit, nil, false)
}

// CacheConflicts checks that a child overwriting or deleting parent values
// shows its own view and leaves the parent untouched until written.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(6, 16)
	vs := randKeys(12, 40)

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // Key is what we query, Value is what we expect
		childQueries  []Model
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])},
			childOps:      []Op{SetOp(ks[1], vs[11]), SetOp(ks[3], vs[7]), DelOp(ks[2])},
			parentQueries: []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)},
			childQueries:  []Model{Pair(ks[1], vs[11]), Pair(ks[2], nil), Pair(ks[3], vs[7])},
		},
		"delete then set again": {
			parentOps:     []Op{SetOp(ks[4], vs[4])},
			childOps:      []Op{DelOp(ks[4]), SetOp(ks[4], vs[5])},
			parentQueries: []Model{Pair(ks[4], vs[4])},
			childQueries:  []Model{Pair(ks[4], vs[5])},
		},
		"delete a missing key": {
			parentOps:     []Op{SetOp(ks[0], vs[0])},
			childOps:      []Op{DelOp(ks[5])},
			parentQueries: []Model{Pair(ks[0], vs[0]), Pair(ks[5], nil)},
			childQueries:  []Model{Pair(ks[0], vs[0]), Pair(ks[5], nil)},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parentOps {
				assert.Nil(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				assert.Nil(t, op.Apply(child))
			}

			for _, q := range tc.parentQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			assert.Nil(t, child.Write())
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// PrefixScan iterates one bucket prefix while a cache holds pending
// changes to it and to a neighbouring bucket, the way bucket queries read.
func (s *TestSuite) PrefixScan(t *testing.T) {
	vault := func(id byte, val string) Model {
		return Pair(append([]byte("vault:"), id), []byte(val))
	}
	wallet := func(name, val string) Model {
		return Pair([]byte("wallet:"+name), []byte(val))
	}
	start, end := []byte("vault:"), []byte("vault;")

	stored := []Model{vault(1, "a"), vault(2, "b"), vault(4, "c"), vault(5, "d"), wallet("x", "10")}
	want := []Model{vault(1, "a"), vault(3, "new"), vault(4, "rotated"), vault(5, "d")}

	tc := iterCase{
		pre: makeSetOps(stored...),
		child: append(
			makeSetOps(vault(3, "new"), vault(4, "rotated"), wallet("y", "20")),
			DelOp(vault(2, "").Key),
		),
		queries: []rangeQuery{
			{start, end, false, want},
			{start, end, true, reverse(want)},
			{want[1].Key, want[3].Key, false, want[1:3]},
			{end, nil, false, []Model{wallet("x", "10"), wallet("y", "20")}},
		},
	}

	base, cleanup := s.makeBase()
	defer cleanup()
	tc.verify(t, base)
}

// FuzzIterator writes random data to a store and to a cache over it, with
// overwrites and deletes on both levels, and compares every iteration with
// a map based reference.
func (s *TestSuite) FuzzIterator(t *testing.T) {
	const size = 40

	cases := map[string]struct {
		parent func() []Op
		child  func(parent []Op) []Op
	}{
		"child over an empty store": {
			parent: func() []Op { return nil },
			child: func([]Op) []Op {
				ms := randModels(size, 8, 32)
				return append(makeSetOps(ms...), makeDelOps(ms[:size/4]...)...)
			},
		},
		"child overwrites and deletes stored keys": {
			parent: func() []Op {
				ms := randModels(size, 8, 32)
				return append(makeSetOps(ms...), makeDelOps(ms[size-5:]...)...)
			},
			child: func(parent []Op) []Op {
				var ops []Op
				for i, op := range parent[:size] {
					switch i % 3 {
					case 0:
						ops = append(ops, DelOp(op.Key()))
					case 1:
						ops = append(ops, SetOp(op.Key(), randBytes(16)))
					}
				}
				return append(ops, makeSetOps(randModels(size/2, 8, 32)...)...)
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parentOps := tc.parent()
			childOps := tc.child(parentOps)
			want := replay(parentOps, childOps)
			if len(want) < 10 {
				t.Fatalf("not enough data left to iterate: %d", len(want))
			}
			n := len(want)

			base, cleanup := s.makeBase()
			defer cleanup()
			iterCase{
				pre:   parentOps,
				child: childOps,
				queries: []rangeQuery{
					{nil, nil, false, want},
					{nil, nil, true, reverse(want)},
					{want[3].Key, nil, false, want[3:]},
					{nil, want[n-4].Key, false, want[:n-4]},
					{want[2].Key, want[n-2].Key, false, want[2 : n-2]},
					{want[5].Key, nil, true, reverse(want[5:])},
					{nil, want[7].Key, true, reverse(want[:7])},
					{want[1].Key, want[n-3].Key, true, reverse(want[1 : n-3])},
				},
			}.verify(t, base)
		})
	}
}

// IteratorWithConflicts checks small hand written layouts where the cache
// and the parent hold the same keys.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	k := func(name string) []byte { return []byte(name) }
	v := func(val string) []byte { return []byte(val) }

	cases := map[string]struct {
		parent []Op
		child  []Op
	}{
		"only the cache holds data": {
			child: []Op{SetOp(k("b"), v("1")), SetOp(k("a"), v("2")), SetOp(k("c"), v("3"))},
		},
		"only the parent holds data": {
			parent: []Op{SetOp(k("b"), v("1")), SetOp(k("a"), v("2")), SetOp(k("c"), v("3"))},
		},
		"disjoint keys interleave": {
			parent: []Op{SetOp(k("a"), v("1")), SetOp(k("c"), v("2"))},
			child:  []Op{SetOp(k("b"), v("3")), SetOp(k("d"), v("4"))},
		},
		"cache values win": {
			parent: []Op{SetOp(k("a"), v("old")), SetOp(k("b"), v("old")), SetOp(k("c"), v("old"))},
			child:  []Op{SetOp(k("a"), v("new")), SetOp(k("c"), v("new")), SetOp(k("d"), v("new"))},
		},
		"deletes hide parent keys": {
			parent: []Op{SetOp(k("a"), v("1")), SetOp(k("c"), v("2")), SetOp(k("d"), v("3"))},
			child:  []Op{DelOp(k("a")), DelOp(k("b")), DelOp(k("d"))},
		},
		"everything deleted": {
			parent: []Op{SetOp(k("a"), v("1")), SetOp(k("b"), v("2"))},
			child:  []Op{DelOp(k("b")), DelOp(k("a"))},
		},
		"deleted then written again": {
			parent: []Op{SetOp(k("a"), v("1")), SetOp(k("b"), v("2"))},
			child:  []Op{DelOp(k("a")), SetOp(k("a"), v("3")), DelOp(k("b"))},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			want := replay(tc.parent, tc.child)
			queries := []rangeQuery{
				{nil, nil, false, want},
				{nil, nil, true, reverse(want)},
				// Bounds between keys that were touched.
				{k("b"), k("d"), false, within(want, k("b"), k("d"))},
				{k("b"), k("d"), true, reverse(within(want, k("b"), k("d")))},
				{k("c"), nil, false, within(want, k("c"), nil)},
				{nil, k("c"), true, reverse(within(want, nil, k("c")))},
			}

			base, cleanup := s.makeBase()
			defer cleanup()
			iterCase{pre: tc.parent, child: tc.child, queries: queries}.verify(t, base)
		})
	}
}

// AssertGetHas checks both Get and Has for key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	_, _ = rand.Read(res)
	return res
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = randBytes(size)
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(randBytes(keySize), randBytes(valueSize))
	}
	return models
}

// replay applies all operations to a map and returns what is left, sorted
// by key.
func replay(batches ...[]Op) []Model {
	state := make(map[string][]byte)
	for _, ops := range batches {
		for _, op := range ops {
			if op.IsSetOp() {
				state[string(op.Key())] = op.Value()
			} else {
				delete(state, string(op.Key()))
			}
		}
	}
	res := make([]Model, 0, len(state))
	for k, v := range state {
		res = append(res, Pair([]byte(k), v))
	}
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

// within returns the sorted models with start <= key < end. Nil bounds are
// open.
func within(models []Model, start, end []byte) []Model {
	var res []Model
	for _, m := range models {
		if start != nil && bytes.Compare(m.Key, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(m.Key, end) >= 0 {
			continue
		}
		res = append(res, m)
	}
	return res
}

// iterCase applies pre to the base and child to a cache over it, then runs
// every query against the cache.
type iterCase struct {
	pre     []Op
	child   []Op
	queries []rangeQuery
}

func (c iterCase) verify(t testing.TB, base CacheableKVStore) {
	t.Helper()
	for _, op := range c.pre {
		assert.Nil(t, op.Apply(base))
	}
	cache := base.CacheWrap()
	for _, op := range c.child {
		assert.Nil(t, op.Apply(cache))
	}

	for _, q := range c.queries {
		var (
			it  Iterator
			err error
		)
		if q.reverse {
			it, err = cache.ReverseIterator(q.start, q.end)
		} else {
			it, err = cache.Iterator(q.start, q.end)
		}
		assert.Nil(t, err)

		for i, want := range q.expected {
			if !it.Valid() {
				t.Fatalf("iterator done after %d of %d items", i, len(q.expected))
			}
			if !bytes.Equal(want.Key, it.Key()) {
				t.Fatalf("item %d: want key %X, got %X", i, want.Key, it.Key())
			}
			assert.Equal(t, want.Value, it.Value())
			assert.Nil(t, it.Next())
		}
		if it.Valid() {
			t.Fatalf("iterator not done, got key %X", it.Key())
		}
		it.Close()
	}
}

type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func makeDelOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
