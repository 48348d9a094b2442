package orm

import (
	"bytes"
	"sort"
	"testing"

	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
)

func TestMultiRefAddRemove(t *testing.T) {
	cases := map[string]struct {
		add        []string
		remove     []string
		wantErrors int
		want       []string
	}{
		"kept sorted": {
			add:  []string{"vault:3", "vault:1", "vault:2"},
			want: []string{"vault:1", "vault:2", "vault:3"},
		},
		"duplicates rejected": {
			add:        []string{"b", "b", "a", "c", "c", "b"},
			wantErrors: 3,
			want:       []string{"a", "b", "c"},
		},
		"remove middle": {
			add:    []string{"a", "b", "c"},
			remove: []string{"b"},
			want:   []string{"a", "c"},
		},
		"remove missing": {
			add:        []string{"a", "b"},
			remove:     []string{"zz"},
			wantErrors: 1,
			want:       []string{"a", "b"},
		},
		"remove twice": {
			add:        []string{"first", "second", "third"},
			remove:     []string{"first", "third", "third"},
			wantErrors: 1,
			want:       []string{"second"},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var m MultiRef
			errs := 0
			for _, r := range tc.add {
				if err := m.Add([]byte(r)); err != nil {
					assert.IsErr(t, errors.ErrDuplicate, err)
					errs++
				}
			}
			for _, r := range tc.remove {
				if err := m.Remove([]byte(r)); err != nil {
					assert.IsErr(t, errors.ErrNotFound, err)
					errs++
				}
			}
			assert.Equal(t, tc.wantErrors, errs)

			got := make([]string, m.Size())
			for i, r := range m.GetRefs() {
				got[i] = string(r)
			}
			assert.Equal(t, tc.want, got)
			if !sort.SliceIsSorted(m.Refs, func(i, j int) bool { return bytes.Compare(m.Refs[i], m.Refs[j]) < 0 }) {
				t.Fatalf("refs not sorted: %q", m.Refs)
			}
		})
	}
}

func TestMultiRefSerialization(t *testing.T) {
	m, err := NewMultiRef([]byte("first"), []byte("second"), []byte{})
	assert.Nil(t, err)
	assert.Nil(t, m.Validate())

	raw, err := m.Marshal()
	assert.Nil(t, err)
	var got MultiRef
	assert.Nil(t, got.Unmarshal(raw))
	assert.Equal(t, 3, got.Size())
	for i := range m.Refs {
		if !bytes.Equal(m.Refs[i], got.Refs[i]) {
			t.Fatalf("ref %d: want %q, got %q", i, m.Refs[i], got.Refs[i])
		}
	}

	assert.IsErr(t, errors.ErrEmpty, new(MultiRef).Validate())
	var nilRef *MultiRef
	assert.Equal(t, 0, nilRef.Size())
}
