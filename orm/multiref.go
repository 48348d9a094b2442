package orm

import (
	"bytes"
	"sort"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

// MultiRef is a set of references kept in ascending byte order. Non unique
// indexes store one per index value.
type MultiRef struct {
	Refs [][]byte
}

var _ CloneableData = (*MultiRef)(nil)

// NewMultiRef fails with ErrDuplicate when refs repeat.
func NewMultiRef(refs ...[]byte) (*MultiRef, error) {
	var m MultiRef
	for _, ref := range refs {
		if err := m.Add(ref); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (m *MultiRef) GetRefs() [][]byte {
	if m == nil {
		return nil
	}
	return m.Refs
}

func (m *MultiRef) Size() int {
	return len(m.GetRefs())
}

// Add inserts ref at its sorted position.
func (m *MultiRef) Add(ref []byte) error {
	i, ok := m.search(ref)
	if ok {
		return errors.Wrap(errors.ErrDuplicate, "ref already in set")
	}
	m.Refs = append(m.Refs, nil)
	copy(m.Refs[i+1:], m.Refs[i:])
	m.Refs[i] = ref
	return nil
}

func (m *MultiRef) Remove(ref []byte) error {
	i, ok := m.search(ref)
	if !ok {
		return errors.Wrap(errors.ErrNotFound, "ref not in set")
	}
	m.Refs = append(m.Refs[:i], m.Refs[i+1:]...)
	return nil
}

// search returns the position of ref, or where it belongs, and whether it
// is present.
func (m *MultiRef) search(ref []byte) (int, bool) {
	i := sort.Search(len(m.Refs), func(n int) bool {
		return bytes.Compare(m.Refs[n], ref) >= 0
	})
	return i, i < len(m.Refs) && bytes.Equal(m.Refs[i], ref)
}

// Copy is shallow. The refs themselves are shared.
func (m *MultiRef) Copy() CloneableData {
	return &MultiRef{Refs: append([][]byte(nil), m.Refs...)}
}

// Validate rejects an empty set, which is never stored.
func (m *MultiRef) Validate() error {
	if m.Size() == 0 {
		return errors.Wrap(errors.ErrEmpty, "no references")
	}
	return nil
}

func (m *MultiRef) Marshal() ([]byte, error) {
	return codec.NewEncoder().RepeatedBytes(1, m.GetRefs()).Result(), nil
}

func (m *MultiRef) Unmarshal(raw []byte) error {
	m.Refs = nil
	for d := codec.NewDecoder(raw); d.More(); {
		field, wire, err := d.Next()
		if err != nil {
			return err
		}
		if field != 1 {
			if err := d.Skip(wire); err != nil {
				return err
			}
			continue
		}
		if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
			return err
		}
		ref, err := d.Bytes()
		if err != nil {
			return errors.Wrap(err, "refs")
		}
		m.Refs = append(m.Refs, ref)
	}
	return nil
}
