package orm

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

// Counter is a minimal model used to exercise buckets and indexes.
type Counter struct {
	Count int64
}

var _ CloneableData = (*Counter)(nil)

func NewCounter(n int64) *Counter {
	return &Counter{Count: n}
}

func (c *Counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrState, "negative counter")
	}
	return nil
}

func (c *Counter) Copy() CloneableData {
	return &Counter{Count: c.Count}
}

func (c *Counter) Marshal() ([]byte, error) {
	return codec.NewEncoder().Varint(1, c.Count).Result(), nil
}

func (c *Counter) Unmarshal(raw []byte) error {
	c.Count = 0
	d := codec.NewDecoder(raw)
	for d.More() {
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
		if err := codec.Expect(field, wire, proto.WireVarint); err != nil {
			return errors.Wrap(errors.ErrState, err.Error())
		}
		if c.Count, err = d.Varint(); err != nil {
			return err
		}
	}
	return nil
}

func counterIndex(obj Object) ([]byte, error) {
	c, ok := obj.Value().(*Counter)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj.Value())
	}
	// Index counters by parity.
	if c.Count%2 == 0 {
		return []byte("even"), nil
	}
	return []byte("odd"), nil
}
