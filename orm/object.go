package orm

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// SimpleObj pairs a key with a value. Typed buckets store their records in
// it and convert on the way out.
type SimpleObj struct {
	key   []byte
	value CloneableData
}

var _ Object = (*SimpleObj)(nil)

func NewSimpleObj(key []byte, value CloneableData) *SimpleObj {
	return &SimpleObj{key: key, value: value}
}

func (o SimpleObj) Key() []byte {
	return o.key
}

func (o *SimpleObj) SetKey(key []byte) {
	o.key = key
}

func (o SimpleObj) Value() custody.Persistent {
	return o.value
}

// Validate requires a key and a value, then validates the value.
func (o SimpleObj) Validate() error {
	switch {
	case len(o.key) == 0:
		return errors.Field("Key", errors.ErrEmpty, "missing key")
	case o.value == nil:
		return errors.Field("Value", errors.ErrEmpty, "missing value")
	}
	return o.value.Validate()
}

// Clone deep copies the key and copies the value.
func (o *SimpleObj) Clone() Object {
	c := &SimpleObj{value: o.value.Copy()}
	if len(o.key) != 0 {
		c.key = append([]byte(nil), o.key...)
	}
	return c
}
