package orm

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/x"
)

// Object is a record kept in a Bucket. The bucket prefixes Key to build the
// store key and persists Value.
type Object interface {
	Keyed
	Cloneable
	x.Validater
	Value() custody.Persistent
}

type Keyed interface {
	Key() []byte
	SetKey([]byte)
}

// Cloneable produces an empty object of the same kind to decode into.
type Cloneable interface {
	Clone() Object
}

// CloneableData is a value that a SimpleObj can carry.
type CloneableData interface {
	x.Validater
	custody.Persistent
	Copy() CloneableData
}
