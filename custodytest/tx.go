package custodytest

import "github.com/iov-one/custody"

// Tx wraps a single message. When Err is set, GetMsg returns it.
type Tx struct {
	Msg custody.Msg
	Err error
}

var _ custody.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (custody.Msg, error) {
	return tx.Msg, tx.Err
}

// Marshal is never called by the code under test.
func (tx *Tx) Marshal() ([]byte, error) {
	panic("custodytest.Tx cannot be serialized")
}

func (tx *Tx) Unmarshal([]byte) error {
	panic("custodytest.Tx cannot be serialized")
}

// Msg routes to RoutePath and serializes to Serialized. When Err is set,
// Validate, Marshal and Unmarshal all return it.
type Msg struct {
	RoutePath  string
	Serialized []byte
	Err        error
}

var _ custody.Msg = (*Msg)(nil)

func (m *Msg) Path() string { return m.RoutePath }

func (m *Msg) Validate() error { return m.Err }

func (m *Msg) Marshal() ([]byte, error) { return m.Serialized, m.Err }

func (m *Msg) Unmarshal(raw []byte) error {
	m.Serialized = raw
	return m.Err
}
