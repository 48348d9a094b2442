package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

// Ensure we implement the Msg interface
var _ custody.Msg = (*SendMsg)(nil)

const (
	sendTxCost int64 = 100

	maxMemoSize int = 128
)

// SendMsg moves an amount from the source wallet to the destination.
type SendMsg struct {
	Source      custody.Address
	Destination custody.Address
	Amount      uint64
	Memo        string
}

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	var errs error
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be positive"))
	}
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if len(m.Memo) > maxMemoSize {
		errs = errors.Append(errs, errors.Field("Memo", errors.ErrInput, "memo too long"))
	}
	return errs
}

func (m *SendMsg) Marshal() ([]byte, error) {
	return codec.NewEncoder().
		Bytes(1, m.Source).
		Bytes(2, m.Destination).
		Uvarint(3, m.Amount).
		String(4, m.Memo).
		Result(), nil
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	*m = SendMsg{}
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Next()
		if err != nil {
			return err
		}
		switch field {
		case 1, 2, 4:
			if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
				return err
			}
			b, err := d.Bytes()
			if err != nil {
				return err
			}
			switch field {
			case 1:
				m.Source = b
			case 2:
				m.Destination = b
			default:
				m.Memo = string(b)
			}
		case 3:
			if err := codec.Expect(field, wire, proto.WireVarint); err != nil {
				return err
			}
			if m.Amount, err = d.Uvarint(); err != nil {
				return err
			}
		default:
			if err := d.Skip(wire); err != nil {
				return err
			}
		}
	}
	return nil
}
