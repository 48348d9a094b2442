package vault

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

const (
	pathCreateVaultMsg   = "vault/create"
	pathRotateSignersMsg = "vault/rotate"
	pathDepositMsg       = "vault/deposit"
	pathWithdrawMsg      = "vault/withdraw"
)

// CreateVaultMsg creates a vault controlled by the given signers.
type CreateVaultMsg struct {
	ID      uint64
	Count   uint64
	Signers []custody.Address
}

var _ custody.Msg = (*CreateVaultMsg)(nil)

func (CreateVaultMsg) Path() string {
	return pathCreateVaultMsg
}

func (m *CreateVaultMsg) Validate() error {
	if m.Count == 0 || m.Count > MaxSigners {
		return errors.Field("Count", ErrWrongSignerCount, "must be between 1 and %d, got %d", MaxSigners, m.Count)
	}
	if uint64(len(m.Signers)) != m.Count {
		return errors.Field("Signers", ErrWrongSignerCount, "declared %d, got %d", m.Count, len(m.Signers))
	}
	return validateAddresses("Signers", m.Signers)
}

func (m *CreateVaultMsg) Marshal() ([]byte, error) {
	return codec.NewEncoder().
		Uvarint(1, m.ID).
		Uvarint(2, m.Count).
		RepeatedBytes(3, addressesToBytes(m.Signers)).
		Result(), nil
}

func (m *CreateVaultMsg) Unmarshal(raw []byte) error {
	*m = CreateVaultMsg{}
	return decodeFields(raw, func(d *codec.Decoder, field, wire int) (bool, error) {
		var err error
		switch field {
		case 1:
			m.ID, err = decodeUvarint(d, field, wire)
		case 2:
			m.Count, err = decodeUvarint(d, field, wire)
		case 3:
			var a custody.Address
			a, err = decodeAddress(d, field, wire)
			m.Signers = append(m.Signers, a)
		default:
			return false, nil
		}
		return true, err
	})
}

// RotateSignersMsg replaces the signers of a vault. Witnesses lists the
// current signers in their stored order followed by the NewCount new
// signers.
type RotateSignersMsg struct {
	ID        uint64
	NewCount  uint64
	Witnesses []custody.Address
}

var _ custody.Msg = (*RotateSignersMsg)(nil)

func (RotateSignersMsg) Path() string {
	return pathRotateSignersMsg
}

// Validate checks only the form of the witnesses. Their number depends on
// the stored vault and is checked by the handler.
func (m *RotateSignersMsg) Validate() error {
	return validateAddresses("Witnesses", m.Witnesses)
}

func (m *RotateSignersMsg) Marshal() ([]byte, error) {
	return codec.NewEncoder().
		Uvarint(1, m.ID).
		Uvarint(2, m.NewCount).
		RepeatedBytes(3, addressesToBytes(m.Witnesses)).
		Result(), nil
}

func (m *RotateSignersMsg) Unmarshal(raw []byte) error {
	*m = RotateSignersMsg{}
	return decodeFields(raw, func(d *codec.Decoder, field, wire int) (bool, error) {
		var err error
		switch field {
		case 1:
			m.ID, err = decodeUvarint(d, field, wire)
		case 2:
			m.NewCount, err = decodeUvarint(d, field, wire)
		case 3:
			var a custody.Address
			a, err = decodeAddress(d, field, wire)
			m.Witnesses = append(m.Witnesses, a)
		default:
			return false, nil
		}
		return true, err
	})
}

// DepositMsg moves value from the main signer of the transaction into the
// vault.
type DepositMsg struct {
	ID     uint64
	Amount uint64
}

var _ custody.Msg = (*DepositMsg)(nil)

func (DepositMsg) Path() string {
	return pathDepositMsg
}

func (m *DepositMsg) Validate() error {
	if m.Amount == 0 {
		return errors.Field("Amount", errors.ErrAmount, "must be positive")
	}
	return nil
}

func (m *DepositMsg) Marshal() ([]byte, error) {
	return codec.NewEncoder().
		Uvarint(1, m.ID).
		Uvarint(2, m.Amount).
		Result(), nil
}

func (m *DepositMsg) Unmarshal(raw []byte) error {
	*m = DepositMsg{}
	return decodeFields(raw, func(d *codec.Decoder, field, wire int) (bool, error) {
		var err error
		switch field {
		case 1:
			m.ID, err = decodeUvarint(d, field, wire)
		case 2:
			m.Amount, err = decodeUvarint(d, field, wire)
		default:
			return false, nil
		}
		return true, err
	})
}

// WithdrawMsg releases value from the vault to the recipient. Witnesses
// lists the active signers in their stored order.
type WithdrawMsg struct {
	ID        uint64
	Amount    uint64
	Recipient custody.Address
	Witnesses []custody.Address
}

var _ custody.Msg = (*WithdrawMsg)(nil)

func (WithdrawMsg) Path() string {
	return pathWithdrawMsg
}

func (m *WithdrawMsg) Validate() error {
	var errs error
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be positive"))
	}
	errs = errors.AppendField(errs, "Recipient", m.Recipient.Validate())
	return errors.Append(errs, validateAddresses("Witnesses", m.Witnesses))
}

func (m *WithdrawMsg) Marshal() ([]byte, error) {
	return codec.NewEncoder().
		Uvarint(1, m.ID).
		Uvarint(2, m.Amount).
		Bytes(3, m.Recipient).
		RepeatedBytes(4, addressesToBytes(m.Witnesses)).
		Result(), nil
}

func (m *WithdrawMsg) Unmarshal(raw []byte) error {
	*m = WithdrawMsg{}
	return decodeFields(raw, func(d *codec.Decoder, field, wire int) (bool, error) {
		var err error
		switch field {
		case 1:
			m.ID, err = decodeUvarint(d, field, wire)
		case 2:
			m.Amount, err = decodeUvarint(d, field, wire)
		case 3:
			m.Recipient, err = decodeAddress(d, field, wire)
		case 4:
			var a custody.Address
			a, err = decodeAddress(d, field, wire)
			m.Witnesses = append(m.Witnesses, a)
		default:
			return false, nil
		}
		return true, err
	})
}

func validateAddresses(name string, list []custody.Address) error {
	var errs error
	for i, a := range list {
		errs = errors.AppendField(errs, fieldName(name, i), a.Validate())
	}
	return errs
}

func addressesToBytes(list []custody.Address) [][]byte {
	if len(list) == 0 {
		return nil
	}
	res := make([][]byte, len(list))
	for i, a := range list {
		res[i] = a
	}
	return res
}

// decodeFields iterates over all fields of a message. Fields not consumed
// by fn are skipped.
func decodeFields(raw []byte, fn func(d *codec.Decoder, field, wire int) (bool, error)) error {
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Next()
		if err != nil {
			return err
		}
		consumed, err := fn(d, field, wire)
		if err != nil {
			return err
		}
		if !consumed {
			if err := d.Skip(wire); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeUvarint(d *codec.Decoder, field, wire int) (uint64, error) {
	if err := codec.Expect(field, wire, proto.WireVarint); err != nil {
		return 0, err
	}
	return d.Uvarint()
}

func decodeAddress(d *codec.Decoder, field, wire int) (custody.Address, error) {
	if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
		return nil, err
	}
	return d.Bytes()
}
