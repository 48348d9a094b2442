package vaultd

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/cash"
	"github.com/iov-one/custody/x/sigs"
	"github.com/iov-one/custody/x/vault"
)

// Field numbers of the transaction envelope. Exactly one message field
// is set in a valid transaction.
const (
	fieldSend                = 1
	fieldCreateVault         = 2
	fieldRotateSigners       = 3
	fieldDeposit             = 4
	fieldWithdraw            = 5
	fieldUpdateConfiguration = 6
	fieldSignatures          = 20
)

// msgFields maps each message path to its field in the envelope.
var msgFields = map[string]int{
	(&cash.SendMsg{}).Path():                 fieldSend,
	(&vault.CreateVaultMsg{}).Path():         fieldCreateVault,
	(&vault.RotateSignersMsg{}).Path():       fieldRotateSigners,
	(&vault.DepositMsg{}).Path():             fieldDeposit,
	(&vault.WithdrawMsg{}).Path():            fieldWithdraw,
	(&vault.UpdateConfigurationMsg{}).Path(): fieldUpdateConfiguration,
}

func newMsg(field int) custody.Msg {
	switch field {
	case fieldSend:
		return &cash.SendMsg{}
	case fieldCreateVault:
		return &vault.CreateVaultMsg{}
	case fieldRotateSigners:
		return &vault.RotateSignersMsg{}
	case fieldDeposit:
		return &vault.DepositMsg{}
	case fieldWithdraw:
		return &vault.WithdrawMsg{}
	case fieldUpdateConfiguration:
		return &vault.UpdateConfigurationMsg{}
	}
	return nil
}

// Tx is the transaction envelope accepted by the node. It carries one
// message and the signatures authorizing it.
type Tx struct {
	Msg        custody.Msg
	Signatures []*sigs.StdSignature
}

// make sure tx fulfills all interfaces
var _ custody.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (custody.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetMsg returns the single message carried by this transaction.
func (tx *Tx) GetMsg() (custody.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "transaction without message")
	}
	return tx.Msg, nil
}

// GetSignatures returns the signatures attached to this transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign, which is the serialized
// transaction without any signatures.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	return tx.marshal(false)
}

func (tx *Tx) Marshal() ([]byte, error) {
	return tx.marshal(true)
}

func (tx *Tx) marshal(withSignatures bool) ([]byte, error) {
	e := codec.NewEncoder()
	if tx.Msg != nil {
		field, ok := msgFields[tx.Msg.Path()]
		if !ok {
			return nil, errors.Wrapf(errors.ErrType, "unsupported message %q", tx.Msg.Path())
		}
		if err := e.Message(field, tx.Msg); err != nil {
			return nil, errors.Wrap(err, "message")
		}
	}
	if withSignatures {
		for i, sig := range tx.Signatures {
			if err := e.Message(fieldSignatures, sig); err != nil {
				return nil, errors.Wrapf(err, "signature %d", i)
			}
		}
	}
	return e.Result(), nil
}

func (tx *Tx) Unmarshal(raw []byte) error {
	*tx = Tx{}
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Next()
		if err != nil {
			return err
		}
		if field == fieldSignatures {
			if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
				return err
			}
			b, err := d.Bytes()
			if err != nil {
				return err
			}
			var sig sigs.StdSignature
			if err := sig.Unmarshal(b); err != nil {
				return errors.Wrapf(err, "signature %d", len(tx.Signatures))
			}
			tx.Signatures = append(tx.Signatures, &sig)
			continue
		}

		msg := newMsg(field)
		if msg == nil {
			if err := d.Skip(wire); err != nil {
				return err
			}
			continue
		}
		if tx.Msg != nil {
			return errors.Wrap(errors.ErrInput, "more than one message")
		}
		if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
			return err
		}
		b, err := d.Bytes()
		if err != nil {
			return err
		}
		if err := msg.Unmarshal(b); err != nil {
			return errors.Wrap(err, msg.Path())
		}
		tx.Msg = msg
	}
	return nil
}
