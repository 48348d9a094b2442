package sigs

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the sigs.Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the Msg.
	//
	// Helpful to store original, unparsed bytes here, just in case.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// StdSignature is a signature of the transaction sign bytes together with
// the key that produced it and the sequence it was made for.
type StdSignature struct {
	Sequence  int64
	Pubkey    *crypto.PublicKey
	Signature *crypto.Signature
}

// GetSequence returns the signature sequence.
func (s *StdSignature) GetSequence() int64 {
	if s == nil {
		return 0
	}
	return s.Sequence
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	seq := s.GetSequence()
	if seq < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if s.Pubkey == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if s.Signature == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}

func (s *StdSignature) Marshal() ([]byte, error) {
	e := codec.NewEncoder().Varint(1, s.Sequence)
	if s.Pubkey != nil {
		if err := e.Message(2, s.Pubkey); err != nil {
			return nil, err
		}
	}
	if s.Signature != nil {
		if err := e.Message(3, s.Signature); err != nil {
			return nil, err
		}
	}
	return e.Result(), nil
}

func (s *StdSignature) Unmarshal(raw []byte) error {
	*s = StdSignature{}
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Next()
		if err != nil {
			return err
		}
		switch field {
		case 1:
			if err := codec.Expect(field, wire, proto.WireVarint); err != nil {
				return err
			}
			if s.Sequence, err = d.Varint(); err != nil {
				return err
			}
		case 2:
			if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
				return err
			}
			raw, err := d.Bytes()
			if err != nil {
				return err
			}
			s.Pubkey = &crypto.PublicKey{}
			if err := s.Pubkey.Unmarshal(raw); err != nil {
				return errors.Wrap(err, "pubkey")
			}
		case 3:
			if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
				return err
			}
			raw, err := d.Bytes()
			if err != nil {
				return err
			}
			s.Signature = &crypto.Signature{}
			if err := s.Signature.Unmarshal(raw); err != nil {
				return errors.Wrap(err, "signature")
			}
		default:
			if err := d.Skip(wire); err != nil {
				return err
			}
		}
	}
	return nil
}
