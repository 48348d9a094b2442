package crypto

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

// PublicKey carries an ed25519 public key.
type PublicKey struct {
	Ed25519 []byte
}

// PrivateKey carries an ed25519 private key in its 64 byte form.
type PrivateKey struct {
	Ed25519 []byte
}

// Signature carries an ed25519 signature.
type Signature struct {
	Ed25519 []byte
}

func (p *PublicKey) GetEd25519() []byte {
	if p == nil {
		return nil
	}
	return p.Ed25519
}

func (p *PublicKey) Marshal() ([]byte, error) {
	return marshalKey(p.GetEd25519()), nil
}

func (p *PublicKey) Unmarshal(raw []byte) error {
	b, err := unmarshalKey(raw)
	p.Ed25519 = b
	return err
}

func (p *PrivateKey) GetEd25519() []byte {
	if p == nil {
		return nil
	}
	return p.Ed25519
}

func (p *PrivateKey) Marshal() ([]byte, error) {
	return marshalKey(p.GetEd25519()), nil
}

func (p *PrivateKey) Unmarshal(raw []byte) error {
	b, err := unmarshalKey(raw)
	p.Ed25519 = b
	return err
}

func (s *Signature) GetEd25519() []byte {
	if s == nil {
		return nil
	}
	return s.Ed25519
}

func (s *Signature) Marshal() ([]byte, error) {
	return marshalKey(s.GetEd25519()), nil
}

func (s *Signature) Unmarshal(raw []byte) error {
	b, err := unmarshalKey(raw)
	s.Ed25519 = b
	return err
}

// All three models share the same layout: a single ed25519 bytes field.
func marshalKey(b []byte) []byte {
	return codec.NewEncoder().Bytes(1, b).Result()
}

func unmarshalKey(raw []byte) ([]byte, error) {
	var res []byte
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
				return nil, err
			}
			if res, err = d.Bytes(); err != nil {
				return nil, errors.Wrap(err, "ed25519")
			}
		default:
			if err := d.Skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}
