package sigs

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// BucketName prefixes every signer record.
const BucketName = "sigs"

// maxSequenceValue keeps sequences representable as a javascript number
// (2^53 - 1) so clients never lose precision.
const maxSequenceValue = (1 << 53) - 1

// UserData is the state of a signer: its public key and the sequence
// that the next signature must use.
type UserData struct {
	Pubkey   *crypto.PublicKey
	Sequence int64
}

var _ orm.CloneableData = (*UserData)(nil)

func (u *UserData) Validate() error {
	var errs error
	if u.Pubkey == nil {
		errs = errors.AppendField(errs, "Pubkey", errors.ErrEmpty)
	}
	if u.Sequence < 0 || u.Sequence > maxSequenceValue {
		errs = errors.AppendField(errs, "Sequence", ErrInvalidSequence)
	}
	return errs
}

func (u *UserData) Copy() orm.CloneableData {
	cp := *u
	return &cp
}

func (u *UserData) Marshal() ([]byte, error) {
	e := codec.NewEncoder()
	if u.Pubkey != nil {
		if err := e.Message(1, u.Pubkey); err != nil {
			return nil, err
		}
	}
	return e.Varint(2, u.Sequence).Result(), nil
}

func (u *UserData) Unmarshal(raw []byte) error {
	*u = UserData{}
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Next()
		if err != nil {
			return err
		}
		switch field {
		case 1:
			if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
				return err
			}
			raw, err := d.Bytes()
			if err != nil {
				return err
			}
			u.Pubkey = &crypto.PublicKey{}
			if err := u.Pubkey.Unmarshal(raw); err != nil {
				return errors.Wrap(err, "pubkey")
			}
		case 2:
			if err := codec.Expect(field, wire, proto.WireVarint); err != nil {
				return err
			}
			if u.Sequence, err = d.Varint(); err != nil {
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

// IncrementSequence consumes the sequence seq. It must be the next unused
// one and stay within the range clients can represent.
func (u *UserData) IncrementSequence(seq int64) error {
	if seq != u.Sequence {
		return errors.Wrapf(ErrInvalidSequence, "want %d, got %d", u.Sequence, seq)
	}
	if seq >= maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence++
	return nil
}

// Bucket keeps one UserData per signer address.
type Bucket struct {
	orm.Bucket
}

func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(BucketName, orm.NewSimpleObj(nil, &UserData{})),
	}
}

// Get returns the record of addr, or nil if it never signed anything.
func (b Bucket) Get(db custody.ReadOnlyKVStore, addr custody.Address) (*UserData, error) {
	obj, err := b.Bucket.Get(db, addr)
	if err != nil || obj == nil {
		return nil, err
	}
	u, ok := obj.Value().(*UserData)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj.Value())
	}
	return u, nil
}

// Load returns the record of pubkey. A key seen for the first time starts
// at sequence zero and is only stored once saved.
func (b Bucket) Load(db custody.ReadOnlyKVStore, pubkey *crypto.PublicKey) (*UserData, error) {
	u, err := b.Get(db, pubkey.Address())
	if err != nil {
		return nil, err
	}
	if u == nil {
		u = &UserData{Pubkey: pubkey}
	}
	return u, nil
}

// Save stores u under the address of its public key.
func (b Bucket) Save(db custody.KVStore, u *UserData) error {
	if u.Pubkey == nil {
		return errors.Wrap(errors.ErrEmpty, "pubkey")
	}
	return b.Bucket.Save(db, orm.NewSimpleObj(u.Pubkey.Address(), u))
}

// NextNonce is the sequence the next signature of signer must carry.
func NextNonce(db custody.ReadOnlyKVStore, signer custody.Address) (int64, error) {
	u, err := NewBucket().Get(db, signer)
	if err != nil {
		return 0, errors.Wrap(err, "signer")
	}
	if u == nil {
		return 0, nil
	}
	return u.Sequence, nil
}
