package sigs

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
)

// SignCodeV1 versions the layout of the signed payload.
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// BuildSignBytes returns the digest a signer signs for a transaction
// serialized as signBytes:
//
//	sha512(SignCodeV1 | len(chainID) uint8 | chainID | seq int64 big endian | signBytes)
//
// Binding the chain id and the sequence makes a signature unusable on
// another chain or a second time.
func BuildSignBytes(signBytes []byte, chainID string, seq int64) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrap(ErrInvalidSequence, "negative")
	}
	if !custody.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}

	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], uint64(seq))

	h := sha512.New()
	h.Write(SignCodeV1)
	h.Write([]byte{uint8(len(chainID))})
	h.Write([]byte(chainID))
	h.Write(seqBytes[:])
	h.Write(signBytes)
	return h.Sum(nil), nil
}

// BuildSignBytesTx is BuildSignBytes over the sign bytes of tx.
func BuildSignBytesTx(tx SignedTx, chainID string, seq int64) ([]byte, error) {
	raw, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	return BuildSignBytes(raw, chainID, seq)
}

// SignTx signs tx for chainID with the sequence seq of signer.
func SignTx(signer crypto.Signer, tx SignedTx, chainID string, seq int64) (*StdSignature, error) {
	digest, err := BuildSignBytesTx(tx, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(digest)
	if err != nil {
		return nil, err
	}
	return &StdSignature{Pubkey: signer.PublicKey(), Signature: sig, Sequence: seq}, nil
}

// VerifyTxSignatures verifies every signature of tx and consumes their
// sequences. It returns the signer conditions in signature order. A tx
// without signatures yields an empty list.
func VerifyTxSignatures(db custody.KVStore, tx SignedTx, chainID string) ([]custody.Condition, error) {
	raw, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	sigs := tx.GetSignatures()
	signers := make([]custody.Condition, len(sigs))
	for i, sig := range sigs {
		if signers[i], err = VerifySignature(db, sig, raw, chainID); err != nil {
			return nil, err
		}
	}
	return signers, nil
}

// VerifySignature checks sig over signBytes and stores the signer with its
// sequence incremented.
func VerifySignature(db custody.KVStore, sig *StdSignature, signBytes []byte, chainID string) (custody.Condition, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	bucket := NewBucket()
	user, err := bucket.Load(db, sig.Pubkey)
	if err != nil {
		return nil, err
	}

	digest, err := BuildSignBytes(signBytes, chainID, sig.Sequence)
	if err != nil {
		return nil, err
	}
	if !user.Pubkey.Verify(digest, sig.Signature) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}
	if err := user.IncrementSequence(sig.Sequence); err != nil {
		return nil, err
	}
	if err := bucket.Save(db, user); err != nil {
		return nil, err
	}
	return user.Pubkey.Condition(), nil
}
