package custodytest

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
)

// NewKey returns a new random ed25519 signer.
func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

var conditionSeq uint64

// NewCondition returns a unique condition. Conditions are generated from
// a process wide counter so that the test output is stable.
func NewCondition() custody.Condition {
	n := atomic.AddUint64(&conditionSeq, 1)
	seed := make([]byte, 32)
	binary.BigEndian.PutUint64(seed[24:], n)
	return crypto.PrivKeyEd25519FromSeed(seed).PublicKey().Condition()
}

// SequenceKey returns a deterministic private key for given sequence
// number. The same number always produces the same key.
func SequenceKey(n uint64) *crypto.PrivateKey {
	seed := make([]byte, 32)
	binary.BigEndian.PutUint64(seed[:8], n)
	seed[31] = 0xCA
	return crypto.PrivKeyEd25519FromSeed(seed)
}
