package sigs

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
)

// StdTx is a transaction carrying signatures over its message bytes.
type StdTx struct {
	custody.Tx
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)
var _ custody.Tx = (*StdTx)(nil)

func NewStdTx(payload []byte) *StdTx {
	msg := &custodytest.Msg{RoutePath: "test/sigs", Serialized: payload}
	return &StdTx{Tx: &custodytest.Tx{Msg: msg}}
}

func (tx StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

func (tx StdTx) GetSignBytes() ([]byte, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	return msg.Marshal()
}

// SigCheckHandler stores the seen signers on each call
type SigCheckHandler struct {
	Signers []custody.Condition
}

var _ custody.Handler = (*SigCheckHandler)(nil)

func (s *SigCheckHandler) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &custody.CheckResult{}, nil
}

func (s *SigCheckHandler) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &custody.DeliverResult{}, nil
}
