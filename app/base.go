package app

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp is a complete ABCI application. It decodes transactions and runs
// them through a single handler, usually a decorator chain ending in a
// router, on top of the state kept by StoreApp.
type BaseApp struct {
	*StoreApp
	decoder custody.TxDecoder
	handler custody.Handler
	debug   bool
}

var _ abci.Application = BaseApp{}

func NewBaseApp(store *StoreApp, decoder custody.TxDecoder, handler custody.Handler, debug bool) BaseApp {
	return BaseApp{
		StoreApp: store.WithDebug(debug),
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
	}
}

// DeliverTx applies the transaction to the block state.
func (b BaseApp) DeliverTx(raw []byte) abci.ResponseDeliverTx {
	tx, err := b.decode(raw)
	if err != nil {
		return custody.DeliverTxError(err, b.debug)
	}
	res, err := b.handler.Deliver(b.txContext("deliver_tx", tx), b.DeliverStore(), tx)
	return custody.DeliverOrError(res, err, b.debug)
}

// CheckTx validates the transaction against the mempool state.
func (b BaseApp) CheckTx(raw []byte) abci.ResponseCheckTx {
	tx, err := b.decode(raw)
	if err != nil {
		return custody.CheckTxError(err, b.debug)
	}
	res, err := b.handler.Check(b.txContext("check_tx", tx), b.CheckStore(), tx)
	return custody.CheckOrError(res, err, b.debug)
}

func (b BaseApp) txContext(call string, tx custody.Tx) custody.Context {
	return custody.WithLogInfo(b.BlockContext(), "call", call, "path", custody.GetPath(tx))
}

// decode turns a decoder panic on malformed input into an error.
func (b BaseApp) decode(raw []byte) (tx custody.Tx, err error) {
	defer errors.Recover(&err)
	return b.decoder(raw)
}
