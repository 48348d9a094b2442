package custody

import (
	"github.com/iov-one/custody/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// DeliverResult is what a handler returns when a transaction was applied.
// Failures are always reported through the error return instead.
type DeliverResult struct {
	// Data is machine readable output, such as the address of a new vault.
	Data []byte
	// Log is a human readable note.
	Log string
	// Tags are indexed by tendermint and can be used to search transactions.
	Tags    []common.KVPair
	GasUsed int64
}

// ToABCI builds the tendermint response for a successful DeliverTx.
func (d DeliverResult) ToABCI() abci.ResponseDeliverTx {
	return abci.ResponseDeliverTx{
		Data:    d.Data,
		Log:     d.Log,
		Tags:    d.Tags,
		GasUsed: d.GasUsed,
	}
}

// CheckResult is what a handler returns when a transaction may enter the
// mempool.
type CheckResult struct {
	Data []byte
	Log  string
	// GasAllocated caps the work the transaction is allowed to do.
	GasAllocated int64
	// GasPayment accumulates what decorators charge for their own checks,
	// such as signature verification.
	GasPayment int64
}

// NewCheck returns a result carrying only the allocated gas and a log line.
func NewCheck(gasAllocated int64, log string) CheckResult {
	return CheckResult{GasAllocated: gasAllocated, Log: log}
}

// ToABCI builds the tendermint response for a successful CheckTx.
func (c CheckResult) ToABCI() abci.ResponseCheckTx {
	return abci.ResponseCheckTx{
		Data:      c.Data,
		Log:       c.Log,
		GasWanted: c.GasAllocated,
	}
}

// DeliverOrError picks the failure response when err is set and the
// result's own response otherwise.
func DeliverOrError(result *DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		return DeliverTxError(err, debug)
	}
	return result.ToABCI()
}

// CheckOrError is the CheckTx counterpart of DeliverOrError.
func CheckOrError(result *CheckResult, err error, debug bool) abci.ResponseCheckTx {
	if err != nil {
		return CheckTxError(err, debug)
	}
	return result.ToABCI()
}

// DeliverTxError reports err with its registered code. Unregistered errors
// are redacted unless debug is set.
func DeliverTxError(err error, debug bool) abci.ResponseDeliverTx {
	code, log := failure("cannot deliver tx", err, debug)
	return abci.ResponseDeliverTx{Code: code, Log: log}
}

// CheckTxError reports err with its registered code. Unregistered errors
// are redacted unless debug is set.
func CheckTxError(err error, debug bool) abci.ResponseCheckTx {
	code, log := failure("cannot check tx", err, debug)
	return abci.ResponseCheckTx{Code: code, Log: log}
}

func failure(prefix string, err error, debug bool) (uint32, string) {
	code, log := errors.ABCIInfo(err, debug)
	if code == errors.SuccessABCICode {
		return code, log
	}
	return code, prefix + ": " + log
}
