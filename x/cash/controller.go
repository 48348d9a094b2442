package cash

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// CoinMover is an interface for moving value between wallets.
type CoinMover interface {
	MoveCoins(store custody.KVStore, src, dest custody.Address, amount uint64) error
}

// Controller is the functionality needed by cash.Handler and
// cash.Initializer. Other extensions depend on the smaller CoinMover or
// on the full Controller when they must allocate wallets.
type Controller interface {
	CoinMover
	Balance(store custody.ReadOnlyKVStore, addr custody.Address) (uint64, error)
	Allocate(store custody.KVStore, addr custody.Address) error
	IssueCoins(store custody.KVStore, dest custody.Address, amount uint64) error
}

// BaseController is a simple implementation of Controller
type BaseController struct {
	bucket Bucket
}

var _ Controller = BaseController{}

// NewController returns a basic controller implementation
func NewController(bucket Bucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the amount held by the wallet. A missing wallet is
// reported as ErrNotFound.
func (c BaseController) Balance(store custody.ReadOnlyKVStore, addr custody.Address) (uint64, error) {
	w, err := c.bucket.Get(store, addr)
	if err != nil {
		return 0, errors.Wrap(err, "cannot load wallet")
	}
	if w == nil {
		return 0, errors.Wrapf(errors.ErrNotFound, "wallet %s", addr)
	}
	return w.Amount(), nil
}

// Allocate creates an empty wallet at the given address. It fails
// with ErrDuplicate if a wallet already exists there.
func (c BaseController) Allocate(store custody.KVStore, addr custody.Address) error {
	exists, err := c.bucket.Has(store, addr)
	if err != nil {
		return errors.Wrap(err, "cannot load wallet")
	}
	if exists {
		return errors.Wrapf(errors.ErrDuplicate, "wallet %s", addr)
	}
	return c.bucket.Save(store, NewWallet(addr, 0))
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// coins, it fails.
func (c BaseController) MoveCoins(store custody.KVStore, src, dest custody.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero value")
	}

	sender, err := c.bucket.Get(store, src)
	if err != nil {
		return errors.Wrap(err, "cannot load sender")
	}
	if sender == nil {
		return errors.Wrapf(errors.ErrEmpty, "empty account %s", src)
	}
	if err := sender.Subtract(amount); err != nil {
		return err
	}
	if err := c.bucket.Save(store, sender); err != nil {
		return errors.Wrap(err, "cannot save sender")
	}

	// Load the recipient after the sender is stored so that a transfer
	// to self reads the updated balance.
	recipient, err := c.bucket.GetOrCreate(store, dest)
	if err != nil {
		return errors.Wrap(err, "cannot load recipient")
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}
	return c.bucket.Save(store, recipient)
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(store custody.KVStore, dest custody.Address, amount uint64) error {
	recipient, err := c.bucket.GetOrCreate(store, dest)
	if err != nil {
		return errors.Wrap(err, "cannot load recipient")
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}
	return c.bucket.Save(store, recipient)
}
