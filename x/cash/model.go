package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// BucketName prefixes every wallet key.
const BucketName = "cash"

// WalletData is the persisted state of a wallet.
type WalletData struct {
	Amount uint64
}

var _ orm.CloneableData = (*WalletData)(nil)

// Validate accepts any amount, including zero.
func (w *WalletData) Validate() error {
	if w == nil {
		return errors.Wrap(errors.ErrEmpty, "wallet")
	}
	return nil
}

func (w *WalletData) Copy() orm.CloneableData {
	return &WalletData{Amount: w.Amount}
}

func (w *WalletData) Marshal() ([]byte, error) {
	return codec.NewEncoder().Uvarint(1, w.Amount).Result(), nil
}

func (w *WalletData) Unmarshal(raw []byte) error {
	var amount uint64
	for d := codec.NewDecoder(raw); d.More(); {
		field, wire, err := d.Next()
		if err != nil {
			return err
		}
		if field != 1 {
			if err := d.Skip(wire); err != nil {
				return err
			}
			continue
		}
		if err := codec.Expect(field, wire, proto.WireVarint); err != nil {
			return err
		}
		if amount, err = d.Uvarint(); err != nil {
			return errors.Wrap(err, "amount")
		}
	}
	w.Amount = amount
	return nil
}

// Wallet is the balance held by one address.
type Wallet struct {
	key   custody.Address
	value *WalletData
}

var _ orm.Object = (*Wallet)(nil)

func NewWallet(owner custody.Address, amount uint64) *Wallet {
	return &Wallet{key: owner, value: &WalletData{Amount: amount}}
}

func (w Wallet) Value() custody.Persistent {
	return w.value
}

func (w Wallet) Key() []byte {
	return w.key
}

func (w *Wallet) SetKey(key []byte) {
	w.key = key
}

// Address is the owner of the wallet.
func (w Wallet) Address() custody.Address {
	return w.key
}

func (w Wallet) Validate() error {
	if err := w.key.Validate(); err != nil {
		return errors.Field("Key", err, "wallet address")
	}
	return w.value.Validate()
}

// Clone deep copies the wallet.
func (w *Wallet) Clone() orm.Object {
	var amount uint64
	if w.value != nil {
		amount = w.value.Amount
	}
	var owner custody.Address
	if len(w.key) != 0 {
		owner = append(owner, w.key...)
	}
	return NewWallet(owner, amount)
}

func (w Wallet) Amount() uint64 {
	return w.value.Amount
}

// Add fails with ErrOverflow instead of wrapping around.
func (w *Wallet) Add(amount uint64) error {
	sum := w.value.Amount + amount
	if sum < w.value.Amount {
		return errors.Wrapf(errors.ErrOverflow, "wallet %s", w.key)
	}
	w.value.Amount = sum
	return nil
}

// Subtract fails with ErrInsufficientAmount when the balance is too low.
func (w *Wallet) Subtract(amount uint64) error {
	if amount > w.value.Amount {
		return errors.Wrapf(errors.ErrInsufficientAmount,
			"wallet %s holds %s, need %s", w.key, FormatAmount(w.value.Amount), FormatAmount(amount))
	}
	w.value.Amount -= amount
	return nil
}

// Bucket stores wallets keyed by owner address.
type Bucket struct {
	orm.Bucket
}

func NewBucket() Bucket {
	return Bucket{Bucket: orm.NewBucket(BucketName, NewWallet(nil, 0))}
}

// Get loads the wallet stored under the address. A missing wallet is
// returned as nil with no error.
func (b Bucket) Get(db custody.ReadOnlyKVStore, key custody.Address) (*Wallet, error) {
	obj, err := b.Bucket.Get(db, key)
	if err != nil || obj == nil {
		return nil, err
	}
	if w, ok := obj.(*Wallet); ok {
		return w, nil
	}
	return nil, errors.WithType(errors.ErrModel, obj)
}

func (b Bucket) Save(db custody.KVStore, value *Wallet) error {
	return b.Bucket.Save(db, value)
}

// GetOrCreate loads the wallet or returns a new empty one. The new
// wallet is not stored until saved.
func (b Bucket) GetOrCreate(db custody.KVStore, key custody.Address) (*Wallet, error) {
	wallet, err := b.Get(db, key)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		wallet = NewWallet(key, 0)
	}
	return wallet, nil
}
