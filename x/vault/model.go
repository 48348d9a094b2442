package vault

import (
	"encoding/binary"
	"strconv"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

const (
	// MaxSigners is the capacity of the signer list of a vault.
	MaxSigners = 8

	vaultBucketName   = "vault"
	depositBucketName = "deposit"
)

func vaultRecordSize() int {
	return 8 + MaxSigners*custody.AddressLength + 8 + 8
}

func depositRecordSize() int {
	return 2*custody.AddressLength + 8
}

// Vault is a pool of value controlled by an ordered list of signers.
// Only the first Count signer slots are in use, the remaining slots hold
// the empty sentinel address.
type Vault struct {
	ID      uint64
	Signers [MaxSigners]custody.Address
	Count   uint64
	Balance uint64
}

var _ orm.CloneableData = (*Vault)(nil)

// NewVault returns a vault with an empty balance that is controlled by the
// given signers.
func NewVault(id uint64, signers []custody.Address) *Vault {
	v := &Vault{ID: id}
	v.SetSigners(signers)
	return v
}

// ActiveSigners returns the signers whose approval is required.
func (v *Vault) ActiveSigners() []custody.Address {
	n := v.Count
	if n > MaxSigners {
		n = MaxSigners
	}
	return v.Signers[:n]
}

// SetSigners clears all signer slots and fills the leading ones with the
// given addresses. It panics if more than MaxSigners addresses are given.
func (v *Vault) SetSigners(signers []custody.Address) {
	if len(signers) > MaxSigners {
		panic("too many signers")
	}
	v.Signers = [MaxSigners]custody.Address{}
	for i, s := range signers {
		v.Signers[i] = append(custody.Address(nil), s...)
	}
	v.Count = uint64(len(signers))
}

// Deposit increases the tracked balance.
func (v *Vault) Deposit(amount uint64) error {
	sum := v.Balance + amount
	if sum < v.Balance {
		return errors.Wrapf(ErrBalanceOverflow, "vault %d", v.ID)
	}
	v.Balance = sum
	return nil
}

// Withdraw decreases the tracked balance.
func (v *Vault) Withdraw(amount uint64) error {
	if amount > v.Balance {
		return errors.Wrapf(ErrInsufficientBalance, "vault %d holds %d, requested %d", v.ID, v.Balance, amount)
	}
	v.Balance -= amount
	return nil
}

func (v *Vault) Validate() error {
	if v.Count > MaxSigners {
		return errors.Field("Count", errors.ErrModel, "%d exceeds %d signers", v.Count, MaxSigners)
	}
	var errs error
	for i, s := range v.Signers {
		if uint64(i) < v.Count {
			errs = errors.AppendField(errs, fieldName("Signers", i), s.Validate())
		} else if !s.IsEmpty() {
			errs = errors.Append(errs, errors.Field(fieldName("Signers", i), errors.ErrModel, "slot beyond count is in use"))
		}
	}
	return errs
}

func (v *Vault) Copy() orm.CloneableData {
	cp := &Vault{
		ID:      v.ID,
		Count:   v.Count,
		Balance: v.Balance,
	}
	for i, s := range v.Signers {
		if s != nil {
			cp.Signers[i] = append(custody.Address(nil), s...)
		}
	}
	return cp
}

// Marshal writes the fixed size record
//
//	id(8) | signers(8 * AddressLength) | count(8) | balance(8)
//
// Unused signer slots are written as zero bytes.
func (v *Vault) Marshal() ([]byte, error) {
	if v.Count > MaxSigners {
		return nil, errors.Wrapf(errors.ErrState, "signer count %d", v.Count)
	}
	raw := make([]byte, vaultRecordSize())
	binary.LittleEndian.PutUint64(raw, v.ID)
	off := 8
	for i := uint64(0); i < MaxSigners; i++ {
		if i < v.Count {
			s := v.Signers[i]
			if len(s) != custody.AddressLength {
				return nil, errors.Wrapf(errors.ErrState, "signer %d: invalid address length %d", i, len(s))
			}
			copy(raw[off:], s)
		}
		off += custody.AddressLength
	}
	binary.LittleEndian.PutUint64(raw[off:], v.Count)
	binary.LittleEndian.PutUint64(raw[off+8:], v.Balance)
	return raw, nil
}

func (v *Vault) Unmarshal(raw []byte) error {
	if len(raw) != vaultRecordSize() {
		return errors.Wrapf(errors.ErrInput, "vault record of %d bytes", len(raw))
	}
	*v = Vault{}
	signersEnd := 8 + MaxSigners*custody.AddressLength
	v.ID = binary.LittleEndian.Uint64(raw)
	v.Count = binary.LittleEndian.Uint64(raw[signersEnd:])
	v.Balance = binary.LittleEndian.Uint64(raw[signersEnd+8:])
	if v.Count > MaxSigners {
		return errors.Wrapf(errors.ErrInput, "signer count %d", v.Count)
	}
	for i := uint64(0); i < MaxSigners; i++ {
		off := 8 + int(i)*custody.AddressLength
		slot := custody.Address(raw[off : off+custody.AddressLength])
		switch {
		case i < v.Count:
			v.Signers[i] = append(custody.Address(nil), slot...)
		case !slot.IsEmpty():
			return errors.Wrapf(errors.ErrInput, "signer slot %d beyond count is in use", i)
		}
	}
	return nil
}

// DepositAccount attributes the value deposited into a vault to its
// depositor.
type DepositAccount struct {
	Owner  custody.Address
	Vault  custody.Address
	Amount uint64
}

var _ orm.CloneableData = (*DepositAccount)(nil)

func (d *DepositAccount) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Owner", d.Owner.Validate())
	errs = errors.AppendField(errs, "Vault", d.Vault.Validate())
	return errs
}

func (d *DepositAccount) Copy() orm.CloneableData {
	return &DepositAccount{
		Owner:  append(custody.Address(nil), d.Owner...),
		Vault:  append(custody.Address(nil), d.Vault...),
		Amount: d.Amount,
	}
}

// Marshal writes the fixed size record
//
//	owner(AddressLength) | vault(AddressLength) | amount(8)
func (d *DepositAccount) Marshal() ([]byte, error) {
	if len(d.Owner) != custody.AddressLength || len(d.Vault) != custody.AddressLength {
		return nil, errors.Wrap(errors.ErrState, "invalid address length")
	}
	raw := make([]byte, depositRecordSize())
	copy(raw, d.Owner)
	copy(raw[custody.AddressLength:], d.Vault)
	binary.LittleEndian.PutUint64(raw[2*custody.AddressLength:], d.Amount)
	return raw, nil
}

func (d *DepositAccount) Unmarshal(raw []byte) error {
	if len(raw) != depositRecordSize() {
		return errors.Wrapf(errors.ErrInput, "deposit record of %d bytes", len(raw))
	}
	n := custody.AddressLength
	d.Owner = append(custody.Address(nil), raw[:n]...)
	d.Vault = append(custody.Address(nil), raw[n:2*n]...)
	d.Amount = binary.LittleEndian.Uint64(raw[2*n:])
	return nil
}

// Add increases the attributed amount.
func (d *DepositAccount) Add(amount uint64) error {
	sum := d.Amount + amount
	if sum < d.Amount {
		return errors.Wrapf(ErrBalanceOverflow, "deposit account of %s", d.Owner)
	}
	d.Amount = sum
	return nil
}

// VaultBucket stores vaults under their derived address.
type VaultBucket struct {
	orm.Bucket
}

// NewVaultBucket returns a bucket for storing vaults.
func NewVaultBucket() VaultBucket {
	return VaultBucket{
		Bucket: orm.NewBucket(vaultBucketName, orm.NewSimpleObj(nil, &Vault{})),
	}
}

// Get returns the vault with the given id. ErrNotFound is returned if the
// vault does not exist.
func (b VaultBucket) Get(db custody.ReadOnlyKVStore, id uint64) (*Vault, error) {
	return b.GetByAddress(db, VaultAddress(id))
}

// GetByAddress returns the vault stored at the given address. ErrNotFound
// is returned if the vault does not exist.
func (b VaultBucket) GetByAddress(db custody.ReadOnlyKVStore, addr custody.Address) (*Vault, error) {
	obj, err := b.Bucket.Get(db, addr)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load vault")
	}
	if obj == nil || obj.Value() == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "vault %s", addr)
	}
	v, ok := obj.Value().(*Vault)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj.Value())
	}
	return v, nil
}

// Create stores a new vault. It fails with ErrDuplicate if a vault with the
// same id exists.
func (b VaultBucket) Create(db custody.KVStore, v *Vault) error {
	key := VaultAddress(v.ID)
	exists, err := b.Has(db, key)
	if err != nil {
		return errors.Wrap(err, "cannot load vault")
	}
	if exists {
		return errors.Wrapf(errors.ErrDuplicate, "vault %d", v.ID)
	}
	return b.Save(db, v)
}

// Save stores the vault under the address derived from its id.
func (b VaultBucket) Save(db custody.KVStore, v *Vault) error {
	return b.Bucket.Save(db, orm.NewSimpleObj(VaultAddress(v.ID), v))
}

// DepositBucket stores deposit accounts under their derived address and
// indexes them by vault.
type DepositBucket struct {
	orm.Bucket
}

// NewDepositBucket returns a bucket for storing deposit accounts.
func NewDepositBucket() DepositBucket {
	b := orm.NewBucket(depositBucketName, orm.NewSimpleObj(nil, &DepositAccount{}))
	return DepositBucket{
		Bucket: b.WithIndex("vault", depositVaultIndex, false),
	}
}

func depositVaultIndex(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	d, ok := obj.Value().(*DepositAccount)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj.Value())
	}
	return d.Vault, nil
}

// Get returns the deposit account of the owner for the given vault, or nil
// if the owner never deposited into it.
func (b DepositBucket) Get(db custody.ReadOnlyKVStore, owner, vault custody.Address) (*DepositAccount, error) {
	obj, err := b.Bucket.Get(db, DepositAddress(owner, vault))
	if err != nil {
		return nil, errors.Wrap(err, "cannot load deposit account")
	}
	if obj == nil || obj.Value() == nil {
		return nil, nil
	}
	d, ok := obj.Value().(*DepositAccount)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj.Value())
	}
	return d, nil
}

// ByVault returns all deposit accounts of the vault.
func (b DepositBucket) ByVault(db custody.ReadOnlyKVStore, vault custody.Address) ([]*DepositAccount, error) {
	objs, err := b.GetIndexed(db, "vault", vault)
	if err != nil {
		return nil, err
	}
	res := make([]*DepositAccount, 0, len(objs))
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		d, ok := obj.Value().(*DepositAccount)
		if !ok {
			return nil, errors.WithType(errors.ErrModel, obj.Value())
		}
		res = append(res, d)
	}
	return res, nil
}

// Save stores the deposit account under the address derived from its owner
// and vault.
func (b DepositBucket) Save(db custody.KVStore, d *DepositAccount) error {
	return b.Bucket.Save(db, orm.NewSimpleObj(DepositAddress(d.Owner, d.Vault), d))
}

func fieldName(name string, i int) string {
	return name + "." + strconv.Itoa(i)
}
