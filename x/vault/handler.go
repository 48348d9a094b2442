package vault

import (
	"encoding/binary"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/cash"
)

const (
	createVaultCost   int64 = 300
	rotateSignersCost int64 = 100
	depositCost       int64 = 50
	withdrawCost      int64 = 100
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r custody.Registry, auth x.Authenticator, control cash.Controller) {
	vaults := NewVaultBucket()
	deposits := NewDepositBucket()
	r.Handle(&CreateVaultMsg{}, &CreateVaultHandler{auth: auth, vaults: vaults, control: control})
	r.Handle(&RotateSignersMsg{}, &RotateSignersHandler{auth: auth, vaults: vaults})
	r.Handle(&DepositMsg{}, &DepositHandler{auth: auth, vaults: vaults, deposits: deposits, control: control})
	r.Handle(&WithdrawMsg{}, &WithdrawHandler{auth: auth, vaults: vaults, control: control})
	r.Handle(&UpdateConfigurationMsg{}, gconf.NewUpdateConfigurationHandler(gconfPackage, &Configuration{}, auth, nil))
}

// RegisterQuery registers the vault and deposit account buckets as
// "/vaults" and "/deposits". Vaults can also be looked up by their
// id under "/vaults/id".
func RegisterQuery(qr custody.QueryRouter) {
	vaults := NewVaultBucket()
	vaults.Register("vaults", qr)
	qr.Register("/vaults/id", idQuery{vaults: vaults})
	NewDepositBucket().Register("deposits", qr)
}

// checkQuorum ensures that the leading witnesses are the active signers of
// the vault, in the stored order, and that each of them signed the
// transaction. Witnesses beyond the active signers are not inspected.
// A vault without signers is locked and no quorum can be reached.
func checkQuorum(ctx custody.Context, auth x.Authenticator, v *Vault, witnesses []custody.Address) error {
	if v.Count == 0 {
		return errors.Wrapf(ErrMissingSignature, "vault %d has no signers", v.ID)
	}
	for i, signer := range v.ActiveSigners() {
		if i >= len(witnesses) {
			return errors.Wrapf(ErrMissingSignature, "no witness for signer %d", i)
		}
		w := witnesses[i]
		if !auth.HasAddress(ctx, w) {
			return errors.Wrapf(ErrMissingSignature, "witness %d", i)
		}
		if !w.Equals(signer) {
			return errors.Wrapf(ErrWrongSigner, "witness %d", i)
		}
	}
	return nil
}

// CreateVaultHandler allocates a new vault together with its custody
// wallet.
type CreateVaultHandler struct {
	auth    x.Authenticator
	vaults  VaultBucket
	control cash.Controller
}

var _ custody.Handler = (*CreateVaultHandler)(nil)

func (h *CreateVaultHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: createVaultCost}, nil
}

func (h *CreateVaultHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	addr, err := createVault(db, h.vaults, h.control, msg.ID, msg.Signers)
	if err != nil {
		return nil, err
	}
	custody.GetLogger(ctx).Debug("vault created", "id", msg.ID, "address", addr, "signers", msg.Count)
	return &custody.DeliverResult{Data: addr}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h *CreateVaultHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*CreateVaultMsg, error) {
	var msg CreateVaultMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	// The vault is paid for by the transaction signer.
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "payer signature missing")
	}
	switch _, err := h.vaults.Get(db, msg.ID); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "vault %d", msg.ID)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	return &msg, nil
}

// createVault stores a vault with the given signers and allocates its
// custody wallet. Anyone can send coins to the custody address before the
// vault exists, so an existing wallet is kept as is. Its coins are not
// counted in the vault balance. It returns the vault address.
func createVault(db custody.KVStore, vaults VaultBucket, control cash.Controller, id uint64, signers []custody.Address) (custody.Address, error) {
	v := NewVault(id, signers)
	if err := vaults.Create(db, v); err != nil {
		return nil, errors.Wrap(err, "cannot create vault")
	}
	addr := VaultAddress(id)
	if err := control.Allocate(db, CustodyAddress(addr)); err != nil && !errors.ErrDuplicate.Is(err) {
		return nil, errors.Wrap(err, "cannot allocate custody wallet")
	}
	return addr, nil
}

// RotateSignersHandler replaces the signers of a vault when approved by all
// current signers.
type RotateSignersHandler struct {
	auth   x.Authenticator
	vaults VaultBucket
}

var _ custody.Handler = (*RotateSignersHandler)(nil)

func (h *RotateSignersHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: rotateSignersCost}, nil
}

func (h *RotateSignersHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	v.SetSigners(msg.Witnesses[len(msg.Witnesses)-int(msg.NewCount):])
	if err := h.vaults.Save(db, v); err != nil {
		return nil, errors.Wrap(err, "cannot save vault")
	}
	custody.GetLogger(ctx).Debug("vault signers rotated", "id", v.ID, "signers", v.Count)
	return &custody.DeliverResult{}, nil
}

func (h *RotateSignersHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*RotateSignersMsg, *Vault, error) {
	var msg RotateSignersMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.vaults.Get(db, msg.ID)
	if err != nil {
		return nil, nil, err
	}
	// The second condition guards against the sum wrapping around.
	if uint64(len(msg.Witnesses)) != v.Count+msg.NewCount || msg.NewCount > uint64(len(msg.Witnesses)) {
		return nil, nil, errors.Wrapf(ErrWrongSignerCount,
			"want %d current and %d new signers, got %d witnesses", v.Count, msg.NewCount, len(msg.Witnesses))
	}
	if err := checkQuorum(ctx, h.auth, v, msg.Witnesses); err != nil {
		return nil, nil, err
	}
	if msg.NewCount > MaxSigners {
		return nil, nil, errors.Wrapf(ErrWrongSignerCount, "%d new signers exceed %d", msg.NewCount, MaxSigners)
	}
	if msg.NewCount == 0 {
		conf, err := loadConf(db)
		if err != nil {
			return nil, nil, err
		}
		if !conf.LockoutAllowed() {
			return nil, nil, errors.Wrap(ErrWrongSignerCount, "vault cannot be left without signers")
		}
	}
	return &msg, v, nil
}

// DepositHandler moves value of the transaction signer into a vault.
type DepositHandler struct {
	auth     x.Authenticator
	vaults   VaultBucket
	deposits DepositBucket
	control  cash.CoinMover
}

var _ custody.Handler = (*DepositHandler)(nil)

func (h *DepositHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: depositCost}, nil
}

func (h *DepositHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, v, depositor, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	vaultAddr := VaultAddress(v.ID)

	// Transfer failures are reported as they are.
	if err := h.control.MoveCoins(db, depositor, CustodyAddress(vaultAddr), msg.Amount); err != nil {
		return nil, err
	}

	if err := v.Deposit(msg.Amount); err != nil {
		return nil, err
	}
	if err := h.vaults.Save(db, v); err != nil {
		return nil, errors.Wrap(err, "cannot save vault")
	}

	acct, err := h.deposits.Get(db, depositor, vaultAddr)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		acct = &DepositAccount{}
	}
	if err := acct.Add(msg.Amount); err != nil {
		return nil, err
	}
	acct.Owner = depositor
	acct.Vault = vaultAddr
	if err := h.deposits.Save(db, acct); err != nil {
		return nil, errors.Wrap(err, "cannot save deposit account")
	}

	custody.GetLogger(ctx).Debug("vault deposit", "id", v.ID, "depositor", depositor, "amount", msg.Amount)
	return &custody.DeliverResult{}, nil
}

func (h *DepositHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*DepositMsg, *Vault, custody.Address, error) {
	var msg DepositMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	depositor := x.MainSigner(ctx, h.auth)
	if depositor == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "depositor signature missing")
	}
	v, err := h.vaults.Get(db, msg.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, v, depositor.Address(), nil
}

// WithdrawHandler releases value from a vault when approved by all active
// signers.
type WithdrawHandler struct {
	auth    x.Authenticator
	vaults  VaultBucket
	control cash.CoinMover
}

var _ custody.Handler = (*WithdrawHandler)(nil)

func (h *WithdrawHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: withdrawCost}, nil
}

func (h *WithdrawHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := v.Withdraw(msg.Amount); err != nil {
		return nil, err
	}
	if err := h.vaults.Save(db, v); err != nil {
		return nil, errors.Wrap(err, "cannot save vault")
	}
	wallet := CustodyAddress(VaultAddress(v.ID))
	if err := h.control.MoveCoins(db, wallet, msg.Recipient, msg.Amount); err != nil {
		return nil, err
	}
	custody.GetLogger(ctx).Debug("vault withdraw", "id", v.ID, "recipient", msg.Recipient, "amount", msg.Amount)
	return &custody.DeliverResult{}, nil
}

func (h *WithdrawHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*WithdrawMsg, *Vault, error) {
	var msg WithdrawMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.vaults.Get(db, msg.ID)
	if err != nil {
		return nil, nil, err
	}
	// The balance is checked before any signature.
	if msg.Amount > v.Balance {
		return nil, nil, errors.Wrapf(ErrInsufficientBalance, "vault %d holds %d, requested %d", v.ID, v.Balance, msg.Amount)
	}
	if err := checkQuorum(ctx, h.auth, v, msg.Witnesses); err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

// idQuery resolves vaults by their numeric id, given as 8 little endian
// bytes.
type idQuery struct {
	vaults VaultBucket
}

var _ custody.QueryHandler = idQuery{}

func (q idQuery) Query(db custody.ReadOnlyKVStore, mod string, data []byte) ([]custody.Model, error) {
	if mod != custody.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
	if len(data) != 8 {
		return nil, errors.Wrapf(errors.ErrInput, "vault id must be 8 bytes, got %d", len(data))
	}
	id := binary.LittleEndian.Uint64(data)
	return q.vaults.Query(db, custody.KeyQueryMod, VaultAddress(id))
}
