package vault

import (
	"context"
	"math/rand"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/x/cash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRouter dispatches messages by their path.
type testRouter map[string]custody.Handler

func (r testRouter) Handle(m custody.Msg, h custody.Handler) {
	r[m.Path()] = h
}

// env is a chain state with the vault and cash extensions installed.
type env struct {
	t      testing.TB
	db     custody.CacheableKVStore
	auth   *custodytest.CtxAuth
	cash   cash.BaseController
	router testRouter
}

func newEnv(t testing.TB) *env {
	e := &env{
		t:      t,
		db:     store.MemStore(),
		auth:   &custodytest.CtxAuth{Key: "vault-test"},
		cash:   cash.NewController(cash.NewBucket()),
		router: make(testRouter),
	}
	RegisterRoutes(e.router, e.auth, e.cash)
	return e
}

// exec runs the message the way the application does. Check is run on a
// throw away cache, Deliver on a cache that is only written on success.
// The Deliver error is returned after ensuring that Check agreed.
func (e *env) exec(msg custody.Msg, signers ...custody.Condition) error {
	e.t.Helper()
	h, ok := e.router[msg.Path()]
	require.True(e.t, ok, "no handler for %q", msg.Path())

	ctx := e.auth.SetConditions(context.Background(), signers...)
	tx := &custodytest.Tx{Msg: msg}

	check := e.db.CacheWrap()
	_, checkErr := h.Check(ctx, check, tx)
	check.Discard()

	deliver := e.db.CacheWrap()
	_, err := h.Deliver(ctx, deliver, tx)
	if err != nil {
		deliver.Discard()
	} else {
		require.NoError(e.t, deliver.Write())
	}

	// Check does not look at funds, so it can only be more permissive.
	if checkErr != nil {
		require.Error(e.t, err, "check failed with %+v", checkErr)
	}
	return err
}

func (e *env) vault(id uint64) *Vault {
	e.t.Helper()
	v, err := NewVaultBucket().Get(e.db, id)
	require.NoError(e.t, err)
	return v
}

func (e *env) balance(addr custody.Address) uint64 {
	e.t.Helper()
	w, err := cash.NewBucket().Get(e.db, addr)
	require.NoError(e.t, err)
	if w == nil {
		return 0
	}
	return w.Amount()
}

func (e *env) fund(addr custody.Address, amount uint64) {
	e.t.Helper()
	require.NoError(e.t, e.cash.IssueCoins(e.db, addr, amount))
}

func (e *env) custodyBalance(id uint64) uint64 {
	return e.balance(CustodyAddress(VaultAddress(id)))
}

func addrs(conds ...custody.Condition) []custody.Address {
	res := make([]custody.Address, len(conds))
	for i, c := range conds {
		res[i] = c.Address()
	}
	return res
}

func lockout(allowed bool) *bool {
	return &allowed
}

func TestCreateVault(t *testing.T) {
	a, b := custodytest.NewCondition(), custodytest.NewCondition()
	payer := custodytest.NewCondition()

	nine := make([]custody.Condition, 9)
	for i := range nine {
		nine[i] = custodytest.NewCondition()
	}

	cases := map[string]struct {
		msg     *CreateVaultMsg
		signers []custody.Condition
		wantErr *errors.Error
	}{
		"no signers": {
			msg:     &CreateVaultMsg{ID: 1, Count: 0},
			signers: []custody.Condition{payer},
			wantErr: ErrWrongSignerCount,
		},
		"too many signers": {
			msg:     &CreateVaultMsg{ID: 1, Count: 9, Signers: addrs(nine...)},
			signers: []custody.Condition{payer},
			wantErr: ErrWrongSignerCount,
		},
		"fewer signers than declared": {
			msg:     &CreateVaultMsg{ID: 1, Count: 2, Signers: addrs(a)},
			signers: []custody.Condition{payer},
			wantErr: ErrWrongSignerCount,
		},
		"more signers than declared": {
			msg:     &CreateVaultMsg{ID: 1, Count: 1, Signers: addrs(a, b)},
			signers: []custody.Condition{payer},
			wantErr: ErrWrongSignerCount,
		},
		"malformed signer": {
			msg:     &CreateVaultMsg{ID: 1, Count: 2, Signers: []custody.Address{a.Address(), custody.Address("short")}},
			signers: []custody.Condition{payer},
			wantErr: errors.ErrInput,
		},
		"nobody pays for the vault": {
			msg:     &CreateVaultMsg{ID: 1, Count: 2, Signers: addrs(a, b)},
			wantErr: errors.ErrUnauthorized,
		},
		"signers do not have to approve": {
			msg:     &CreateVaultMsg{ID: 1, Count: 2, Signers: addrs(a, b)},
			signers: []custody.Condition{payer},
		},
		"full vault": {
			msg:     &CreateVaultMsg{ID: 8, Count: 8, Signers: addrs(nine[:8]...)},
			signers: []custody.Condition{payer},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t)
			err := e.exec(tc.msg, tc.signers...)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "%+v", err)
				_, err := NewVaultBucket().Get(e.db, tc.msg.ID)
				assert.True(t, errors.ErrNotFound.Is(err))
				return
			}
			require.NoError(t, err)

			v := e.vault(tc.msg.ID)
			assert.Equal(t, tc.msg.ID, v.ID)
			assert.Equal(t, tc.msg.Count, v.Count)
			assert.EqualValues(t, 0, v.Balance)
			assert.Equal(t, tc.msg.Signers, v.ActiveSigners())
			for i := tc.msg.Count; i < MaxSigners; i++ {
				assert.True(t, v.Signers[i].IsEmpty(), "slot %d", i)
			}

			got, err := e.cash.Balance(e.db, CustodyAddress(VaultAddress(tc.msg.ID)))
			require.NoError(t, err)
			assert.EqualValues(t, 0, got)
		})
	}
}

func TestCreateVaultLayout(t *testing.T) {
	a, b := custodytest.NewCondition(), custodytest.NewCondition()
	e := newEnv(t)
	require.NoError(t, e.exec(&CreateVaultMsg{ID: 1, Count: 2, Signers: addrs(a, b)}, a))

	v := e.vault(1)
	assert.EqualValues(t, 2, v.Count)
	assert.Equal(t, a.Address(), v.Signers[0])
	assert.Equal(t, b.Address(), v.Signers[1])
	for i := 2; i < MaxSigners; i++ {
		assert.True(t, v.Signers[i].IsEmpty(), "slot %d", i)
	}
	assert.EqualValues(t, 0, v.Balance)
}

func TestCreateVaultDuplicate(t *testing.T) {
	a := custodytest.NewCondition()
	e := newEnv(t)
	require.NoError(t, e.exec(&CreateVaultMsg{ID: 3, Count: 1, Signers: addrs(a)}, a))

	other := custodytest.NewCondition()
	err := e.exec(&CreateVaultMsg{ID: 3, Count: 1, Signers: addrs(other)}, other)
	require.True(t, errors.ErrDuplicate.Is(err), "%+v", err)
	assert.Equal(t, addrs(a), e.vault(3).ActiveSigners())

	// A different id is a different vault.
	require.NoError(t, e.exec(&CreateVaultMsg{ID: 4, Count: 1, Signers: addrs(other)}, other))
}

func TestCreateVaultPrefundedCustody(t *testing.T) {
	a, stranger := custodytest.NewCondition(), custodytest.NewCondition()
	e := newEnv(t)
	custodyAddr := CustodyAddress(VaultAddress(5))
	e.fund(stranger.Address(), 10)

	// A plain transfer creates the custody wallet before the vault exists.
	require.NoError(t, e.cash.MoveCoins(e.db, stranger.Address(), custodyAddr, 1))

	require.NoError(t, e.exec(&CreateVaultMsg{ID: 5, Count: 1, Signers: addrs(a)}, a))
	assert.EqualValues(t, 0, e.vault(5).Balance)
	assert.EqualValues(t, 1, e.custodyBalance(5))

	// Stray coins are not withdrawable, tracked deposits are.
	e.fund(a.Address(), 20)
	require.NoError(t, e.exec(&DepositMsg{ID: 5, Amount: 20}, a))
	err := e.exec(&WithdrawMsg{ID: 5, Amount: 21, Recipient: stranger.Address(), Witnesses: addrs(a)}, a)
	require.True(t, ErrInsufficientBalance.Is(err), "%+v", err)
	require.NoError(t, e.exec(&WithdrawMsg{ID: 5, Amount: 20, Recipient: stranger.Address(), Witnesses: addrs(a)}, a))
	assert.EqualValues(t, 1, e.custodyBalance(5))
}

func TestRotateSigners(t *testing.T) {
	a, b, c := custodytest.NewCondition(), custodytest.NewCondition(), custodytest.NewCondition()
	d := custodytest.NewCondition()

	nine := make([]custody.Address, 9)
	for i := range nine {
		nine[i] = custodytest.NewCondition().Address()
	}

	cases := map[string]struct {
		allowLockout bool
		msg          *RotateSignersMsg
		signers      []custody.Condition
		wantErr      *errors.Error
		wantSigners  []custody.Address
	}{
		"replace with a single signer": {
			msg:         &RotateSignersMsg{ID: 1, NewCount: 1, Witnesses: addrs(a, b, c)},
			signers:     []custody.Condition{a, b},
			wantSigners: addrs(c),
		},
		"new signers do not have to sign": {
			msg:         &RotateSignersMsg{ID: 1, NewCount: 2, Witnesses: addrs(a, b, c, d)},
			signers:     []custody.Condition{a, b},
			wantSigners: addrs(c, d),
		},
		"keep the same signers": {
			msg:         &RotateSignersMsg{ID: 1, NewCount: 2, Witnesses: addrs(a, b, a, b)},
			signers:     []custody.Condition{a, b},
			wantSigners: addrs(a, b),
		},
		"grow to the full capacity": {
			msg:         &RotateSignersMsg{ID: 1, NewCount: 8, Witnesses: append(addrs(a, b), nine[:8]...)},
			signers:     []custody.Condition{a, b},
			wantSigners: nine[:8],
		},
		"too few witnesses": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 1, Witnesses: addrs(a, b)},
			signers: []custody.Condition{a, b},
			wantErr: ErrWrongSignerCount,
		},
		"too many witnesses": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 1, Witnesses: addrs(a, b, c, d)},
			signers: []custody.Condition{a, b},
			wantErr: ErrWrongSignerCount,
		},
		"new count wrapping around": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 1<<64 - 1, Witnesses: addrs(a)},
			signers: []custody.Condition{a, b},
			wantErr: ErrWrongSignerCount,
		},
		"first signer did not sign": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 1, Witnesses: addrs(a, b, c)},
			signers: []custody.Condition{b},
			wantErr: ErrMissingSignature,
		},
		"second signer did not sign": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 1, Witnesses: addrs(a, b, c)},
			signers: []custody.Condition{a, c},
			wantErr: ErrMissingSignature,
		},
		"signers in the wrong order": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 1, Witnesses: addrs(b, a, c)},
			signers: []custody.Condition{a, b},
			wantErr: ErrWrongSigner,
		},
		"valid signer at another position": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 1, Witnesses: addrs(b, b, c)},
			signers: []custody.Condition{a, b},
			wantErr: ErrWrongSigner,
		},
		"stranger signed": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 1, Witnesses: addrs(d, b, c)},
			signers: []custody.Condition{d, b},
			wantErr: ErrWrongSigner,
		},
		"more than the capacity": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 9, Witnesses: append(addrs(a, b), nine...)},
			signers: []custody.Condition{a, b},
			wantErr: ErrWrongSignerCount,
		},
		"signatures are checked before the capacity": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 9, Witnesses: append(addrs(a, b), nine...)},
			signers: []custody.Condition{b},
			wantErr: ErrMissingSignature,
		},
		"lockout is not allowed by default": {
			msg:     &RotateSignersMsg{ID: 1, NewCount: 0, Witnesses: addrs(a, b)},
			signers: []custody.Condition{a, b},
			wantErr: ErrWrongSignerCount,
		},
		"lockout allowed by configuration": {
			allowLockout: true,
			msg:          &RotateSignersMsg{ID: 1, NewCount: 0, Witnesses: addrs(a, b)},
			signers:      []custody.Condition{a, b},
			wantSigners:  []custody.Address{},
		},
		"unknown vault": {
			msg:     &RotateSignersMsg{ID: 2, NewCount: 1, Witnesses: addrs(a, b, c)},
			signers: []custody.Condition{a, b},
			wantErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t)
			if tc.allowLockout {
				require.NoError(t, gconf.Save(e.db, gconfPackage, &Configuration{AllowLockout: lockout(true)}))
			}
			require.NoError(t, e.exec(&CreateVaultMsg{ID: 1, Count: 2, Signers: addrs(a, b)}, a))
			e.fund(a.Address(), 10)
			require.NoError(t, e.exec(&DepositMsg{ID: 1, Amount: 10}, a))

			err := e.exec(tc.msg, tc.signers...)
			v := e.vault(1)
			assert.EqualValues(t, 10, v.Balance, "balance is never touched")
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "%+v", err)
				assert.Equal(t, addrs(a, b), v.ActiveSigners())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSigners, v.ActiveSigners())
			for i := v.Count; i < MaxSigners; i++ {
				assert.True(t, v.Signers[i].IsEmpty(), "slot %d", i)
			}
		})
	}
}

func TestLockedVault(t *testing.T) {
	a, b := custodytest.NewCondition(), custodytest.NewCondition()
	e := newEnv(t)
	require.NoError(t, gconf.Save(e.db, gconfPackage, &Configuration{AllowLockout: lockout(true)}))
	require.NoError(t, e.exec(&CreateVaultMsg{ID: 1, Count: 1, Signers: addrs(a)}, a))
	e.fund(b.Address(), 10)
	require.NoError(t, e.exec(&DepositMsg{ID: 1, Amount: 10}, b))
	require.NoError(t, e.exec(&RotateSignersMsg{ID: 1, NewCount: 0, Witnesses: addrs(a)}, a))
	require.EqualValues(t, 0, e.vault(1).Count)

	// Deposits are still accepted.
	require.NoError(t, e.exec(&DepositMsg{ID: 1, Amount: 5}, b))

	// Nobody can withdraw or change the signers anymore.
	err := e.exec(&WithdrawMsg{ID: 1, Amount: 1, Recipient: b.Address()}, a, b)
	assert.True(t, ErrMissingSignature.Is(err), "%+v", err)
	err = e.exec(&RotateSignersMsg{ID: 1, NewCount: 1, Witnesses: addrs(b)}, a, b)
	assert.True(t, ErrMissingSignature.Is(err), "%+v", err)

	assert.EqualValues(t, 15, e.vault(1).Balance)
	assert.EqualValues(t, 15, e.custodyBalance(1))
}

func TestDeposit(t *testing.T) {
	a, b := custodytest.NewCondition(), custodytest.NewCondition()
	alice, bob := custodytest.NewCondition(), custodytest.NewCondition()

	e := newEnv(t)
	require.NoError(t, e.exec(&CreateVaultMsg{ID: 1, Count: 2, Signers: addrs(a, b)}, a))
	e.fund(alice.Address(), 100)
	e.fund(bob.Address(), 100)

	// No vault signer takes part in a deposit.
	require.NoError(t, e.exec(&DepositMsg{ID: 1, Amount: 5}, alice))
	require.NoError(t, e.exec(&DepositMsg{ID: 1, Amount: 3}, alice))

	vaultAddr := VaultAddress(1)
	deposits := NewDepositBucket()
	acct, err := deposits.Get(e.db, alice.Address(), vaultAddr)
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.EqualValues(t, 8, acct.Amount)
	assert.Equal(t, alice.Address(), acct.Owner)
	assert.Equal(t, vaultAddr, acct.Vault)

	assert.EqualValues(t, 8, e.vault(1).Balance)
	assert.EqualValues(t, 8, e.custodyBalance(1))
	assert.EqualValues(t, 92, e.balance(alice.Address()))

	require.NoError(t, e.exec(&DepositMsg{ID: 1, Amount: 20}, bob))
	acct, err = deposits.Get(e.db, bob.Address(), vaultAddr)
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.EqualValues(t, 20, acct.Amount)
	assert.EqualValues(t, 28, e.vault(1).Balance)

	all, err := deposits.ByVault(e.db, vaultAddr)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDepositFailures(t *testing.T) {
	a := custodytest.NewCondition()
	alice, poor := custodytest.NewCondition(), custodytest.NewCondition()

	cases := map[string]struct {
		msg     *DepositMsg
		signers []custody.Condition
		wantErr *errors.Error
	}{
		"depositor must sign": {
			msg:     &DepositMsg{ID: 1, Amount: 5},
			wantErr: errors.ErrUnauthorized,
		},
		"zero amount": {
			msg:     &DepositMsg{ID: 1, Amount: 0},
			signers: []custody.Condition{alice},
			wantErr: errors.ErrAmount,
		},
		"unknown vault": {
			msg:     &DepositMsg{ID: 2, Amount: 5},
			signers: []custody.Condition{alice},
			wantErr: errors.ErrNotFound,
		},
		"depositor without a wallet": {
			msg:     &DepositMsg{ID: 1, Amount: 5},
			signers: []custody.Condition{poor},
			wantErr: errors.ErrEmpty,
		},
		"depositor without enough funds": {
			msg:     &DepositMsg{ID: 1, Amount: 101},
			signers: []custody.Condition{alice},
			wantErr: errors.ErrInsufficientAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t)
			require.NoError(t, e.exec(&CreateVaultMsg{ID: 1, Count: 1, Signers: addrs(a)}, a))
			e.fund(alice.Address(), 100)

			err := e.exec(tc.msg, tc.signers...)
			require.True(t, tc.wantErr.Is(err), "%+v", err)

			assert.EqualValues(t, 0, e.vault(1).Balance)
			assert.EqualValues(t, 0, e.custodyBalance(1))
			assert.EqualValues(t, 100, e.balance(alice.Address()))
			acct, err := NewDepositBucket().Get(e.db, alice.Address(), VaultAddress(1))
			require.NoError(t, err)
			assert.Nil(t, acct)
		})
	}
}

func TestWithdraw(t *testing.T) {
	a, b := custodytest.NewCondition(), custodytest.NewCondition()
	depositor, recipient := custodytest.NewCondition(), custodytest.NewCondition()

	cases := map[string]struct {
		msg     *WithdrawMsg
		signers []custody.Condition
		wantErr *errors.Error
	}{
		"all signers approve": {
			msg:     &WithdrawMsg{ID: 1, Amount: 4, Recipient: recipient.Address(), Witnesses: addrs(a, b)},
			signers: []custody.Condition{a, b},
		},
		"whole balance": {
			msg:     &WithdrawMsg{ID: 1, Amount: 10, Recipient: recipient.Address(), Witnesses: addrs(a, b)},
			signers: []custody.Condition{a, b},
		},
		"extra witnesses are ignored": {
			msg:     &WithdrawMsg{ID: 1, Amount: 4, Recipient: recipient.Address(), Witnesses: addrs(a, b, depositor)},
			signers: []custody.Condition{a, b},
		},
		"balance is checked before signatures": {
			msg:     &WithdrawMsg{ID: 1, Amount: 11, Recipient: recipient.Address()},
			wantErr: ErrInsufficientBalance,
		},
		"balance is checked before signer order": {
			msg:     &WithdrawMsg{ID: 1, Amount: 11, Recipient: recipient.Address(), Witnesses: addrs(b, a)},
			signers: []custody.Condition{a, b},
			wantErr: ErrInsufficientBalance,
		},
		"signer did not sign": {
			msg:     &WithdrawMsg{ID: 1, Amount: 4, Recipient: recipient.Address(), Witnesses: addrs(a, b)},
			signers: []custody.Condition{a},
			wantErr: ErrMissingSignature,
		},
		"witness missing": {
			msg:     &WithdrawMsg{ID: 1, Amount: 4, Recipient: recipient.Address(), Witnesses: addrs(a)},
			signers: []custody.Condition{a, b},
			wantErr: ErrMissingSignature,
		},
		"no witnesses": {
			msg:     &WithdrawMsg{ID: 1, Amount: 4, Recipient: recipient.Address()},
			signers: []custody.Condition{a, b},
			wantErr: ErrMissingSignature,
		},
		"signers in the wrong order": {
			msg:     &WithdrawMsg{ID: 1, Amount: 4, Recipient: recipient.Address(), Witnesses: addrs(b, a)},
			signers: []custody.Condition{a, b},
			wantErr: ErrWrongSigner,
		},
		"depositor cannot withdraw": {
			msg:     &WithdrawMsg{ID: 1, Amount: 4, Recipient: depositor.Address(), Witnesses: addrs(depositor, b)},
			signers: []custody.Condition{depositor, b},
			wantErr: ErrWrongSigner,
		},
		"zero amount": {
			msg:     &WithdrawMsg{ID: 1, Amount: 0, Recipient: recipient.Address(), Witnesses: addrs(a, b)},
			signers: []custody.Condition{a, b},
			wantErr: errors.ErrAmount,
		},
		"missing recipient": {
			msg:     &WithdrawMsg{ID: 1, Amount: 4, Witnesses: addrs(a, b)},
			signers: []custody.Condition{a, b},
			wantErr: errors.ErrInput,
		},
		"unknown vault": {
			msg:     &WithdrawMsg{ID: 7, Amount: 4, Recipient: recipient.Address(), Witnesses: addrs(a, b)},
			signers: []custody.Condition{a, b},
			wantErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t)
			require.NoError(t, e.exec(&CreateVaultMsg{ID: 1, Count: 2, Signers: addrs(a, b)}, a))
			e.fund(depositor.Address(), 10)
			require.NoError(t, e.exec(&DepositMsg{ID: 1, Amount: 10}, depositor))

			err := e.exec(tc.msg, tc.signers...)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "%+v", err)
				assert.EqualValues(t, 10, e.vault(1).Balance)
				assert.EqualValues(t, 10, e.custodyBalance(1))
				assert.EqualValues(t, 0, e.balance(recipient.Address()))
				return
			}
			require.NoError(t, err)
			assert.EqualValues(t, 10-tc.msg.Amount, e.vault(1).Balance)
			assert.EqualValues(t, 10-tc.msg.Amount, e.custodyBalance(1))
			assert.EqualValues(t, tc.msg.Amount, e.balance(recipient.Address()))

			// The deposit ledger is not affected by withdrawals.
			acct, err := NewDepositBucket().Get(e.db, depositor.Address(), VaultAddress(1))
			require.NoError(t, err)
			assert.EqualValues(t, 10, acct.Amount)
		})
	}
}

func TestEndToEnd(t *testing.T) {
	a, b := custodytest.NewCondition(), custodytest.NewCondition()
	depositor, r := custodytest.NewCondition(), custodytest.NewCondition()

	e := newEnv(t)
	e.fund(depositor.Address(), 10)

	require.NoError(t, e.exec(&CreateVaultMsg{ID: 1, Count: 2, Signers: addrs(a, b)}, depositor))
	require.NoError(t, e.exec(&DepositMsg{ID: 1, Amount: 10}, depositor))
	assert.EqualValues(t, 10, e.vault(1).Balance)

	withdraw := &WithdrawMsg{ID: 1, Amount: 10, Recipient: r.Address(), Witnesses: addrs(a, b)}
	require.NoError(t, e.exec(withdraw, a, b))
	assert.EqualValues(t, 0, e.vault(1).Balance)
	assert.EqualValues(t, 10, e.balance(r.Address()))

	before := e.vault(1)
	withdraw = &WithdrawMsg{ID: 1, Amount: 1, Recipient: r.Address(), Witnesses: addrs(a, b)}
	err := e.exec(withdraw, a, b)
	require.True(t, ErrInsufficientBalance.Is(err), "%+v", err)
	assert.Equal(t, before, e.vault(1))
	assert.EqualValues(t, 10, e.balance(r.Address()))
}

func TestBalanceConservation(t *testing.T) {
	a, b := custodytest.NewCondition(), custodytest.NewCondition()
	users := []custody.Condition{custodytest.NewCondition(), custodytest.NewCondition(), custodytest.NewCondition()}

	e := newEnv(t)
	require.NoError(t, e.exec(&CreateVaultMsg{ID: 9, Count: 2, Signers: addrs(a, b)}, a))
	for _, u := range users {
		e.fund(u.Address(), 1000)
	}

	var deposited, withdrawn uint64
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		u := users[rnd.Intn(len(users))]
		amount := uint64(rnd.Intn(150) + 1)
		if rnd.Intn(2) == 0 {
			if err := e.exec(&DepositMsg{ID: 9, Amount: amount}, u); err == nil {
				deposited += amount
			} else {
				require.True(t, errors.ErrInsufficientAmount.Is(err), "%+v", err)
			}
		} else {
			msg := &WithdrawMsg{ID: 9, Amount: amount, Recipient: u.Address(), Witnesses: addrs(a, b)}
			if err := e.exec(msg, a, b); err == nil {
				withdrawn += amount
			} else {
				require.True(t, ErrInsufficientBalance.Is(err), "%+v", err)
			}
		}

		v := e.vault(9)
		require.Equal(t, deposited-withdrawn, v.Balance)
		require.Equal(t, v.Balance, e.custodyBalance(9))
	}

	var total uint64
	for _, u := range users {
		total += e.balance(u.Address())
	}
	assert.EqualValues(t, 3000, total+e.vault(9).Balance, "no value is created or destroyed")
}

func TestDepositOverflow(t *testing.T) {
	a := custodytest.NewCondition()
	e := newEnv(t)
	require.NoError(t, e.exec(&CreateVaultMsg{ID: 1, Count: 1, Signers: addrs(a)}, a))

	// A corrupted vault record claims more than its custody wallet holds.
	v := e.vault(1)
	v.Balance = 1<<64 - 1
	require.NoError(t, NewVaultBucket().Save(e.db, v))

	e.fund(a.Address(), 5)
	err := e.exec(&DepositMsg{ID: 1, Amount: 5}, a)
	require.True(t, ErrBalanceOverflow.Is(err), "%+v", err)
	assert.EqualValues(t, 5, e.balance(a.Address()))
	assert.EqualValues(t, 0, e.custodyBalance(1))
}

func TestQueries(t *testing.T) {
	a := custodytest.NewCondition()
	e := newEnv(t)
	require.NoError(t, e.exec(&CreateVaultMsg{ID: 258, Count: 1, Signers: addrs(a)}, a))
	e.fund(a.Address(), 5)
	require.NoError(t, e.exec(&DepositMsg{ID: 258, Amount: 5}, a))

	qr := custody.NewQueryRouter()
	RegisterQuery(qr)

	models, err := qr.Handler("/vaults").Query(e.db, custody.KeyQueryMod, VaultAddress(258))
	require.NoError(t, err)
	require.Len(t, models, 1)
	var v Vault
	require.NoError(t, v.Unmarshal(models[0].Value))
	assert.EqualValues(t, 258, v.ID)

	models, err = qr.Handler("/vaults/id").Query(e.db, custody.KeyQueryMod, []byte{2, 1, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	require.Len(t, models, 1)
	require.NoError(t, v.Unmarshal(models[0].Value))
	assert.EqualValues(t, 258, v.ID)

	_, err = qr.Handler("/vaults/id").Query(e.db, custody.KeyQueryMod, []byte{1})
	assert.True(t, errors.ErrInput.Is(err))

	models, err = qr.Handler("/deposits").Query(e.db, custody.KeyQueryMod, DepositAddress(a.Address(), VaultAddress(258)))
	require.NoError(t, err)
	require.Len(t, models, 1)
	var acct DepositAccount
	require.NoError(t, acct.Unmarshal(models[0].Value))
	assert.EqualValues(t, 5, acct.Amount)

	models, err = qr.Handler("/deposits/vault").Query(e.db, custody.KeyQueryMod, VaultAddress(258))
	require.NoError(t, err)
	require.Len(t, models, 1)
}
