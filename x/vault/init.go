package vault

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/x/cash"
)

const optKey = "vault"

// GenesisVault describes a vault that exists from the first block.
type GenesisVault struct {
	ID      uint64            `json:"id"`
	Signers []custody.Address `json:"signers"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct {
	// Control is used to allocate the custody wallets. The cash
	// controller over the default bucket is used when nil.
	Control cash.Controller
}

var _ custody.Initializer = (*Initializer)(nil)

// FromGenesis stores the vault configuration, when present, and creates
// all genesis vaults together with their custody wallets.
func (i *Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	var conf Configuration
	switch err := gconf.InitConfig(db, opts, gconfPackage, &conf); {
	case err == nil, errors.ErrNotFound.Is(err):
	default:
		return errors.Wrap(err, "vault configuration")
	}

	var vaults []GenesisVault
	if err := opts.ReadOptions(optKey, &vaults); err != nil {
		return err
	}
	control := i.Control
	if control == nil {
		control = cash.NewController(cash.NewBucket())
	}
	bucket := NewVaultBucket()
	for n, gv := range vaults {
		msg := CreateVaultMsg{ID: gv.ID, Count: uint64(len(gv.Signers)), Signers: gv.Signers}
		if err := msg.Validate(); err != nil {
			return errors.Wrapf(err, "genesis vault #%d", n)
		}
		if _, err := createVault(db, bucket, control, gv.ID, gv.Signers); err != nil {
			return errors.Wrapf(err, "genesis vault %d", gv.ID)
		}
	}
	return nil
}
