package vault

import (
	"encoding/binary"

	"github.com/iov-one/custody"
)

const extensionName = "vault"

// VaultAddress returns the address a vault with the given id is stored at.
func VaultAddress(id uint64) custody.Address {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], id)
	return custody.NewCondition(extensionName, "vault", seed[:]).Address()
}

// CustodyAddress returns the address of the cash wallet that holds the
// value of the vault stored at the given address.
func CustodyAddress(vault custody.Address) custody.Address {
	return custody.NewCondition(extensionName, "wallet", vault).Address()
}

// DepositAddress returns the address of the ledger entry that attributes
// deposits made by owner into the vault.
func DepositAddress(owner, vault custody.Address) custody.Address {
	seed := make([]byte, 0, len(owner)+len(vault))
	seed = append(seed, owner...)
	seed = append(seed, vault...)
	return custody.NewCondition(extensionName, "deposit", seed).Address()
}
