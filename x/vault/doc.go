/*
Package vault implements multisignature custody vaults.

A vault is identified by a caller chosen numeric id and controlled by an
ordered list of up to MaxSigners addresses. The value of a vault is held by
a custody wallet of the cash extension, at an address derived from the vault
address. Anyone can deposit into a vault. Withdrawing from a vault and
replacing its signers requires the signature of every active signer, given
in the same order as the signers are stored.

Every deposit is attributed to its depositor in a DepositAccount. The deposit
ledger is informational only and plays no role in withdrawals.

All records are stored in a fixed size, little endian layout.
*/
package vault
