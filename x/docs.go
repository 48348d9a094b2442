/*
Package x contains the shared pieces of the extensions

Extensions implement common functionality (Handler, Decorator,
Initializer, etc.) and are combined together to construct the
node in cmd/vaultd. This package only holds what more than one
extension needs, most notably the Authenticator used by handlers
to learn who signed a transaction.

  - x/sigs verifies signatures and tracks nonces
  - x/cash keeps wallet balances
  - x/vault keeps multisig vaults and their deposit accounts
  - x/utils provides logging, recovery and savepoint decorators
*/
package x
