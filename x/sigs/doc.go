/*
Package sigs provides basic authentication
middleware to verify the signatures on the transaction,
and maintain nonces for replay protection.

Every signer of a transaction is exposed to the handlers through the
Authenticate authenticator. Handlers treat an address as a signed witness
when Authenticate reports it via HasAddress.
*/
package sigs
