/*
Package errors implements custom error interfaces for custody.

Reuse the root errors declared here whenever possible, and register package
specific root errors only when a caller needs to tell them apart. x/vault
declares its own codes for quorum and balance failures.

Always wrap a root error to add context:

	return errors.Wrapf(errors.ErrNotFound, "vault %d", id)

and test for the kind with Is:

	if errors.ErrNotFound.Is(err) { ... }
*/
package errors
