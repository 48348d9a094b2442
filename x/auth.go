package x

import (
	"github.com/iov-one/custody"
)

// Authenticator tells handlers which addresses approved the current
// transaction. Handlers receive one in their constructor so the signature
// scheme can be swapped without touching them.
type Authenticator interface {
	// GetConditions lists every condition fulfilled in ctx, the main
	// signer first.
	GetConditions(custody.Context) []custody.Condition
	// HasAddress reports whether any fulfilled condition has this address.
	HasAddress(custody.Context, custody.Address) bool
}

// Validater is implemented by models and messages that check their own
// fields.
type Validater interface {
	Validate() error
}

// ChainAuth merges several authenticators. Conditions are reported in the
// order the authenticators are given.
func ChainAuth(impls ...Authenticator) Authenticator {
	return multiAuth(impls)
}

type multiAuth []Authenticator

func (m multiAuth) GetConditions(ctx custody.Context) []custody.Condition {
	var res []custody.Condition
	for _, a := range m {
		res = append(res, a.GetConditions(ctx)...)
	}
	return res
}

func (m multiAuth) HasAddress(ctx custody.Context, addr custody.Address) bool {
	for _, a := range m {
		if a.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// MainSigner is the first fulfilled condition, or nil when the transaction
// carries no approval at all. It pays for the transaction and owns deposits.
func MainSigner(ctx custody.Context, auth Authenticator) custody.Condition {
	if conds := auth.GetConditions(ctx); len(conds) > 0 {
		return conds[0]
	}
	return nil
}

// GetAddresses returns the addresses of all fulfilled conditions.
func GetAddresses(ctx custody.Context, auth Authenticator) []custody.Address {
	conds := auth.GetConditions(ctx)
	res := make([]custody.Address, len(conds))
	for i, c := range conds {
		res[i] = c.Address()
	}
	return res
}

// HasAllAddresses reports whether every address in required approved the
// transaction.
func HasAllAddresses(ctx custody.Context, auth Authenticator, required []custody.Address) bool {
	for _, addr := range required {
		if !auth.HasAddress(ctx, addr) {
			return false
		}
	}
	return true
}
