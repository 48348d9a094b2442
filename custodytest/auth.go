package custodytest

import (
	"context"
	"fmt"

	"github.com/iov-one/custody"
)

// Auth is an x.Authenticator with a fixed list of signers. Signer, when
// set, is reported after Signers.
type Auth struct {
	Signer  custody.Condition
	Signers []custody.Condition
}

func (a *Auth) GetConditions(custody.Context) []custody.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	return append(a.Signers, a.Signer)
}

func (a *Auth) HasAddress(ctx custody.Context, addr custody.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

// CtxAuth is an x.Authenticator reading signers stored in the context under
// Key, the way the signature decorator does.
type CtxAuth struct {
	Key string
}

// SetConditions returns a context authenticating conds for this Key.
func (a *CtxAuth) SetConditions(ctx custody.Context, conds ...custody.Condition) custody.Context {
	return context.WithValue(ctx, a.Key, conds)
}

func (a *CtxAuth) GetConditions(ctx custody.Context) []custody.Condition {
	switch v := ctx.Value(a.Key).(type) {
	case nil:
		return nil
	case []custody.Condition:
		return v
	default:
		panic(fmt.Sprintf("context key %q holds %T", a.Key, v))
	}
}

func (a *CtxAuth) HasAddress(ctx custody.Context, addr custody.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

func hasAddress(conds []custody.Condition, addr custody.Address) bool {
	for _, c := range conds {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
