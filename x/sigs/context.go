package sigs

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/x"
)

type contextKey int

const contextKeySigners contextKey = iota

// withSigners is unexported so only the decorator can authenticate.
func withSigners(ctx custody.Context, signers []custody.Condition) custody.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Authenticate exposes the signers verified by the Decorator, in the order
// of their signatures.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

func (Authenticate) GetConditions(ctx custody.Context) []custody.Condition {
	signers, _ := ctx.Value(contextKeySigners).([]custody.Condition)
	return signers
}

func (a Authenticate) HasAddress(ctx custody.Context, addr custody.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
