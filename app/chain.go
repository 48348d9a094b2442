package app

import (
	"reflect"

	"github.com/iov-one/custody"
)

// Decorators is a decorator stack waiting for its final handler.
type Decorators struct {
	chain []custody.Decorator
}

// ChainDecorators starts a stack. The first decorator runs first:
//
//	app.ChainDecorators(
//		utils.NewLogging(),
//		utils.NewRecovery(),
//		sigs.NewDecorator(),
//		utils.NewSavepoint().OnDeliver(),
//	).WithHandler(router)
//
// Nil decorators are skipped, which lets callers pass optional ones
// directly.
func ChainDecorators(chain ...custody.Decorator) Decorators {
	return Decorators{}.Chain(chain...)
}

// Chain returns a new stack with chain appended. The receiver is not
// modified, so a common base can be extended in several ways.
func (d Decorators) Chain(chain ...custody.Decorator) Decorators {
	next := make([]custody.Decorator, len(d.chain), len(d.chain)+len(chain))
	copy(next, d.chain)
	return Decorators{chain: append(next, cutoffNil(chain)...)}
}

// cutoffNil filters nil and typed nil decorators in place.
func cutoffNil(ds []custody.Decorator) []custody.Decorator {
	out := ds[:0]
	for _, d := range ds {
		if d == nil {
			continue
		}
		if v := reflect.ValueOf(d); v.Kind() == reflect.Ptr && v.IsNil() {
			continue
		}
		out = append(out, d)
	}
	return out
}

// WithHandler closes the stack over h.
func (d Decorators) WithHandler(h custody.Handler) custody.Handler {
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = step{decorator: d.chain[i], next: h}
	}
	return h
}

// step binds one decorator to the rest of the stack.
type step struct {
	decorator custody.Decorator
	next      custody.Handler
}

var _ custody.Handler = step{}

func (s step) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	return s.decorator.Check(ctx, db, tx, s.next)
}

func (s step) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	return s.decorator.Deliver(ctx, db, tx, s.next)
}
