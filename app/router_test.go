package app

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

func TestRouterDispatch(t *testing.T) {
	r := NewRouter()

	var (
		deposit  = &custodytest.Handler{DeliverResult: custody.DeliverResult{Log: "deposit"}}
		withdraw = &custodytest.Handler{DeliverErr: errors.ErrAmount}
	)
	r.Handle(&custodytest.Msg{RoutePath: "vault/deposit"}, deposit)
	r.Handle(&custodytest.Msg{RoutePath: "vault/withdraw"}, withdraw)

	ctx := context.Background()
	db := store.MemStore()

	res, err := r.Deliver(ctx, db, &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "vault/deposit"}})
	assert.Nil(t, err)
	assert.Equal(t, "deposit", res.Log)
	assert.Equal(t, 1, deposit.DeliverCallCount())

	_, err = r.Deliver(ctx, db, &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "vault/withdraw"}})
	assert.IsErr(t, errors.ErrAmount, err)

	_, err = r.Check(ctx, db, &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "vault/deposit"}})
	assert.Nil(t, err)
	assert.Equal(t, 1, deposit.CheckCallCount())
	assert.Equal(t, 0, withdraw.CheckCallCount())
}

func TestRouterErrors(t *testing.T) {
	r := NewRouter()
	r.Handle(&custodytest.Msg{RoutePath: "vault/deposit"}, &custodytest.Handler{})

	ctx := context.Background()
	db := store.MemStore()

	cases := map[string]struct {
		tx      custody.Tx
		wantErr *errors.Error
	}{
		"unknown path": {
			tx:      &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "vault/unknown"}},
			wantErr: errors.ErrNotFound,
		},
		"no message": {
			tx:      &custodytest.Tx{},
			wantErr: errors.ErrMsg,
		},
		"message cannot be loaded": {
			tx:      &custodytest.Tx{Err: errors.ErrType},
			wantErr: errors.ErrType,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := r.Check(ctx, db, tc.tx)
			assert.IsErr(t, tc.wantErr, err)
			_, err = r.Deliver(ctx, db, tc.tx)
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}

func TestRouterHandleRejectsBadRoutes(t *testing.T) {
	r := NewRouter()
	r.Handle(&custodytest.Msg{RoutePath: "vault/create"}, &custodytest.Handler{})

	assert.Panics(t, func() {
		r.Handle(&custodytest.Msg{RoutePath: "vault/create"}, &custodytest.Handler{})
	})
	assert.Panics(t, func() {
		r.Handle(&custodytest.Msg{RoutePath: "vault create"}, &custodytest.Handler{})
	})
	assert.Panics(t, func() {
		r.Handle(&custodytest.Msg{RoutePath: ""}, &custodytest.Handler{})
	})
}
