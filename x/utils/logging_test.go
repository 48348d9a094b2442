package utils

import (
	"bytes"
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	ctx := custody.WithLogger(context.Background(), log.NewTMJSONLogger(&buf))
	db := store.MemStore()
	tx := &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "vault/deposit"}}

	h := &custodytest.Handler{DeliverResult: custody.DeliverResult{Log: "all good"}}
	_, err := NewLogging().Deliver(ctx, db, tx, h)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"path":"vault/deposit"`)
	assert.Contains(t, buf.String(), "all good")

	buf.Reset()
	h = &custodytest.Handler{DeliverErr: errors.Wrap(errors.ErrAmount, "too much")}
	_, err = NewLogging().Deliver(ctx, db, tx, h)
	require.True(t, errors.ErrAmount.Is(err))
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "too much")

	buf.Reset()
	h = &custodytest.Handler{CheckErr: errors.ErrAmount}
	_, err = NewLogging().Check(ctx, db, tx, h)
	require.True(t, errors.ErrAmount.Is(err))
	assert.Contains(t, buf.String(), `"level":"info"`)
}
