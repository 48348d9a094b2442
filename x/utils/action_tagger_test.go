package utils

import (
	"context"
	"testing"

	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionTagger(t *testing.T) {
	msg := &custodytest.Msg{RoutePath: "vault/withdraw"}

	cases := map[string]struct {
		tx       *custodytest.Tx
		handler  *custodytest.Handler
		wantErr  *errors.Error
		wantTags int
	}{
		"tagged on success": {
			tx:       &custodytest.Tx{Msg: msg},
			handler:  &custodytest.Handler{},
			wantTags: 1,
		},
		"handler failure": {
			tx:      &custodytest.Tx{Msg: msg},
			handler: &custodytest.Handler{DeliverErr: errTestFailure},
			wantErr: errTestFailure,
		},
		"unreadable message": {
			tx:      &custodytest.Tx{Err: errors.ErrInput},
			handler: &custodytest.Handler{},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ctx := context.Background()
			db := store.MemStore()
			tagger := NewActionTagger()

			_, err := tagger.Check(ctx, db, tc.tx, tc.handler)
			require.NoError(t, err)

			res, err := tagger.Deliver(ctx, db, tc.tx, tc.handler)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "%+v", err)
				return
			}
			require.NoError(t, err)
			require.Len(t, res.Tags, tc.wantTags)
			assert.Equal(t, ActionKey, string(res.Tags[0].Key))
			assert.Equal(t, "vault/withdraw", string(res.Tags[0].Value))
		})
	}
}

var errTestFailure = errors.Register(9999, "test failure")
