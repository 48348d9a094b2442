package custody_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
)

func TestCreateErrorResult(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"registered error": {
			err:      errors.Wrap(errors.ErrNotFound, "vault 7"),
			wantCode: errors.ErrNotFound.ABCICode(),
			wantLog:  "vault 7",
		},
		"unregistered error is redacted": {
			err:      fmt.Errorf("secret"),
			wantCode: 1,
			wantLog:  "internal error",
		},
		"unregistered error in debug mode": {
			err:      fmt.Errorf("secret"),
			debug:    true,
			wantCode: 1,
			wantLog:  "secret",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			dres := custody.DeliverTxError(tc.err, tc.debug)
			assert.True(t, dres.IsErr())
			assert.Equal(t, tc.wantCode, dres.Code)
			assert.True(t, strings.HasPrefix(dres.Log, "cannot deliver tx"))
			assert.Contains(t, dres.Log, tc.wantLog)

			cres := custody.CheckTxError(tc.err, tc.debug)
			assert.True(t, cres.IsErr())
			assert.Equal(t, tc.wantCode, cres.Code)
			assert.Contains(t, cres.Log, tc.wantLog)
		})
	}
}

func TestCreateResults(t *testing.T) {
	d, msg := []byte{1, 3, 4}, "got it"
	dres := custody.DeliverResult{Data: d, Log: msg}
	ad := custody.DeliverOrError(&dres, nil, false)
	assert.EqualValues(t, d, ad.Data)
	assert.Equal(t, msg, ad.Log)
	assert.Empty(t, ad.Tags)

	c, gas := "aok", int64(12345)
	cres := custody.NewCheck(gas, c)
	ac := custody.CheckOrError(&cres, nil, false)
	assert.Equal(t, c, ac.Log)
	assert.Equal(t, gas, ac.GasWanted)
	assert.Empty(t, ac.Data)
}
