package cash

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitState(t *testing.T) {
	addr := custody.Address("12345678901234567890")
	accts := []GenesisAccount{{Address: addr, Amount: 1500000000}}
	bz, err := json.Marshal(accts)
	require.NoError(t, err)

	// hardcode
	bz2 := []byte(`[{"address":"0102030405060708090021222324252627282930", "amount": "50.000001234"}]`)
	addr2 := custody.Address{1, 2, 3, 4, 5, 6, 7, 8, 9, 0, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x29, 0x30}

	cases := map[string]struct {
		opts    custody.Options
		wantErr bool
		acct    custody.Address
		amount  uint64
	}{
		"no data":         {opts: custody.Options{}},
		"other extension": {opts: custody.Options{"foo": []byte(`"bar"`)}},
		"bad format": {
			opts:    custody.Options{"cash": []byte(`{"address": "1234"}`)},
			wantErr: true,
		},
		"bad address": {
			opts:    custody.Options{"cash": []byte(`[{"address": "1234", "amount": "1"}]`)},
			wantErr: true,
		},
		"missing address": {
			opts:    custody.Options{"cash": []byte(`[{"amount": "1"}]`)},
			wantErr: true,
		},
		"bad amount": {
			opts:    custody.Options{"cash": []byte(`[{"address": "0102030405060708090021222324252627282930", "amount": "-1"}]`)},
			wantErr: true,
		},
		"marshalled account": {
			opts:   custody.Options{"cash": bz},
			acct:   addr,
			amount: 1500000000,
		},
		"hardcoded account": {
			opts:   custody.Options{"cash": bz2},
			acct:   addr2,
			amount: 50000001234,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			kv := store.MemStore()
			err := Initializer{}.FromGenesis(tc.opts, kv)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tc.acct != nil {
				w := getWallet(t, kv, tc.acct)
				if assert.NotNil(t, w) {
					assert.Equal(t, tc.amount, w.Amount())
				}
			}
		})
	}
}
