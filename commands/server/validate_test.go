package server

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requireKey string

func (k requireKey) FromGenesis(opts custody.Options, db custody.KVStore) error {
	if _, ok := opts[string(k)]; !ok {
		return errors.Wrapf(errors.ErrEmpty, "missing %q", string(k))
	}
	return db.Set([]byte(k), opts[string(k)])
}

func TestValidateGenesis(t *testing.T) {
	dir, err := ioutil.TempDir("", "custody-genesis")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
		return path
	}
	good := write("good.json", `{"chain_id": "x", "app_state": {"vault": []}}`)
	missing := write("missing.json", `{"app_state": {"cash": []}}`)
	broken := write("broken.json", `{"app_state": `)

	ini := requireKey("vault")
	assert.NoError(t, ValidateGenesis(ini, []string{good}))

	err = ValidateGenesis(ini, []string{good, missing})
	assert.True(t, errors.ErrEmpty.Is(err))

	err = ValidateGenesis(ini, []string{broken})
	assert.True(t, errors.ErrInput.Is(err))

	err = ValidateGenesis(ini, []string{filepath.Join(dir, "absent.json")})
	assert.Error(t, err)

	err = ValidateGenesis(ini, nil)
	assert.True(t, errors.ErrInput.Is(err))
}
