package server

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

// ValidateGenesis loads the app_state of every genesis file into a
// throwaway in memory store. The first failing file is reported.
func ValidateGenesis(init custody.Initializer, paths []string) error {
	if len(paths) == 0 {
		return errors.Wrap(errors.ErrInput, "usage: cmd validate <path to genesis.json>...")
	}
	for _, path := range paths {
		raw, err := ioutil.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		var genesis struct {
			AppState custody.Options `json:"app_state"`
		}
		if err := json.Unmarshal(raw, &genesis); err != nil {
			return errors.Wrapf(errors.ErrInput, "%s is not a genesis file: %s", path, err)
		}
		if err := init.FromGenesis(genesis.AppState, store.MemStore()); err != nil {
			return errors.Wrapf(err, "%s", path)
		}
	}
	return nil
}
