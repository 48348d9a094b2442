package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/crypto/ed25519"
)

const (
	appStateKey = "app_state"
	dirConfig   = "config"
	genesisFile = "genesis.json"

	flagIgnore = "i"
)

// GenOptions can parse command-line and flag to
// generate default app_state for the genesis file.
// This is application-specific
type GenOptions func(args []string) (json.RawMessage, error)

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

// GenerateCoinKey returns the address of a freshly generated key,
// along with its hex encoded seed so the key can be restored.
// You can give coins to this address and hand the seed to the user.
func GenerateCoinKey() (custody.Address, string) {
	key := crypto.GenPrivKeyEd25519()
	seed := key.GetEd25519()[:ed25519.SeedSize]
	return key.PublicKey().Address(), fmt.Sprintf("%X", seed)
}

func parseInitFlags(args []string) (bool, []string, error) {
	var ignore bool
	initFlags := flag.NewFlagSet("init", flag.ContinueOnError)
	initFlags.BoolVar(&ignore, flagIgnore, false, "ignore previously initialized state")
	if err := initFlags.Parse(args); err != nil {
		return false, nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return ignore, initFlags.Args(), nil
}

// InitCmd adds the app_state generated by gen to the tendermint genesis
// file under home. The genesis file must already exist, which is the
// case after running `tendermint init`.
func InitCmd(gen GenOptions, logger log.Logger, home string, args []string) error {
	logger.Info("Initializing application state", "home", home)

	ignore, rest, err := parseInitFlags(args)
	if err != nil {
		return err
	}

	genFile := filepath.Join(home, dirConfig, genesisFile)
	if !fileExists(genFile) {
		return errors.Wrapf(errors.ErrNotFound, "genesis file %s, run tendermint init first", genFile)
	}

	options, err := gen(rest)
	if err != nil {
		return err
	}
	return addGenesisOptions(genFile, options, ignore)
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

func addGenesisOptions(filename string, options json.RawMessage, ignore bool) error {
	bz, err := ioutil.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "cannot read genesis file")
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	if v, ok := doc[appStateKey]; ok && !ignore && len(v) > 0 && string(v) != "null" && string(v) != "{}" {
		return errors.Wrap(errors.ErrState, "app state already initialized, use -i to overwrite")
	}

	doc[appStateKey] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot serialize genesis")
	}
	return ioutil.WriteFile(filename, out, 0600)
}
