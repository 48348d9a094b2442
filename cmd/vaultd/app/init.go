package vaultd

import (
	"encoding/json"
	"fmt"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/commands/server"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/cash"
	"github.com/iov-one/custody/x/vault"
)

const defaultGenesisAmount = "123456789"

type genesisState struct {
	Cash  []cash.GenesisAccount `json:"cash"`
	Conf  genesisConf           `json:"conf"`
	Vault []vault.GenesisVault  `json:"vault"`
}

type genesisConf struct {
	Vault vault.Configuration `json:"vault"`
}

// GenInitOptions will produce some basic options for one rich
// account, to use for dev mode. The account also owns the vault
// configuration.
//
// Optional arguments are the amount given to the account, in whole
// tokens, and its address. Without an address a new key is generated
// and its seed printed out.
func GenInitOptions(args []string) (json.RawMessage, error) {
	amountStr := defaultGenesisAmount
	if len(args) > 0 {
		amountStr = args[0]
	}
	amount, err := cash.ParseAmount(amountStr)
	if err != nil {
		return nil, err
	}

	var addr custody.Address
	if len(args) > 1 {
		addr, err = custody.ParseAddress(args[1])
		if err != nil {
			return nil, err
		}
		if err := addr.Validate(); err != nil {
			return nil, errors.Wrap(err, "genesis address")
		}
	} else {
		// if no address provided, auto-generate one
		// and print out the seed to recover the key
		var seed string
		addr, seed = server.GenerateCoinKey()
		fmt.Println(seed)
	}

	state := genesisState{
		Cash: []cash.GenesisAccount{
			{Address: addr, Amount: cash.Amount(amount)},
		},
		Conf: genesisConf{
			Vault: vault.Configuration{Owner: addr},
		},
		Vault: []vault.GenesisVault{},
	}
	return json.MarshalIndent(state, "", "  ")
}
