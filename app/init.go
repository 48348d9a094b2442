package app

import "github.com/iov-one/custody"

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...custody.Initializer) custody.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []custody.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts custody.Options, kv custody.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
