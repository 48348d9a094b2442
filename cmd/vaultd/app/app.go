/*
Package vaultd links together all the various components
to construct the vaultd app.
*/
package vaultd

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/cash"
	"github.com/iov-one/custody/x/sigs"
	"github.com/iov-one/custody/x/utils"
	"github.com/iov-one/custody/x/vault"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// Name is returned by abci Info.
const Name = "vaultd"

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		// on DeliverTx, a failing message does not leave partial writes
		// while the nonce increment is kept
		utils.NewSavepoint().OnDeliver(),
		utils.NewActionTagger(),
	)
}

// Router returns a default router, dispatching to the cash and vault
// handlers.
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	control := cash.NewController(cash.NewBucket())
	cash.RegisterRoutes(r, authFn, control)
	vault.RegisterRoutes(r, authFn, control)
	return r
}

// QueryRouter returns a default query router,
// allowing access to "/wallets", "/auth", "/vaults", "/vaults/id"
// and "/deposits"
func QueryRouter() custody.QueryRouter {
	r := custody.NewQueryRouter()
	r.RegisterAll(
		cash.RegisterQuery,
		sigs.RegisterQuery,
		vault.RegisterQuery,
	)
	return r
}

// Initializers returns all genesis initializers of the application.
func Initializers() custody.Initializer {
	return app.ChainInitializers(
		cash.Initializer{},
		&vault.Initializer{},
	)
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack() custody.Handler {
	authFn := Authenticator()
	return Chain().WithHandler(Router(authFn))
}

// Application constructs a basic ABCI application over the given store.
// If you are not sure what to use for the Handler, just use Stack().
func Application(name string, h custody.Handler, tx custody.TxDecoder, kv custody.CommitKVStore, debug bool) app.BaseApp {
	store := app.NewStoreApp(name, kv, QueryRouter(), context.Background())
	return app.NewBaseApp(store, tx, h, debug)
}

// GenerateApp is used to create the application for server/start.go command
func GenerateApp(kv custody.CommitKVStore, logger log.Logger, debug bool) (abci.Application, error) {
	application := Application(Name, Stack(), TxDecoder, kv, debug)
	application.WithInit(Initializers())
	application.WithLogger(logger)
	return application, nil
}
