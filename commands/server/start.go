package server

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagBind  = "bind"
	flagDebug = "debug"
	flagDB    = "db"
)

type startArgs struct {
	bind    string
	debug   bool
	backend string
}

func parseFlags(args []string) (startArgs, error) {
	var res startArgs
	startFlags := flag.NewFlagSet("start", flag.ContinueOnError)
	startFlags.StringVar(&res.bind, flagBind, "tcp://localhost:26658", "address server listens on")
	startFlags.BoolVar(&res.debug, flagDebug, false, "call stack returned on error")
	startFlags.StringVar(&res.backend, flagDB, BackendIAVL, "database backend, iavl or badger")
	if err := startFlags.Parse(args); err != nil {
		return res, errors.Wrap(errors.ErrInput, err.Error())
	}
	return res, nil
}

// AppGenerator builds the application on top of an opened store,
// using a logger potentially initialized with other flags
type AppGenerator func(custody.CommitKVStore, log.Logger, bool) (abci.Application, error)

// StartCmd opens the store, initializes the application and serves it
// over the abci socket until the process is stopped.
func StartCmd(gen AppGenerator, logger log.Logger, home string, args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	kv, closeStore, err := OpenStore(flags.backend, home)
	if err != nil {
		return err
	}

	app, err := gen(kv, logger, flags.debug)
	if err != nil {
		closeStore()
		return err
	}

	logger.Info("Starting ABCI app", "bind", flags.bind, "db", flags.backend)

	svr, err := server.NewServer(flags.bind, "socket", app)
	if err != nil {
		closeStore()
		return errors.Wrap(err, "cannot create listener")
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		closeStore()
		return errors.Wrap(err, "cannot start server")
	}

	// Block until the process is asked to stop.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	s := <-sig
	logger.Info("Stopping ABCI app", "signal", s.String())

	err = svr.Stop()
	closeStore()
	return err
}
