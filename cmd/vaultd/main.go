package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/iov-one/custody"
	vaultd "github.com/iov-one/custody/cmd/vaultd/app"
	"github.com/iov-one/custody/commands/server"
	"github.com/tendermint/tendermint/libs/log"
)

var home = flag.String("home", filepath.Join(os.ExpandEnv("$HOME"), ".vaultd"), "directory to store files under")

type command struct {
	help string
	run  func(logger log.Logger, args []string) error
}

var commands = map[string]command{
	"init": {
		help: "Initialize app options in genesis file",
		run: func(logger log.Logger, args []string) error {
			return server.InitCmd(vaultd.GenInitOptions, logger, *home, args)
		},
	},
	"start": {
		help: "Run the abci server",
		run: func(logger log.Logger, args []string) error {
			return server.StartCmd(vaultd.GenerateApp, logger, *home, args)
		},
	},
	"validate": {
		help: "Check the app state of genesis files",
		run: func(_ log.Logger, args []string) error {
			return server.ValidateGenesis(vaultd.Initializers(), args)
		},
	},
	"version": {
		help: "Print the app version",
		run: func(log.Logger, []string) error {
			fmt.Println(custody.Version())
			return nil
		},
	},
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "vaultd: multisig custody vault node")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-10s%s\n", "help", "Print this message")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-10s%s\n", name, commands[name].help)
	}
	fmt.Fprintln(out)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "missing command")
		usage()
		os.Exit(2)
	}
	name := flag.Arg(0)
	if name == "help" {
		usage()
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
		usage()
		os.Exit(2)
	}

	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).With("module", "vaultd")
	if err := cmd.run(logger, flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}
