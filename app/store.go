package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// StoreApp is the storage half of an ABCI application: the handshake,
// genesis loading, queries, block boundaries and commits. BaseApp embeds it
// and adds transaction processing.
//
// Info, InitChain, BeginBlock, EndBlock and Commit carry no user input, so
// a failure there means the node cannot continue and they panic.
type StoreApp struct {
	logger log.Logger
	debug  bool

	// name is reported by Info.
	name  string
	store *CommitStore

	initializer custody.Initializer
	queryRouter custody.QueryRouter

	// chainID is empty until InitChain stores it. It is reloaded from the
	// store on restart.
	chainID string

	// baseContext lives as long as the app, blockContext is rebuilt on
	// every BeginBlock.
	baseContext  custody.Context
	blockContext custody.Context
}

// NewStoreApp loads the committed state of store. It panics if the chain id
// or the latest version cannot be read.
func NewStoreApp(name string, store custody.CommitKVStore, queryRouter custody.QueryRouter, baseContext custody.Context) *StoreApp {
	s := &StoreApp{
		name:        name,
		store:       NewCommitStore(store),
		queryRouter: queryRouter,
		baseContext: baseContext,
	}
	s.WithLogger(log.NewNopLogger())

	if s.chainID = mustLoadChainID(s.DeliverStore()); s.chainID != "" {
		s.baseContext = custody.WithChainID(s.baseContext, s.chainID)
	}
	s.blockContext = custody.WithHeight(s.baseContext, s.mustCommitInfo().Version)
	return s
}

// WithInit sets the initializer run by InitChain.
func (s *StoreApp) WithInit(init custody.Initializer) *StoreApp {
	s.initializer = init
	return s
}

// WithDebug reports unregistered errors in full instead of redacting them.
func (s *StoreApp) WithDebug(debug bool) *StoreApp {
	s.debug = debug
	return s
}

// WithLogger sets the app logger, which is also placed in every context
// handed to handlers.
func (s *StoreApp) WithLogger(logger log.Logger) *StoreApp {
	s.logger = logger
	s.baseContext = custody.WithLogger(s.baseContext, logger)
	return s
}

func (s *StoreApp) Logger() log.Logger {
	return s.logger
}

func (s *StoreApp) GetChainID() string {
	return s.chainID
}

// BlockContext is the context of the block being processed.
func (s *StoreApp) BlockContext() custody.Context {
	return s.blockContext
}

// DeliverStore is the cache that collects the writes of the current block.
func (s *StoreApp) DeliverStore() custody.CacheableKVStore {
	return s.store.DeliverStore()
}

// CheckStore is the cache used to validate mempool transactions.
func (s *StoreApp) CheckStore() custody.CacheableKVStore {
	return s.store.CheckStore()
}

func (s *StoreApp) mustCommitInfo() custody.CommitID {
	info, err := s.store.CommitInfo()
	if err != nil {
		panic(err)
	}
	return info
}

// loadGenesis stores the chain id and runs the initializer over app_state.
// It only succeeds once per chain.
func (s *StoreApp) loadGenesis(appState []byte, chainID string) error {
	if s.chainID != "" {
		return errors.Wrapf(errors.ErrState, "genesis already loaded for chain %q", s.chainID)
	}
	if len(appState) == 0 {
		return errors.Wrap(errors.ErrEmpty, "app_state missing in genesis, run init first")
	}
	var opts custody.Options
	if err := json.Unmarshal(appState, &opts); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	if err := saveChainID(s.DeliverStore(), chainID); err != nil {
		return err
	}
	s.chainID = chainID
	s.baseContext = custody.WithChainID(s.baseContext, chainID)

	if s.initializer == nil {
		return nil
	}
	return s.initializer.FromGenesis(opts, s.DeliverStore())
}

// Info reports the name, version and the last committed height and hash.
func (s *StoreApp) Info(abci.RequestInfo) abci.ResponseInfo {
	info := s.mustCommitInfo()
	s.logger.Info("info synced", "height", info.Version, "hash", fmt.Sprintf("%X", info.Hash))
	return abci.ResponseInfo{
		Data:             s.name,
		Version:          custody.Version(),
		LastBlockHeight:  info.Version,
		LastBlockAppHash: info.Hash,
	}
}

// SetOption is not supported.
func (s *StoreApp) SetOption(abci.RequestSetOption) abci.ResponseSetOption {
	return abci.ResponseSetOption{Log: "Not Implemented"}
}

// Query reads the last committed state through the query router.
//
// The path selects a handler ("/vaults", "/deposits/vault", ...) and may
// end with "?prefix" to turn the data into a key prefix. Only the latest
// height, or 0, can be queried. Both Key and Value of the response are
// ResultSets of the same length.
func (s *StoreApp) Query(req abci.RequestQuery) abci.ResponseQuery {
	path, mod := splitPath(req.Path)
	h := s.queryRouter.Handler(path)
	if h == nil {
		code, _ := errors.ABCIInfo(errors.ErrNotFound, s.debug)
		return abci.ResponseQuery{
			Code: code,
			Log:  fmt.Sprintf("Unexpected Query path: %v", req.Path),
		}
	}

	info, err := s.store.CommitInfo()
	if err != nil {
		return s.queryError(err)
	}
	if req.Height != 0 && req.Height != info.Version {
		return s.queryError(errors.Wrapf(errors.ErrInput, "only the latest height %d can be queried", info.Version))
	}

	db := s.store.committed.CacheWrap()
	defer db.Discard()
	models, err := h.Query(db, mod, req.Data)
	if err != nil {
		return s.queryError(err)
	}

	keys, err := ResultsFromKeys(models).Marshal()
	if err != nil {
		return s.queryError(err)
	}
	values, err := ResultsFromValues(models).Marshal()
	if err != nil {
		return s.queryError(err)
	}
	return abci.ResponseQuery{Height: info.Version, Key: keys, Value: values}
}

// splitPath separates the handler path from the modifier after "?".
func splitPath(full string) (path, mod string) {
	if i := strings.IndexByte(full, '?'); i >= 0 {
		return full[:i], full[i+1:]
	}
	return full, ""
}

func (s *StoreApp) queryError(err error) abci.ResponseQuery {
	code, log := errors.ABCIInfo(err, s.debug)
	return abci.ResponseQuery{Code: code, Log: log}
}

// Commit persists the block and returns the new app hash.
func (s *StoreApp) Commit() abci.ResponseCommit {
	id, err := s.store.Commit()
	if err != nil {
		panic(err)
	}
	s.logger.Debug("commit synced", "height", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
	return abci.ResponseCommit{Data: id.Hash}
}

// InitChain loads app_state from the genesis file.
func (s *StoreApp) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	if err := s.loadGenesis(req.AppStateBytes, req.ChainId); err != nil {
		panic(err)
	}
	return abci.ResponseInitChain{}
}

// BeginBlock resets the block context to the new header.
func (s *StoreApp) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	ctx := custody.WithHeader(s.baseContext, req.Header)
	s.blockContext = custody.WithHeight(ctx, req.Header.GetHeight())
	return abci.ResponseBeginBlock{}
}

// EndBlock never changes the validator set.
func (s *StoreApp) EndBlock(abci.RequestEndBlock) abci.ResponseEndBlock {
	return abci.ResponseEndBlock{}
}
