package app

import (
	"bytes"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	abci "github.com/tendermint/tendermint/abci/types"
)

// ABCIStore exposes one query path of an abci application as a
// ReadOnlyKVStore. Keys are passed to the query handler unchanged.
type ABCIStore struct {
	app  abci.Application
	path string
}

var _ custody.ReadOnlyKVStore = (*ABCIStore)(nil)

// NewABCIStore returns a store reading through the query handler
// registered under path, for example "/wallets".
func NewABCIStore(app abci.Application, path string) *ABCIStore {
	return &ABCIStore{app: app, path: path}
}

// Get expects at most one model back. Wrapping the store in a bucket gives
// typed access to remote records.
func (a *ABCIStore) Get(key []byte) ([]byte, error) {
	models, err := a.query(a.path, key)
	if err != nil {
		return nil, err
	}
	switch len(models) {
	case 0:
		return nil, nil
	case 1:
		return models[0].Value, nil
	default:
		return nil, errors.Wrapf(errors.ErrState, "%d results for a single key", len(models))
	}
}

func (a *ABCIStore) Has(key []byte) (bool, error) {
	v, err := a.Get(key)
	return len(v) > 0, err
}

// Iterator only supports prefix ranges. end must be nil or the first key
// after the prefix start.
func (a *ABCIStore) Iterator(start, end []byte) (custody.Iterator, error) {
	models, err := a.prefixQuery(start, end)
	if err != nil {
		return nil, err
	}
	return store.NewSliceIterator(models), nil
}

func (a *ABCIStore) ReverseIterator(start, end []byte) (custody.Iterator, error) {
	models, err := a.prefixQuery(start, end)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}
	return store.NewSliceIterator(models), nil
}

func (a *ABCIStore) prefixQuery(start, end []byte) ([]custody.Model, error) {
	if end != nil && !bytes.Equal(end, prefixEnd(start)) {
		return nil, errors.Wrap(errors.ErrInput, "only prefix ranges are supported")
	}
	return a.query(a.path+"?"+custody.PrefixQueryMod, start)
}

func (a *ABCIStore) query(path string, data []byte) ([]custody.Model, error) {
	res := a.app.Query(abci.RequestQuery{
		Path: path,
		Data: data,
	})
	if res.Code != 0 {
		return nil, errors.Wrapf(errors.ErrDatabase, "query %q failed with code %d: %s", path, res.Code, res.Log)
	}
	return toModels(res.Key, res.Value)
}

func toModels(keys, values []byte) ([]custody.Model, error) {
	var k, v ResultSet
	if err := k.Unmarshal(keys); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal keys")
	}
	if err := v.Unmarshal(values); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal values")
	}
	return JoinResults(&k, &v)
}

// prefixEnd returns the first key that does not start with prefix,
// or nil if there is none.
func prefixEnd(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
