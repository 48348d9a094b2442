package orm

import (
	"github.com/iov-one/custody"
)

// ConsumeIterator drains itr into a slice and closes it.
func ConsumeIterator(itr custody.Iterator) ([]custody.Model, error) {
	defer itr.Close()

	var all []custody.Model
	for itr.Valid() {
		all = append(all, custody.Pair(itr.Key(), itr.Value()))
		if err := itr.Next(); err != nil {
			return nil, err
		}
	}
	return all, nil
}

// queryPrefix returns every model whose key starts with prefix, in key
// order.
func queryPrefix(db custody.ReadOnlyKVStore, prefix []byte) ([]custody.Model, error) {
	start, end := prefixRange(prefix)
	itr, err := db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return ConsumeIterator(itr)
}

// prefixRange returns the iterator bounds covering all keys that start with
// prefix. The end is the prefix incremented as a big endian number, or nil
// when the prefix is all 0xFF and nothing sorts after it.
func prefixRange(prefix []byte) (start, end []byte) {
	if len(prefix) == 0 {
		return nil, nil
	}
	end = append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return prefix, end
		}
	}
	return prefix, nil
}
