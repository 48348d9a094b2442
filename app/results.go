package app

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

// ResultSet carries the keys or the values of a query response. On the
// wire it is a single repeated bytes field number 1.
type ResultSet struct {
	Results [][]byte
}

var _ custody.Persistent = (*ResultSet)(nil)

func (r *ResultSet) Marshal() ([]byte, error) {
	return codec.NewEncoder().RepeatedBytes(1, r.Results).Result(), nil
}

func (r *ResultSet) Unmarshal(raw []byte) error {
	var results [][]byte
	for d := codec.NewDecoder(raw); d.More(); {
		field, wire, err := d.Next()
		if err != nil {
			return err
		}
		if field != 1 {
			if err := d.Skip(wire); err != nil {
				return err
			}
			continue
		}
		if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
			return err
		}
		b, err := d.Bytes()
		if err != nil {
			return err
		}
		results = append(results, b)
	}
	r.Results = results
	return nil
}

func ResultsFromKeys(models []custody.Model) *ResultSet {
	return project(models, func(m custody.Model) []byte { return m.Key })
}

func ResultsFromValues(models []custody.Model) *ResultSet {
	return project(models, func(m custody.Model) []byte { return m.Value })
}

func project(models []custody.Model, field func(custody.Model) []byte) *ResultSet {
	out := make([][]byte, len(models))
	for i, m := range models {
		out[i] = field(m)
	}
	return &ResultSet{Results: out}
}

// JoinResults pairs the key and value sets of a query response back into
// models. Both sets must have the same length.
func JoinResults(keys, values *ResultSet) ([]custody.Model, error) {
	if len(keys.Results) != len(values.Results) {
		return nil, errors.Wrapf(errors.ErrInput, "%d keys and %d values", len(keys.Results), len(values.Results))
	}
	models := make([]custody.Model, len(keys.Results))
	for i, k := range keys.Results {
		models[i] = custody.Pair(k, values.Results[i])
	}
	return models, nil
}

// UnmarshalOneResult decodes the first entry of a serialized ResultSet into
// o. An empty set leaves o untouched.
func UnmarshalOneResult(raw []byte, o custody.Persistent) error {
	var set ResultSet
	if err := set.Unmarshal(raw); err != nil {
		return err
	}
	if len(set.Results) == 0 {
		return nil
	}
	return o.Unmarshal(set.Results[0])
}
