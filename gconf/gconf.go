package gconf

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// ReadStore is the part of custody.ReadOnlyKVStore that Load needs.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store is the part of custody.KVStore that Save needs.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

type ValidMarshaler interface {
	Marshal() ([]byte, error)
	Validate() error
}

type Unmarshaler interface {
	Unmarshal([]byte) error
}

// Configuration is a package configuration as kept in the store.
type Configuration interface {
	ValidMarshaler
	Unmarshaler
}

// Each package has a single configuration entry.
func configKey(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save writes src as the configuration of pkg. Invalid values are
// rejected.
func Save(db Store, pkg string, src ValidMarshaler) error {
	key := configKey(pkg)
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "invalid configuration %q", key)
	}
	raw, err := src.Marshal()
	if err != nil {
		return errors.Wrapf(err, "marshal configuration %q", key)
	}
	return db.Set(key, raw)
}

// Load reads the configuration of pkg into dst. ErrNotFound means it was
// never saved.
func Load(db ReadStore, pkg string, dst Unmarshaler) error {
	key := configKey(pkg)
	raw, err := db.Get(key)
	switch {
	case err != nil:
		return err
	case raw == nil:
		return errors.Wrapf(errors.ErrNotFound, "configuration %q", key)
	}
	if err := dst.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "unmarshal configuration %q", key)
	}
	return nil
}

// InitConfig saves the genesis value found at opts["conf"][pkg]. It fails
// with ErrNotFound when the genesis has no entry for pkg.
func InitConfig(db Store, opts custody.Options, pkg string, conf Configuration) error {
	var all custody.Options
	if err := opts.ReadOptions("conf", &all); err != nil {
		return errors.Wrap(err, "read conf")
	}
	if _, ok := all[pkg]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "genesis has no configuration for %q", pkg)
	}
	if err := all.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(err, "read %s configuration", pkg)
	}
	return Save(db, pkg, conf)
}
