package gconf

import (
	"reflect"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
)

// OwnedConfig is a configuration that names the address allowed to change
// it.
type OwnedConfig interface {
	Configuration
	GetOwner() custody.Address
}

// AdminFunc returns the address allowed to create a configuration that was
// not part of the genesis.
type AdminFunc func(custody.ReadOnlyKVStore) (custody.Address, error)

// UpdateConfigurationHandler applies the Patch field of a message to the
// stored configuration of one package.
type UpdateConfigurationHandler struct {
	pkg   string
	typ   reflect.Type
	auth  x.Authenticator
	admin AdminFunc
}

var _ custody.Handler = UpdateConfigurationHandler{}

// NewUpdateConfigurationHandler handles patches for the configuration of
// pkg. proto only sets the configuration type and is never written to.
//
// A stored configuration can only be patched by its owner. When nothing is
// stored yet, the address returned by admin may create it. With a nil admin
// a configuration can only come from genesis.
func NewUpdateConfigurationHandler(pkg string, proto OwnedConfig, auth x.Authenticator, admin AdminFunc) UpdateConfigurationHandler {
	typ := reflect.TypeOf(proto)
	if typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		panic("configuration must be a pointer to a struct")
	}
	return UpdateConfigurationHandler{
		pkg:   pkg,
		typ:   typ,
		auth:  auth,
		admin: admin,
	}
}

func (h UpdateConfigurationHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.apply(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h UpdateConfigurationHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	conf, err := h.apply(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	custody.GetLogger(ctx).Info("configuration updated", "pkg", h.pkg, "owner", conf.GetOwner())
	return &custody.DeliverResult{}, nil
}

func (h UpdateConfigurationHandler) apply(ctx custody.Context, db custody.KVStore, tx custody.Tx) (OwnedConfig, error) {
	conf := reflect.New(h.typ.Elem()).Interface().(OwnedConfig)
	if err := h.authorize(ctx, db, conf); err != nil {
		return nil, err
	}

	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	patch, err := patchOf(msg, h.typ)
	if err != nil {
		return nil, errors.Wrap(err, "patch")
	}
	merge(reflect.ValueOf(conf).Elem(), reflect.ValueOf(patch).Elem())

	if err := Save(db, h.pkg, conf); err != nil {
		return nil, errors.Wrap(err, "save patched configuration")
	}
	return conf, nil
}

// authorize loads the current configuration into conf and checks that the
// party allowed to change it signed the transaction.
func (h UpdateConfigurationHandler) authorize(ctx custody.Context, db custody.KVStore, conf OwnedConfig) error {
	err := Load(db, h.pkg, conf)
	if err == nil {
		owner := conf.GetOwner()
		if owner == nil {
			return errors.Wrap(errors.ErrUnauthorized, "configuration has no owner")
		}
		if !h.auth.HasAddress(ctx, owner) {
			return errors.Wrap(errors.ErrUnauthorized, "owner did not sign transaction")
		}
		return nil
	}
	if !errors.ErrNotFound.Is(err) {
		return errors.Wrap(err, "load configuration")
	}

	if h.admin == nil {
		return errors.Wrap(errors.ErrUnauthorized, "configuration does not exist and cannot be created")
	}
	admin, err := h.admin(db)
	if err != nil {
		return errors.Wrap(err, "configuration admin")
	}
	if !h.auth.HasAddress(ctx, admin) {
		return errors.Wrap(errors.ErrUnauthorized, "admin did not sign transaction")
	}
	return nil
}

// merge copies every non zero field of patch into dst. A patch cannot reset
// a field to its zero value.
func merge(dst, patch reflect.Value) {
	for i := 0; i < dst.NumField(); i++ {
		f := patch.Field(i)
		if reflect.DeepEqual(f.Interface(), reflect.Zero(f.Type()).Interface()) {
			continue
		}
		dst.Field(i).Set(f)
	}
}

// patchOf validates msg and returns its Patch field, which must be a non
// nil value of type typ.
func patchOf(msg custody.Msg, typ reflect.Type) (OwnedConfig, error) {
	if msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, errors.Wrapf(errors.ErrInput, "unsupported message %T", msg)
	}
	field := v.Elem().FieldByName("Patch")
	switch {
	case !field.IsValid():
		return nil, errors.Wrapf(errors.ErrInput, "%T has no Patch field", msg)
	case field.Type() != typ:
		return nil, errors.Wrapf(errors.ErrInput, "Patch of %T is not %s", msg, typ)
	case field.IsNil():
		return nil, errors.Wrap(errors.ErrState, "Patch is required")
	}
	return field.Interface().(OwnedConfig), nil
}
