package vault

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

const gconfPackage = "vault"

// Configuration is the chain wide setup of the vault extension.
type Configuration struct {
	// Owner is allowed to update the configuration. Without an owner the
	// configuration cannot be changed after genesis.
	Owner custody.Address `json:"owner"`
	// AllowLockout permits rotating the signers of a vault to an empty
	// list. A vault without signers can never be withdrawn from again.
	// Unset means not allowed. A patch leaves it alone unless it is set,
	// so it can be switched both on and off.
	AllowLockout *bool `json:"allow_lockout,omitempty"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

func (c *Configuration) GetOwner() custody.Address {
	return c.Owner
}

// LockoutAllowed reports whether vaults may be left without signers.
func (c *Configuration) LockoutAllowed() bool {
	return c.AllowLockout != nil && *c.AllowLockout
}

func (c *Configuration) Validate() error {
	if len(c.Owner) == 0 {
		return nil
	}
	return errors.Field("Owner", c.Owner.Validate(), "invalid owner")
}

func (c *Configuration) Marshal() ([]byte, error) {
	return codec.NewEncoder().
		Bytes(1, c.Owner).
		OptionalBool(2, c.AllowLockout).
		Result(), nil
}

func (c *Configuration) Unmarshal(raw []byte) error {
	*c = Configuration{}
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Next()
		if err != nil {
			return err
		}
		switch field {
		case 1:
			if err := codec.Expect(field, wire, proto.WireBytes); err != nil {
				return err
			}
			if c.Owner, err = d.Bytes(); err != nil {
				return err
			}
		case 2:
			if err := codec.Expect(field, wire, proto.WireVarint); err != nil {
				return err
			}
			allow, err := d.Bool()
			if err != nil {
				return err
			}
			c.AllowLockout = &allow
		default:
			if err := d.Skip(wire); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadConf returns the stored configuration, or the default one when none
// was stored.
func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, gconfPackage, &conf); {
	case err == nil:
		return &conf, nil
	case errors.ErrNotFound.Is(err):
		return &Configuration{}, nil
	default:
		return nil, errors.Wrap(err, "cannot load vault configuration")
	}
}

// UpdateConfigurationMsg changes the fields that are set in the patch.
type UpdateConfigurationMsg struct {
	Patch *Configuration
}

var _ custody.Msg = (*UpdateConfigurationMsg)(nil)

func (UpdateConfigurationMsg) Path() string {
	return "vault/update_configuration"
}

func (m *UpdateConfigurationMsg) Validate() error {
	if m.Patch == nil {
		return errors.Field("Patch", errors.ErrEmpty, "required")
	}
	return m.Patch.Validate()
}

func (m *UpdateConfigurationMsg) Marshal() ([]byte, error) {
	e := codec.NewEncoder()
	if m.Patch != nil {
		if err := e.Message(1, m.Patch); err != nil {
			return nil, err
		}
	}
	return e.Result(), nil
}

func (m *UpdateConfigurationMsg) Unmarshal(raw []byte) error {
	*m = UpdateConfigurationMsg{}
	d := codec.NewDecoder(raw)
	for d.More() {
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
		raw, err := d.Bytes()
		if err != nil {
			return err
		}
		m.Patch = &Configuration{}
		if err := m.Patch.Unmarshal(raw); err != nil {
			return errors.Wrap(err, "patch")
		}
	}
	return nil
}
