package cash

import (
	"encoding/json"
	"math"
	"math/big"

	"github.com/iov-one/custody/errors"
	"github.com/shopspring/decimal"
)

// AmountFractionalDigits is the number of decimal places between a whole
// token and its base unit.
const AmountFractionalDigits = 9

var maxAmount = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), -AmountFractionalDigits)

// ParseAmount converts a decimal representation of whole tokens, for
// example "12.5", into base units. More than AmountFractionalDigits
// fractional digits, negative values and values that do not fit into
// uint64 are rejected.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrAmount, "cannot parse %q", s)
	}
	if d.IsNegative() {
		return 0, errors.Wrapf(errors.ErrAmount, "negative amount %q", s)
	}
	if !d.Equal(d.Truncate(AmountFractionalDigits)) {
		return 0, errors.Wrapf(errors.ErrAmount, "more than %d fractional digits in %q", AmountFractionalDigits, s)
	}
	if d.GreaterThan(maxAmount) {
		return 0, errors.Wrapf(errors.ErrOverflow, "amount %q", s)
	}
	return d.Shift(AmountFractionalDigits).BigInt().Uint64(), nil
}

// FormatAmount returns the decimal representation of an amount of base
// units. Trailing zeros are dropped.
func FormatAmount(amount uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -AmountFractionalDigits).String()
}

// Amount is a number of base units serialized to JSON as a decimal
// string of whole tokens.
type Amount uint64

func (a Amount) String() string {
	return FormatAmount(uint64(a))
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts the decimal string form as well as a bare JSON
// number, both expressed in whole tokens.
func (a *Amount) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return errors.Wrap(errors.ErrAmount, "amount must be a decimal string")
		}
		s = n.String()
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}
