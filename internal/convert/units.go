package convert

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidNumericLiteral = errors.New("invalid numeric literal")

// Unit is an ether denomination.
type Unit struct {
	Name     string
	Decimals int32
}

var (
	Wei   = Unit{Name: "wei", Decimals: 0}
	Gwei  = Unit{Name: "gwei", Decimals: 9}
	Ether = Unit{Name: "ether", Decimals: 18}
)

// ParseUnit resolves a case-insensitive unit name.
func ParseUnit(name string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "wei":
		return Wei, nil
	case "gwei":
		return Gwei, nil
	case "ether", "eth":
		return Ether, nil
	default:
		return Unit{}, fmt.Errorf("unknown unit %q (wei, gwei, ether)", name)
	}
}

// ConvertValueUnits converts an exact decimal literal between units. Wei
// literals are digits only; gwei and ether literals may contain one decimal
// point. The value must be a whole number of wei.
func ConvertValueUnits(value string, from, to Unit) (string, error) {
	if err := checkUnitLiteral(value, from); err != nil {
		return "", err
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidNumericLiteral, value, err)
	}

	wei := d.Shift(from.Decimals)
	if !wei.Equal(wei.Truncate(0)) {
		return "", fmt.Errorf("%w: %q %s is not a whole number of wei", ErrInvalidNumericLiteral, value, from.Name)
	}

	return wei.Shift(-to.Decimals).String(), nil
}

func checkUnitLiteral(value string, unit Unit) error {
	if value == "" {
		return fmt.Errorf("%w: empty %s value", ErrInvalidNumericLiteral, unit.Name)
	}
	digits, points := 0, 0
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && unit.Decimals > 0:
			points++
			if points > 1 {
				return fmt.Errorf("%w: %q has more than one decimal point", ErrInvalidNumericLiteral, value)
			}
		default:
			return fmt.Errorf("%w: %q: unexpected %q at position %d for %s", ErrInvalidNumericLiteral, value, r, i, unit.Name)
		}
	}
	if digits == 0 {
		return fmt.Errorf("%w: %q has no digits", ErrInvalidNumericLiteral, value)
	}
	return nil
}

// FormatTokenAmount renders an integer amount with the given number of
// decimals, keeping every fractional digit.
func FormatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).StringFixed(int32(decimals))
}
