package convert

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var ErrInvalidLiteral = errors.New("invalid literal")

// Base is a textual integer representation.
type Base int

const (
	Decimal Base = iota
	Hex
	Binary
)

func (b Base) String() string {
	switch b {
	case Hex:
		return "hex"
	case Binary:
		return "binary"
	default:
		return "decimal"
	}
}

// ParseBase resolves a case-insensitive base name.
func ParseBase(name string) (Base, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hex", "hexadecimal", "16":
		return Hex, nil
	case "dec", "decimal", "10", "":
		return Decimal, nil
	case "bin", "binary", "2":
		return Binary, nil
	default:
		return 0, fmt.Errorf("unknown base %q (hex, decimal, binary)", name)
	}
}

// ConvertBase converts a non-negative integer literal between bases with
// arbitrary precision. Output is canonical: hex as 0x-prefixed lowercase
// without leading zeros, decimal and binary without leading zeros or prefix.
func ConvertBase(value string, from, to Base) (string, error) {
	v, err := parseInt(value, from)
	if err != nil {
		return "", err
	}
	return FormatInt(v, to), nil
}

// Normalize returns the canonical spelling of a literal in its own base.
func Normalize(value string, base Base) (string, error) {
	return ConvertBase(value, base, base)
}

// FormatInt renders an integer in the given base. Negative values keep a
// leading minus sign.
func FormatInt(v *big.Int, base Base) string {
	if v == nil {
		v = new(big.Int)
	}
	switch base {
	case Hex:
		if v.Sign() < 0 {
			return "-0x" + new(big.Int).Neg(v).Text(16)
		}
		return "0x" + v.Text(16)
	case Binary:
		return v.Text(2)
	default:
		return v.Text(10)
	}
}

func parseInt(value string, base Base) (*big.Int, error) {
	digits := strings.TrimSpace(value)
	radix := 10
	switch base {
	case Hex:
		radix = 16
		if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
			digits = digits[2:]
		}
	case Binary:
		radix = 2
		if strings.HasPrefix(digits, "0b") || strings.HasPrefix(digits, "0B") {
			digits = digits[2:]
		}
	}
	if digits == "" {
		return nil, fmt.Errorf("%w: empty %s value", ErrInvalidLiteral, base)
	}
	for i, r := range digits {
		if !validDigit(r, radix) {
			return nil, fmt.Errorf("%w: %q: unexpected %q at position %d for %s", ErrInvalidLiteral, value, r, i, base)
		}
	}
	v, ok := new(big.Int).SetString(digits, radix)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a %s integer", ErrInvalidLiteral, value, base)
	}
	return v, nil
}

func validDigit(r rune, radix int) bool {
	switch radix {
	case 2:
		return r == '0' || r == '1'
	case 16:
		return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
	default:
		return r >= '0' && r <= '9'
	}
}

// BytesToASCII renders each byte of a hex string as its printable ASCII
// character, or '.' outside [32,126]. The result is for display only.
func BytesToASCII(hexValue string) (string, error) {
	digits := strings.TrimSpace(hexValue)
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
	}
	data, err := hex.DecodeString(digits)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidLiteral, hexValue, err)
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String(), nil
}
