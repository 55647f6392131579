package convert

import (
	"errors"
	"math/big"
	"testing"
)

func TestConvertBase(t *testing.T) {
	cases := []struct {
		value    string
		from, to Base
		want     string
	}{
		{"255", Decimal, Hex, "0xff"},
		{"0xFF", Hex, Decimal, "255"},
		{"ff", Hex, Binary, "11111111"},
		{"0b101", Binary, Decimal, "5"},
		{"0", Decimal, Hex, "0x0"},
		{"0x0000", Hex, Hex, "0x0"},
		{"007", Decimal, Decimal, "7"},
		{"115792089237316195423570985008687907853269984665640564039457584007913129639935", Decimal, Hex,
			"0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"},
	}
	for _, tc := range cases {
		got, err := ConvertBase(tc.value, tc.from, tc.to)
		if err != nil {
			t.Fatalf("%s %s -> %s: %v", tc.value, tc.from, tc.to, err)
		}
		if got != tc.want {
			t.Fatalf("%s %s -> %s: got %s want %s", tc.value, tc.from, tc.to, got, tc.want)
		}
	}
}

func TestConvertBaseRoundTrip(t *testing.T) {
	for _, v := range []string{"0", "1", "1024", "340282366920938463463374607431768211457"} {
		for _, base := range []Base{Hex, Binary} {
			out, err := ConvertBase(v, Decimal, base)
			if err != nil {
				t.Fatalf("%s to %s: %v", v, base, err)
			}
			back, err := ConvertBase(out, base, Decimal)
			if err != nil {
				t.Fatalf("%s back from %s: %v", out, base, err)
			}
			if back != v {
				t.Fatalf("round-trip mismatch via %s: %s != %s", base, back, v)
			}
		}
	}
}

func TestConvertBaseInvalid(t *testing.T) {
	cases := []struct {
		value string
		from  Base
	}{
		{"", Decimal},
		{"0x", Hex},
		{"12a", Decimal},
		{"0xzz", Hex},
		{"102", Binary},
		{"-5", Decimal},
	}
	for _, tc := range cases {
		if _, err := ConvertBase(tc.value, tc.from, Decimal); !errors.Is(err, ErrInvalidLiteral) {
			t.Fatalf("%q %s: expected invalid literal, got %v", tc.value, tc.from, err)
		}
	}
}

func TestFormatInt(t *testing.T) {
	if got := FormatInt(big.NewInt(-255), Hex); got != "-0xff" {
		t.Fatalf("negative hex mismatch: %s", got)
	}
	if got := FormatInt(nil, Decimal); got != "0" {
		t.Fatalf("nil mismatch: %s", got)
	}
}

func TestBytesToASCII(t *testing.T) {
	got, err := BytesToASCII("0x48656c6c6f00ff7e")
	if err != nil {
		t.Fatalf("ascii: %v", err)
	}
	if got != "Hello..~" {
		t.Fatalf("ascii mismatch: %q", got)
	}
	if _, err := BytesToASCII("0xabc"); !errors.Is(err, ErrInvalidLiteral) {
		t.Fatalf("expected invalid literal for odd length, got %v", err)
	}
}

func TestParseBase(t *testing.T) {
	if b, err := ParseBase("HEX"); err != nil || b != Hex {
		t.Fatalf("parse hex: %v %v", b, err)
	}
	if _, err := ParseBase("octal"); err == nil {
		t.Fatalf("expected error for unknown base")
	}
}
