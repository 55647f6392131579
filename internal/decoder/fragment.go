package decoder

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Kind is the fragment kind.
type Kind string

const (
	KindFunction Kind = "function"
	KindEvent    Kind = "event"
)

// Param is a single typed fragment parameter.
type Param struct {
	Name    string
	Type    abi.Type
	Indexed bool
}

// Fragment is a parsed function or event description.
type Fragment struct {
	Kind      Kind
	Name      string
	Params    []Param
	Anonymous bool
}

// Signature returns the canonical signature, e.g. transfer(address,uint256).
func (f Fragment) Signature() string {
	types := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		types = append(types, p.Type.String())
	}
	return f.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the first 4 bytes of the signature hash.
func (f Fragment) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(f.Signature()))[:4])
	return sel
}

// Topic returns the full keccak-256 signature hash used as topic0.
func (f Fragment) Topic() common.Hash {
	return crypto.Keccak256Hash([]byte(f.Signature()))
}

// IndexedCount returns the number of indexed parameters.
func (f Fragment) IndexedCount() int {
	n := 0
	for _, p := range f.Params {
		if p.Indexed {
			n++
		}
	}
	return n
}

// String renders the fragment with parameter names and indexed markers.
func (f Fragment) String() string {
	parts := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		part := p.Type.String()
		if p.Indexed {
			part += " indexed"
		}
		if p.Name != "" {
			part += " " + p.Name
		}
		parts = append(parts, part)
	}
	return string(f.Kind) + " " + f.Name + "(" + strings.Join(parts, ", ") + ")"
}

// SelectorHex formats a selector as 0x-prefixed hex.
func SelectorHex(sel [4]byte) string {
	return hexutil.Encode(sel[:])
}

func (f Fragment) indexedKey() string {
	var b strings.Builder
	b.WriteString(f.Signature())
	for _, p := range f.Params {
		if p.Indexed {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
