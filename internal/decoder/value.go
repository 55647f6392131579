package decoder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Value is a decoded ABI value. The set of implementations is closed:
// UintValue, IntValue, BoolValue, AddressValue, FixedBytesValue, BytesValue,
// StringValue, ArrayValue, TupleValue and HashedValue.
type Value interface {
	// Type returns the canonical ABI type of the value.
	Type() string
	isValue()
}

type typed struct {
	typ string
}

func (t typed) Type() string { return t.typ }
func (typed) isValue()       {}

type UintValue struct {
	typed
	Value *big.Int
}

type IntValue struct {
	typed
	Value *big.Int
}

type BoolValue struct {
	typed
	Value bool
}

type AddressValue struct {
	typed
	Value common.Address
}

// FixedBytesValue holds bytesN values, and function pointers as 24 raw bytes.
type FixedBytesValue struct {
	typed
	Value []byte
}

type BytesValue struct {
	typed
	Value []byte
}

type StringValue struct {
	typed
	Value string
}

// ArrayValue holds fixed and dynamic array elements.
type ArrayValue struct {
	typed
	Elems []Value
}

// Field is a named tuple component.
type Field struct {
	Name  string
	Value Value
}

type TupleValue struct {
	typed
	Fields []Field
}

// HashedValue is an indexed event parameter of a dynamic or composite type.
// Only its keccak-256 hash is present in the log topic.
type HashedValue struct {
	typed
	Hash common.Hash
}

// Arg pairs a fragment parameter with its decoded value.
type Arg struct {
	Param Param
	Value Value
}

// DecodedCall is the result of decoding calldata against a function fragment.
type DecodedCall struct {
	Selector [4]byte
	Fragment Fragment
	Args     []Arg
}

// DecodedLog is the result of decoding a log against an event fragment.
type DecodedLog struct {
	Topic    common.Hash
	Fragment Fragment
	Args     []Arg
}
