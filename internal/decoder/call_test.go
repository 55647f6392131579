package decoder

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func mustSignature(t *testing.T, kind Kind, text string) Fragment {
	t.Helper()
	f, err := ParseSignature(kind, text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return f
}

func wordUint(v uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(v).Bytes(), 32)
}

func calldata(sel [4]byte, words ...[]byte) []byte {
	out := append([]byte{}, sel[:]...)
	for _, w := range words {
		out = append(out, w...)
	}
	return out
}

func TestDecodeCallTransfer(t *testing.T) {
	fragments, err := WellKnownFragments()
	if err != nil {
		t.Fatalf("builtin fragments: %v", err)
	}

	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	data := hexutil.MustDecode("0xa9059cbb" +
		"0000000000000000000000001111111111111111111111111111111111111111" +
		"00000000000000000000000000000000000000000000000000000000000003e8")

	call, err := DecodeCall(data, fragments)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if call.Fragment.Signature() != "transfer(address,uint256)" {
		t.Fatalf("fragment mismatch: %s", call.Fragment.Signature())
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Args))
	}

	addr, ok := call.Args[0].Value.(AddressValue)
	if !ok || addr.Value != to {
		t.Fatalf("address mismatch: %+v", call.Args[0].Value)
	}
	amount, ok := call.Args[1].Value.(UintValue)
	if !ok || amount.Value.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("amount mismatch: %+v", call.Args[1].Value)
	}
	if call.Args[1].Param.Name != "amount" || amount.Type() != "uint256" {
		t.Fatalf("arg metadata mismatch: %+v", call.Args[1])
	}
}

func TestDecodeCallRoundTripDynamic(t *testing.T) {
	f := mustSignature(t, KindFunction, "submit(string note, bytes payload, uint256[] ids, address to, int24 tick)")

	args := make(abi.Arguments, 0, len(f.Params))
	for _, p := range f.Params {
		args = append(args, abi.Argument{Name: p.Name, Type: p.Type})
	}
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	ids := []*big.Int{big.NewInt(1), big.NewInt(2), new(big.Int).Lsh(big.NewInt(1), 200)}
	packed, err := args.Pack("hello world", []byte{0xde, 0xad, 0xbe, 0xef}, ids, to, big.NewInt(-15))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	sel := f.Selector()

	call, err := DecodeCallWith(calldata(sel, packed), f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if v := call.Args[0].Value.(StringValue); v.Value != "hello world" {
		t.Fatalf("note mismatch: %q", v.Value)
	}
	if v := call.Args[1].Value.(BytesValue); !bytes.Equal(v.Value, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("payload mismatch: %x", v.Value)
	}
	arr := call.Args[2].Value.(ArrayValue)
	if len(arr.Elems) != len(ids) {
		t.Fatalf("ids length mismatch: %d", len(arr.Elems))
	}
	for i, elem := range arr.Elems {
		if elem.(UintValue).Value.Cmp(ids[i]) != 0 {
			t.Fatalf("id %d mismatch: %v", i, elem)
		}
	}
	if v := call.Args[3].Value.(AddressValue); v.Value != to {
		t.Fatalf("to mismatch: %s", v.Value.Hex())
	}
	if v := call.Args[4].Value.(IntValue); v.Value.Int64() != -15 {
		t.Fatalf("tick mismatch: %s", v.Value)
	}
}

func TestDecodeCallTuples(t *testing.T) {
	f := mustSignature(t, KindFunction, "route((address pool, uint256 amount) leg, (string label, uint256 id) tag)")
	pool := common.HexToAddress("0x3333333333333333333333333333333333333333")

	data := calldata(f.Selector(),
		common.LeftPadBytes(pool.Bytes(), 32),
		wordUint(500),
		wordUint(96), // offset of the dynamic tuple, after three head words
		wordUint(64), // tuple head: string offset relative to the tuple
		wordUint(7),
		wordUint(2),
		common.RightPadBytes([]byte("hi"), 32),
	)

	call, err := DecodeCallWith(data, f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	leg := call.Args[0].Value.(TupleValue)
	if len(leg.Fields) != 2 || leg.Fields[0].Name != "pool" {
		t.Fatalf("leg fields mismatch: %+v", leg.Fields)
	}
	if leg.Fields[0].Value.(AddressValue).Value != pool {
		t.Fatalf("pool mismatch")
	}
	tag := call.Args[1].Value.(TupleValue)
	if tag.Fields[0].Value.(StringValue).Value != "hi" || tag.Fields[1].Value.(UintValue).Value.Int64() != 7 {
		t.Fatalf("tag mismatch: %+v", tag.Fields)
	}
	if tag.Type() != "(string,uint256)" {
		t.Fatalf("tag type mismatch: %s", tag.Type())
	}
}

func TestDecodeCallTruncated(t *testing.T) {
	f := mustSignature(t, KindFunction, "transfer(address to, uint256 amount)")
	data := calldata(f.Selector(), wordUint(1), wordUint(1000))[:4+40]

	_, err := DecodeCallWith(data, f)
	if !errors.Is(err, ErrTruncatedData) {
		t.Fatalf("expected truncated data, got %v", err)
	}
	var decodeErr *Error
	if !errors.As(err, &decodeErr) || decodeErr.Offset != 36 || decodeErr.Type != "uint256" {
		t.Fatalf("unexpected error context: %+v", decodeErr)
	}

	if _, err := DecodeCall([]byte{0xa9, 0x05}, []Fragment{f}); !errors.Is(err, ErrTruncatedData) {
		t.Fatalf("expected truncated selector, got %v", err)
	}
}

func TestDecodeCallOversizedLength(t *testing.T) {
	f := mustSignature(t, KindFunction, "f(bytes data)")
	data := calldata(f.Selector(), wordUint(32), wordUint(1<<40))

	if _, err := DecodeCallWith(data, f); !errors.Is(err, ErrTruncatedData) {
		t.Fatalf("expected truncated data, got %v", err)
	}
}

func TestDecodeCallOffsetOutOfRange(t *testing.T) {
	f := mustSignature(t, KindFunction, "f(bytes data)")
	data := calldata(f.Selector(), wordUint(0x1000), wordUint(0))

	_, err := DecodeCallWith(data, f)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}

	huge := calldata(f.Selector(), bytes.Repeat([]byte{0xff}, 32))
	if _, err := DecodeCallWith(huge, f); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch for huge offset, got %v", err)
	}
}

func TestDecodeCallOffsetIntoHead(t *testing.T) {
	f := mustSignature(t, KindFunction, "f(uint256 a, bytes data)")
	data := calldata(f.Selector(), wordUint(1), wordUint(0), wordUint(0))

	_, err := DecodeCallWith(data, f)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	var decodeErr *Error
	if !errors.As(err, &decodeErr) || decodeErr.Offset != 36 {
		t.Fatalf("unexpected error context: %+v", decodeErr)
	}
}

func TestDecodeCallStrictWords(t *testing.T) {
	cases := []struct {
		signature string
		word      []byte
	}{
		{"f(bool)", wordUint(2)},
		{"f(uint8)", wordUint(256)},
		{"f(address)", bytes.Repeat([]byte{0x01}, 32)},
		{"f(bytes4)", bytes.Repeat([]byte{0x01}, 32)},
		{"f(int8)", wordUint(200)},
	}
	for _, tc := range cases {
		f := mustSignature(t, KindFunction, tc.signature)
		if _, err := DecodeCallWith(calldata(f.Selector(), tc.word), f); !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("%s: expected type mismatch, got %v", tc.signature, err)
		}
	}
}

func TestDecodeCallSignedIntegers(t *testing.T) {
	f := mustSignature(t, KindFunction, "f(int8 a, int256 b)")
	data := calldata(f.Selector(), bytes.Repeat([]byte{0xff}, 32), bytes.Repeat([]byte{0xff}, 32))

	call, err := DecodeCallWith(data, f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i, arg := range call.Args {
		if v := arg.Value.(IntValue); v.Value.Int64() != -1 {
			t.Fatalf("arg %d: expected -1, got %s", i, v.Value)
		}
	}
}

func TestDecodeCallNoSelector(t *testing.T) {
	fragments, _ := WellKnownFragments()
	_, err := DecodeCall(hexutil.MustDecode("0xdeadbeef"), fragments)
	if !errors.Is(err, ErrNoMatchingSelector) {
		t.Fatalf("expected no matching selector, got %v", err)
	}
}

func TestDecodeCallAmbiguous(t *testing.T) {
	burn := mustSignature(t, KindFunction, "burn(uint256)")
	clash := mustSignature(t, KindFunction, "collate_propagate_storage(bytes16)")
	if burn.Selector() != clash.Selector() {
		t.Fatalf("expected colliding selectors")
	}

	data := calldata(burn.Selector(), wordUint(1))
	_, err := DecodeCall(data, []Fragment{burn, clash})
	if !errors.Is(err, ErrAmbiguousSelector) {
		t.Fatalf("expected ambiguous selector, got %v", err)
	}
	var ambiguous *AmbiguousError
	if !errors.As(err, &ambiguous) || len(ambiguous.Candidates) != 2 {
		t.Fatalf("expected both candidates, got %+v", ambiguous)
	}

	call, err := DecodeCallWith(data, ambiguous.Candidates[0])
	if err != nil {
		t.Fatalf("decode with chosen candidate: %v", err)
	}
	if call.Fragment.Name != "burn" {
		t.Fatalf("unexpected candidate: %s", call.Fragment.Name)
	}
}

func TestMatchCallCollapsesIdenticalSignatures(t *testing.T) {
	fragments, _ := WellKnownFragments()
	f := mustSignature(t, KindFunction, "transferFrom(address,address,uint256)")

	matches := MatchCall(calldata(f.Selector()), append(fragments, f))
	if len(matches) != 1 {
		t.Fatalf("expected a single match, got %d", len(matches))
	}
}

func TestDecodeCallOversizedFixedArray(t *testing.T) {
	signatures := []string{
		"f(uint256[100000000000000])",
		"f(uint256[1099511627776][1099511627776])",
		"f((uint256,uint256[1099511627776]))",
		"f(string[100000000000000])",
	}
	for _, sig := range signatures {
		f := mustSignature(t, KindFunction, sig)
		data := calldata(f.Selector(), wordUint(32), wordUint(0))
		if _, err := DecodeCallWith(data, f); !errors.Is(err, ErrTruncatedData) {
			t.Fatalf("%s: expected truncated data, got %v", sig, err)
		}
	}
}

func TestDecodeCallAliasedTails(t *testing.T) {
	f := mustSignature(t, KindFunction, "f(uint256[][][] grid)")

	// Every level holds three offsets pointing at one shared tail.
	data := calldata(f.Selector(),
		wordUint(32),
		wordUint(3), wordUint(96), wordUint(96), wordUint(96),
		wordUint(3), wordUint(96), wordUint(96), wordUint(96),
		wordUint(3), wordUint(1), wordUint(2), wordUint(3),
	)
	if _, err := DecodeCallWith(data, f); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch for aliased offsets, got %v", err)
	}

	typ, err := abi.NewType("uint256[][][]", "", nil)
	if err != nil {
		t.Fatalf("new type: %v", err)
	}
	grid := [][][]*big.Int{
		{{big.NewInt(1), big.NewInt(2)}},
		{{}, {big.NewInt(3)}},
	}
	packed, err := abi.Arguments{{Type: typ}}.Pack(grid)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	call, err := DecodeCallWith(calldata(f.Selector(), packed), f)
	if err != nil {
		t.Fatalf("decode well-formed grid: %v", err)
	}
	outer := call.Args[0].Value.(ArrayValue)
	if len(outer.Elems) != 2 || len(outer.Elems[1].(ArrayValue).Elems) != 2 {
		t.Fatalf("grid shape mismatch: %+v", outer)
	}
	last := outer.Elems[1].(ArrayValue).Elems[1].(ArrayValue).Elems[0].(UintValue)
	if last.Value.Int64() != 3 {
		t.Fatalf("grid value mismatch: %s", last.Value)
	}
}
