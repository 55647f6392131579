package decoder

import (
	"errors"
	"testing"
)

func TestParseInterface(t *testing.T) {
	description := []byte(`[
		{"type": "constructor", "inputs": [{"name": "owner", "type": "address"}]},
		{"type": "event", "name": "Transfer", "inputs": [
			{"name": "from", "type": "address", "indexed": true},
			{"name": "to", "type": "address", "indexed": true},
			{"name": "value", "type": "uint256"}
		]},
		{"name": "transfer", "inputs": [{"name": "to", "type": "address"}, {"name": "amount", "type": "uint"}]},
		{"type": "fallback"}
	]`)

	fragments, err := ParseInterface(description)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(fragments))
	}

	transfer := fragments[0]
	if transfer.Kind != KindFunction || transfer.Signature() != "transfer(address,uint256)" {
		t.Fatalf("unexpected function fragment: %s", transfer)
	}
	if got := SelectorHex(transfer.Selector()); got != "0xa9059cbb" {
		t.Fatalf("selector mismatch: %s", got)
	}

	event := fragments[1]
	if event.Kind != KindEvent || event.IndexedCount() != 2 {
		t.Fatalf("unexpected event fragment: %s", event)
	}
	if got := event.Topic().Hex(); got != "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef" {
		t.Fatalf("topic mismatch: %s", got)
	}
}

func TestParseInterfaceMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"type": "function"`,
		"no name":      `[{"type": "function", "inputs": []}]`,
		"bad type":     `[{"type": "function", "name": "f", "inputs": [{"name": "x", "type": "uint7"}]}]`,
		"unknown type": `[{"type": "function", "name": "f", "inputs": [{"name": "x", "type": "money"}]}]`,
	}
	for name, description := range cases {
		if _, err := ParseInterface([]byte(description)); !errors.Is(err, ErrMalformedAbi) {
			t.Fatalf("%s: expected malformed abi, got %v", name, err)
		}
	}
}

func TestParseSignature(t *testing.T) {
	f, err := ParseSignature(KindEvent, "event Transfer(address indexed from, address indexed to, uint256 value)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Name != "Transfer" || f.Signature() != "Transfer(address,address,uint256)" {
		t.Fatalf("unexpected fragment: %s", f)
	}
	if !f.Params[0].Indexed || !f.Params[1].Indexed || f.Params[2].Indexed {
		t.Fatalf("indexed flags mismatch: %s", f)
	}
	if f.Params[2].Name != "value" {
		t.Fatalf("param name mismatch: %q", f.Params[2].Name)
	}
}

func TestParseSignatureTuples(t *testing.T) {
	f, err := ParseSignature(KindFunction, "function swap((address token, uint256 amount)[] calldata legs, tuple(bytes, uint) memory extra, bytes32[2] ids)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := "swap((address,uint256)[],(bytes,uint256),bytes32[2])"
	if f.Signature() != want {
		t.Fatalf("signature mismatch: %s != %s", f.Signature(), want)
	}
	if f.Params[0].Name != "legs" || f.Params[1].Name != "extra" {
		t.Fatalf("param names mismatch: %s", f)
	}
	elem := f.Params[0].Type.Elem
	if elem == nil || len(elem.TupleRawNames) != 2 || elem.TupleRawNames[0] != "token" {
		t.Fatalf("tuple component names not kept")
	}
}

func TestParseSignatureMalformed(t *testing.T) {
	cases := []struct {
		kind Kind
		text string
	}{
		{KindFunction, "transfer(address,)"},
		{KindFunction, "transfer(address"},
		{KindFunction, "(address)"},
		{KindFunction, "f(uint7)"},
		{KindFunction, "f(bytes33)"},
		{KindFunction, "f(uint256[0])"},
		{KindFunction, "f(address indexed who)"},
		{KindFunction, "f(address a b)"},
	}
	for _, tc := range cases {
		if _, err := ParseSignature(tc.kind, tc.text); !errors.Is(err, ErrMalformedAbi) {
			t.Fatalf("%q: expected malformed abi, got %v", tc.text, err)
		}
	}
}

func TestParseSignaturesStopsAtFirstError(t *testing.T) {
	_, err := ParseSignatures(KindFunction, []string{"ok(uint256)", "broken(", "never(bool)"})
	if !errors.Is(err, ErrMalformedAbi) {
		t.Fatalf("expected malformed abi, got %v", err)
	}
}

func TestWellKnownFragments(t *testing.T) {
	fragments, err := WellKnownFragments()
	if err != nil {
		t.Fatalf("builtin fragments: %v", err)
	}
	again, _ := WellKnownFragments()
	if len(fragments) == 0 || len(again) != len(fragments) {
		t.Fatalf("unexpected builtin fragment count: %d", len(fragments))
	}

	transfers := 0
	for _, f := range fragments {
		if f.Kind == KindEvent && f.Name == "Transfer" {
			transfers++
		}
	}
	if transfers != 2 {
		t.Fatalf("expected ERC-20 and ERC-721 Transfer, got %d", transfers)
	}
}
