package bytecode

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"evmlens/internal/decoder"
)

const transferTopicHex = "ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

// dispatcherCode is a minimal solc-style dispatcher with three selectors and a
// function body emitting Transfer.
var dispatcherCode = hexutil.MustDecode("0x" +
	"6080604052" + // PUSH1 0x80 PUSH1 0x40 MSTORE
	"600035" + // PUSH1 0 CALLDATALOAD
	"60e01c" + // PUSH1 0xe0 SHR
	"8063a9059cbb14610030" + "57" + // DUP1 PUSH4 EQ PUSH2 JUMPI
	"806370a0823114610040" + "57" +
	"80631234567814610050" + "57" +
	"00" + // STOP
	"5b" + // JUMPDEST
	"7f" + transferTopicHex +
	"60206000" + "a1" + // PUSH1 0x20 PUSH1 0 LOG1
	"00")

func TestScanSelectors(t *testing.T) {
	got := ScanSelectors(dispatcherCode)

	wantSelectors := []string{"0xa9059cbb", "0x70a08231", "0x12345678"}
	if len(got.Selectors) != len(wantSelectors) {
		t.Fatalf("expected %d selectors, got %d", len(wantSelectors), len(got.Selectors))
	}
	for i, want := range wantSelectors {
		if decoder.SelectorHex(got.Selectors[i]) != want {
			t.Fatalf("selector %d mismatch: %s", i, decoder.SelectorHex(got.Selectors[i]))
		}
	}
	if len(got.Events) != 1 || got.Events[0] != common.HexToHash(transferTopicHex) {
		t.Fatalf("event mismatch: %v", got.Events)
	}
}

func TestScanSelectorsShortPush(t *testing.T) {
	code := hexutil.MustDecode("0x" +
		"600035" + "60e01c" + // PUSH1 0 CALLDATALOAD PUSH1 0xe0 SHR
		"8062fdd58e14610030" + "57" + // DUP1 PUSH3 EQ PUSH2 JUMPI
		"80600114610040" + "57" + // DUP1 PUSH1 EQ PUSH2 JUMPI
		"80601f11610050" + "57" + // DUP1 PUSH1 GT PUSH2 JUMPI
		"00")

	got := ScanSelectors(code)
	want := []string{"0x00fdd58e", "0x00000001"}
	if len(got.Selectors) != len(want) {
		t.Fatalf("expected %d selectors, got %v", len(want), got.Selectors)
	}
	for i, w := range want {
		if decoder.SelectorHex(got.Selectors[i]) != w {
			t.Fatalf("selector %d mismatch: %s", i, decoder.SelectorHex(got.Selectors[i]))
		}
	}
}

func TestScanSelectorsRequiresCalldataLoad(t *testing.T) {
	code := hexutil.MustDecode("0x" + "6000" + "8063a9059cbb14610030" + "57" + "00")
	if got := ScanSelectors(code); len(got.Selectors) != 0 {
		t.Fatalf("expected no selectors, got %v", got.Selectors)
	}
}

func TestScanSelectorsShortCode(t *testing.T) {
	code := hexutil.MustDecode("0x600035" + "63a9059cbb14" + "57")
	if len(code) >= minDispatcherSize {
		t.Fatalf("fixture too long: %d", len(code))
	}
	if got := ScanSelectors(code); len(got.Selectors) != 0 || len(got.Events) != 0 {
		t.Fatalf("expected nothing from short code, got %+v", got)
	}
}

type fakeLookup struct {
	selectors map[string][]string
	events    map[common.Hash][]string
	failing   map[string]bool
	calls     int32
}

func (f *fakeLookup) LookupSelector(_ context.Context, selector [4]byte) ([]string, error) {
	atomic.AddInt32(&f.calls, 1)
	key := decoder.SelectorHex(selector)
	if f.failing[key] {
		return nil, errors.New("lookup unavailable")
	}
	return f.selectors[key], nil
}

func (f *fakeLookup) LookupEvent(_ context.Context, topic common.Hash) ([]string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.events[topic], nil
}

func TestRecoverSelectors(t *testing.T) {
	lookup := &fakeLookup{
		selectors: map[string][]string{
			"0xa9059cbb": {"transfer(address,uint256)", "many_msg_babbage(bytes1)"},
			"0x70a08231": {"balanceOf(address)"},
		},
		events: map[common.Hash][]string{
			common.HexToHash(transferTopicHex): {"Transfer(address,address,uint256)"},
		},
		failing: map[string]bool{"0x12345678": true},
	}

	iface := RecoverSelectors(context.Background(), dispatcherCode, lookup, WithConcurrency(2))

	if len(iface.Functions) != 3 || len(iface.Events) != 1 {
		t.Fatalf("unexpected interface size: %+v", iface)
	}
	if !iface.Functions[0].Ambiguous() || len(iface.Functions[0].Signatures) != 2 {
		t.Fatalf("expected ambiguous entry: %+v", iface.Functions[0])
	}
	if iface.Functions[1].String() != "balanceOf(address)" || iface.Functions[1].Ambiguous() {
		t.Fatalf("expected resolved entry: %+v", iface.Functions[1])
	}
	unknown := iface.Functions[2]
	if unknown.String() != "unknown(0x12345678)" || unknown.Error == "" {
		t.Fatalf("expected unknown entry with error: %+v", unknown)
	}
	if iface.Events[0].String() != "Transfer(address,address,uint256)" {
		t.Fatalf("event mismatch: %+v", iface.Events[0])
	}
	if lookup.calls != 4 {
		t.Fatalf("expected 4 lookups, got %d", lookup.calls)
	}

	fragments := iface.Fragments()
	if len(fragments) != 4 {
		t.Fatalf("expected 4 fragments, got %d", len(fragments))
	}

	b, err := json.Marshal(iface.Functions[2])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"selector":"0x12345678"`) || !strings.Contains(string(b), `"display":"unknown(0x12345678)"`) {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestRecoverSelectorsWithoutLookup(t *testing.T) {
	iface := RecoverSelectors(context.Background(), dispatcherCode, nil)
	if len(iface.Functions) != 3 {
		t.Fatalf("expected 3 functions, got %d", len(iface.Functions))
	}
	for _, fn := range iface.Functions {
		if !strings.HasPrefix(fn.String(), "unknown(0x") {
			t.Fatalf("expected unknown entry, got %s", fn)
		}
	}
}
