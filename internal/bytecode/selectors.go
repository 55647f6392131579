package bytecode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"golang.org/x/sync/errgroup"

	"evmlens/internal/decoder"
)

const (
	// minDispatcherSize is the shortest code that can load, shift, compare and
	// branch on a selector.
	minDispatcherSize = 13

	compareWindow = 3
	jumpWindow    = 3
	logWindow     = 48

	defaultLookupConcurrency = 8
)

// Candidates are selector and event topic literals found in bytecode.
type Candidates struct {
	Selectors [][4]byte
	Events    []common.Hash
}

// ScanSelectors looks for dispatcher comparisons and event topic literals.
// A selector candidate is a PUSH4 compared by EQ, XOR, SUB, GT or LT and
// followed by a JUMPI, once CALLDATALOAD has been seen. Selectors with leading
// zero bytes are pushed with PUSH1..PUSH3 and only count when compared by EQ. An event candidate is
// a PUSH32 consumed by LOG1..LOG4 shortly after. The result is approximate:
// compilers and hand-written code are free to dispatch differently.
func ScanSelectors(code []byte) Candidates {
	var out Candidates
	if len(code) < minDispatcherSize {
		return out
	}

	ins := Instructions(code)
	seenSel := make(map[[4]byte]struct{})
	seenTopic := make(map[common.Hash]struct{})
	calldataLoaded := false

	for i, in := range ins {
		switch {
		case in.Op == vm.CALLDATALOAD:
			calldataLoaded = true

		case in.Op >= vm.PUSH1 && in.Op <= vm.PUSH4 && calldataLoaded && !in.Truncated:
			if !comparedThenBranched(ins, i+1, in.Op != vm.PUSH4) {
				continue
			}
			var sel [4]byte
			in.OperandInt().FillBytes(sel[:])
			if _, ok := seenSel[sel]; ok {
				continue
			}
			seenSel[sel] = struct{}{}
			out.Selectors = append(out.Selectors, sel)

		case in.Op == vm.PUSH32 && !in.Truncated:
			if !plausibleTopic(in.Operand) || !loggedWithin(ins, i+1) {
				continue
			}
			topic := common.BytesToHash(in.Operand)
			if _, ok := seenTopic[topic]; ok {
				continue
			}
			seenTopic[topic] = struct{}{}
			out.Events = append(out.Events, topic)
		}
	}
	return out
}

func comparedThenBranched(ins []Opcode, from int, eqOnly bool) bool {
	i := from
	for steps := 0; i < len(ins) && steps < compareWindow; i, steps = i+1, steps+1 {
		op := ins[i].Op
		if isCompare(op) {
			break
		}
		if !isDupOrSwap(op) {
			return false
		}
	}
	if i >= len(ins) || !isCompare(ins[i].Op) {
		return false
	}
	if eqOnly && ins[i].Op != vm.EQ {
		return false
	}
	for j := i + 1; j < len(ins) && j <= i+jumpWindow; j++ {
		if ins[j].Op == vm.JUMPI {
			return true
		}
	}
	return false
}

func loggedWithin(ins []Opcode, from int) bool {
	for j := from; j < len(ins) && j < from+logWindow; j++ {
		op := ins[j].Op
		if op >= vm.LOG1 && op <= vm.LOG4 {
			return true
		}
		if isHalting(op) {
			return false
		}
	}
	return false
}

// plausibleTopic filters out masks and small constants that are pushed as 32
// byte literals.
func plausibleTopic(b []byte) bool {
	return !bytes.Equal(b[:4], []byte{0, 0, 0, 0}) && !bytes.Equal(b[:4], []byte{0xff, 0xff, 0xff, 0xff})
}

func isCompare(op vm.OpCode) bool {
	switch op {
	case vm.EQ, vm.XOR, vm.SUB, vm.GT, vm.LT:
		return true
	}
	return false
}

func isDupOrSwap(op vm.OpCode) bool {
	return (op >= vm.DUP1 && op <= vm.DUP16) || (op >= vm.SWAP1 && op <= vm.SWAP16)
}

// SignatureLookup resolves selectors and event topics to text signatures.
// No match is an empty result, not an error.
type SignatureLookup interface {
	LookupSelector(ctx context.Context, selector [4]byte) ([]string, error)
	LookupEvent(ctx context.Context, topic common.Hash) ([]string, error)
}

// FunctionEntry is a recovered function selector and its candidate signatures.
type FunctionEntry struct {
	Selector   [4]byte  `json:"-"`
	Signatures []string `json:"signatures"`
	Error      string   `json:"error,omitempty"`
}

// Ambiguous reports whether several signatures share the selector.
func (e FunctionEntry) Ambiguous() bool {
	return len(e.Signatures) > 1
}

func (e FunctionEntry) MarshalJSON() ([]byte, error) {
	type entry FunctionEntry
	return json.Marshal(struct {
		Selector string `json:"selector"`
		Display  string `json:"display"`
		entry
	}{decoder.SelectorHex(e.Selector), e.String(), entry(e)})
}

func (e FunctionEntry) String() string {
	switch len(e.Signatures) {
	case 0:
		return fmt.Sprintf("unknown(%s)", decoder.SelectorHex(e.Selector))
	case 1:
		return e.Signatures[0]
	default:
		return fmt.Sprintf("%s (ambiguous: %d candidates)", e.Signatures[0], len(e.Signatures))
	}
}

// EventEntry is a recovered event topic and its candidate signatures.
type EventEntry struct {
	Topic      common.Hash `json:"topic"`
	Signatures []string    `json:"signatures"`
	Error      string      `json:"error,omitempty"`
}

func (e EventEntry) Ambiguous() bool {
	return len(e.Signatures) > 1
}

func (e EventEntry) String() string {
	if len(e.Signatures) == 0 {
		return fmt.Sprintf("unknown(%s)", e.Topic.Hex())
	}
	return e.Signatures[0]
}

// ContractInterface is the recovered function and event surface of a contract.
type ContractInterface struct {
	Functions []FunctionEntry `json:"functions"`
	Events    []EventEntry    `json:"events"`
}

// Fragments parses every candidate signature into decoder fragments.
// Signatures that do not parse are skipped.
func (c ContractInterface) Fragments() []decoder.Fragment {
	var out []decoder.Fragment
	for _, fn := range c.Functions {
		for _, sig := range fn.Signatures {
			if f, err := decoder.ParseSignature(decoder.KindFunction, sig); err == nil {
				out = append(out, f)
			}
		}
	}
	for _, ev := range c.Events {
		for _, sig := range ev.Signatures {
			if f, err := decoder.ParseSignature(decoder.KindEvent, sig); err == nil {
				out = append(out, f)
			}
		}
	}
	return out
}

type recoverOptions struct {
	concurrency int
}

// RecoverOption configures RecoverSelectors.
type RecoverOption func(*recoverOptions)

// WithConcurrency bounds the number of lookups in flight.
func WithConcurrency(n int) RecoverOption {
	return func(o *recoverOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// RecoverSelectors scans code and resolves each candidate through lookup.
// It never fails: lookup errors are recorded on the entry they belong to.
func RecoverSelectors(ctx context.Context, code []byte, lookup SignatureLookup, opts ...RecoverOption) ContractInterface {
	o := recoverOptions{concurrency: defaultLookupConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	candidates := ScanSelectors(code)
	iface := ContractInterface{
		Functions: make([]FunctionEntry, len(candidates.Selectors)),
		Events:    make([]EventEntry, len(candidates.Events)),
	}

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i, sel := range candidates.Selectors {
		i, sel := i, sel
		iface.Functions[i].Selector = sel
		if lookup == nil {
			continue
		}
		g.Go(func() error {
			sigs, err := lookup.LookupSelector(ctx, sel)
			iface.Functions[i].Signatures = sigs
			if err != nil {
				iface.Functions[i].Error = err.Error()
			}
			return nil
		})
	}
	for i, topic := range candidates.Events {
		i, topic := i, topic
		iface.Events[i].Topic = topic
		if lookup == nil {
			continue
		}
		g.Go(func() error {
			sigs, err := lookup.LookupEvent(ctx, topic)
			iface.Events[i].Signatures = sigs
			if err != nil {
				iface.Events[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	return iface
}
