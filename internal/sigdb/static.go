package sigdb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"evmlens/internal/decoder"
)

var builtinFunctions = []string{
	"transfer(address,uint256)",
	"transferFrom(address,address,uint256)",
	"approve(address,uint256)",
	"balanceOf(address)",
	"allowance(address,address)",
	"totalSupply()",
	"decimals()",
	"symbol()",
	"name()",
	"owner()",
	"ownerOf(uint256)",
	"safeTransferFrom(address,address,uint256)",
	"safeTransferFrom(address,address,uint256,bytes)",
	"setApprovalForAll(address,bool)",
	"isApprovedForAll(address,address)",
	"getApproved(uint256)",
	"tokenURI(uint256)",
	"supportsInterface(bytes4)",
	"mint(address,uint256)",
	"burn(uint256)",
	"deposit()",
	"withdraw(uint256)",
	"multicall(bytes[])",
	"transferOwnership(address)",
	"renounceOwnership()",
	"permit(address,address,uint256,uint256,uint8,bytes32,bytes32)",
	"nonces(address)",
	"DOMAIN_SEPARATOR()",
	"swap(uint256,uint256,address,bytes)",
	"getReserves()",
	"token0()",
	"token1()",
	"factory()",
	"slot0()",
	"liquidity()",
	"swapExactTokensForTokens(uint256,uint256,address[],address,uint256)",
	"swapExactETHForTokens(uint256,address[],address,uint256)",
	"addLiquidity(address,address,uint256,uint256,uint256,uint256,address,uint256)",
	"exactInputSingle((address,address,uint24,address,uint256,uint256,uint256,uint160))",
	"execute(bytes,bytes[],uint256)",
}

var builtinEvents = []string{
	"Transfer(address,address,uint256)",
	"Approval(address,address,uint256)",
	"ApprovalForAll(address,address,bool)",
	"OwnershipTransferred(address,address)",
	"Deposit(address,uint256)",
	"Withdrawal(address,uint256)",
	"Sync(uint112,uint112)",
	"Swap(address,uint256,uint256,uint256,uint256,address)",
	"Swap(address,address,int256,int256,uint160,uint128,int24)",
	"Mint(address,uint256,uint256)",
	"Burn(address,uint256,uint256,address)",
	"PairCreated(address,address,address,uint256)",
	"Upgraded(address)",
	"Paused(address)",
	"Unpaused(address)",
}

// Static is an in-memory signature dataset.
type Static struct {
	mu        sync.RWMutex
	selectors map[[4]byte][]string
	events    map[common.Hash][]string
}

// NewStatic returns an empty dataset.
func NewStatic() *Static {
	return &Static{
		selectors: make(map[[4]byte][]string),
		events:    make(map[common.Hash][]string),
	}
}

// NewBuiltin returns a dataset seeded with common token, NFT and DEX signatures.
func NewBuiltin() *Static {
	s := NewStatic()
	for _, sig := range builtinFunctions {
		if err := s.AddSignature(KindFunction, sig); err != nil {
			panic(fmt.Sprintf("builtin signature %q: %v", sig, err))
		}
	}
	for _, sig := range builtinEvents {
		if err := s.AddSignature(KindEvent, sig); err != nil {
			panic(fmt.Sprintf("builtin signature %q: %v", sig, err))
		}
	}
	return s
}

// AddSignature parses a text signature and indexes it under its hash.
func (s *Static) AddSignature(kind Kind, text string) error {
	f, err := decoder.ParseSignature(decoder.Kind(kind), text)
	if err != nil {
		return err
	}
	switch kind {
	case KindFunction:
		s.addSelector(f.Selector(), f.Signature())
	case KindEvent:
		s.addEvent(f.Topic(), f.Signature())
	default:
		return fmt.Errorf("unknown signature kind %q", kind)
	}
	return nil
}

// AddEntry indexes a pre-hashed record as found in imported datasets.
func (s *Static) AddEntry(e Entry) error {
	data, err := hexutil.Decode(strings.TrimSpace(e.Hash))
	if err != nil {
		return fmt.Errorf("entry %q: invalid hash: %w", e.Signature, err)
	}
	switch e.Kind {
	case KindFunction:
		if len(data) != 4 {
			return fmt.Errorf("entry %q: selector must be 4 bytes", e.Signature)
		}
		var sel [4]byte
		copy(sel[:], data)
		s.addSelector(sel, e.Signature)
	case KindEvent:
		if len(data) != common.HashLength {
			return fmt.Errorf("entry %q: topic must be 32 bytes", e.Signature)
		}
		s.addEvent(common.BytesToHash(data), e.Signature)
	default:
		return fmt.Errorf("entry %q: unknown kind %q", e.Signature, e.Kind)
	}
	return nil
}

// Entries returns every record in the dataset.
func (s *Static) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.selectors)+len(s.events))
	for sel, sigs := range s.selectors {
		for _, sig := range sigs {
			out = append(out, Entry{Kind: KindFunction, Hash: hexutil.Encode(sel[:]), Signature: sig})
		}
	}
	for topic, sigs := range s.events {
		for _, sig := range sigs {
			out = append(out, Entry{Kind: KindEvent, Hash: topic.Hex(), Signature: sig})
		}
	}
	return out
}

func (s *Static) LookupSelector(_ context.Context, selector [4]byte) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selectors[selector]...), nil
}

func (s *Static) LookupEvent(_ context.Context, topic common.Hash) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.events[topic]...), nil
}

func (s *Static) addSelector(sel [4]byte, sig string) {
	s.mu.Lock()
	s.selectors[sel] = uniqueSorted(append(s.selectors[sel], sig))
	s.mu.Unlock()
}

func (s *Static) addEvent(topic common.Hash, sig string) {
	s.mu.Lock()
	s.events[topic] = uniqueSorted(append(s.events[topic], sig))
	s.mu.Unlock()
}
