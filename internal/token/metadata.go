package token

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"evmlens/internal/convert"
	"evmlens/internal/model"
)

// Caller executes read-only contract calls. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error)
}

// MetaCache loads ERC-20 metadata on first use and caches it by address.
type MetaCache struct {
	caller Caller
	logger *zap.Logger

	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewMetaCache(caller Caller, logger *zap.Logger) *MetaCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaCache{
		caller: caller,
		logger: logger,
		data:   make(map[common.Address]model.TokenMeta),
	}
}

// Get returns cached metadata, fetching it when missing. Failed fetches are
// not cached.
func (c *MetaCache) Get(ctx context.Context, address common.Address) (model.TokenMeta, error) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	if ok {
		return meta, nil
	}

	meta, err := FetchMeta(ctx, c.caller, address, c.logger)
	if err != nil {
		return meta, err
	}

	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
	return meta, nil
}

// FormatAmount renders a raw token amount with the token's decimals.
func (c *MetaCache) FormatAmount(ctx context.Context, address common.Address, amount *big.Int) (string, model.TokenMeta, error) {
	meta, err := c.Get(ctx, address)
	if err != nil {
		return "", meta, err
	}
	return convert.FormatTokenAmount(amount, meta.Decimals), meta, nil
}

// FetchMeta loads decimals, symbol and name through ERC-20 calls. Decimals
// are required; symbol and name are best effort and fall back to bytes32
// return values.
func FetchMeta(ctx context.Context, caller Caller, address common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: address.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := metadataABIInstance()
	if err != nil {
		return meta, fmt.Errorf("parse metadata abi: %w", err)
	}
	legacyABI, err := legacyMetadataABIInstance()
	if err != nil {
		return meta, fmt.Errorf("parse legacy metadata abi: %w", err)
	}

	call := func(parsed abi.ABI, method string) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &address, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("unpack %s: empty result", method)
		}
		return values, nil
	}

	values, err := call(stringABI, "decimals")
	if err != nil {
		return meta, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return meta, fmt.Errorf("decimals: unsupported type %T", values[0])
	}
	meta.Decimals = decimals

	text := func(method string) string {
		if values, err := call(stringABI, method); err == nil {
			if s, ok := values[0].(string); ok {
				return s
			}
		}
		values, err := call(legacyABI, method)
		if err != nil {
			logger.Debug("token metadata call failed", zap.String("token", address.Hex()), zap.String("method", method), zap.Error(err))
			return ""
		}
		if b, ok := values[0].([32]byte); ok {
			return string(bytes.TrimRight(b[:], "\x00"))
		}
		return ""
	}
	meta.Symbol = text("symbol")
	meta.Name = text("name")

	return meta, nil
}
