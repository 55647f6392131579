package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"evmlens/internal/blocktime"
	"evmlens/internal/trace"
)

// Client wraps go-ethereum RPC and provides the lookups the decoders need.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// FetchBlock returns the number and timestamp of a block, or nil when the
// node does not know the block. It satisfies blocktime.FetchBlockFunc.
func (c *Client) FetchBlock(ctx context.Context, number uint64) (*blocktime.Block, error) {
	ts, err := c.BlockTimestamp(ctx, number)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &blocktime.Block{Number: number, Timestamp: ts}, nil
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// CodeAt returns the runtime bytecode of a contract at the latest block.
func (c *Client) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	return c.ethClient.CodeAt(ctx, address, nil)
}

// FilterLogs returns logs in the given range for addresses and topic0 filters.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}
	return c.ethClient.FilterLogs(ctx, query)
}

// TransactionInput returns the calldata and recipient of a transaction.
func (c *Client) TransactionInput(ctx context.Context, hash common.Hash) ([]byte, *common.Address, error) {
	tx, _, err := c.ethClient.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, nil, err
	}
	return tx.Data(), tx.To(), nil
}

// TransactionLogs returns the logs emitted by a mined transaction.
func (c *Client) TransactionLogs(ctx context.Context, hash common.Hash) ([]types.Log, error) {
	receipt, err := c.ethClient.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	logs := make([]types.Log, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		if l != nil {
			logs = append(logs, *l)
		}
	}
	return logs, nil
}

// CallContract executes a read-only call. A nil block means latest.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, block)
}

// TraceTransaction replays a mined transaction with the node's call tracer.
// The node must expose the debug namespace.
func (c *Client) TraceTransaction(ctx context.Context, hash common.Hash) (*trace.CallFrame, error) {
	var frame *trace.CallFrame
	err := c.rpcClient.CallContext(ctx, &frame, "debug_traceTransaction", hash, map[string]interface{}{
		"tracer": trace.TracerName,
	})
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, ethereum.NotFound
	}
	return frame, nil
}
