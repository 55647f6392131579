package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"evmlens/internal/model"
	"evmlens/internal/retry"
	"evmlens/internal/storage"
)

// LogSource is the chain access the runner needs. *chain.Client satisfies it.
type LogSource interface {
	ChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// RunConfig holds runtime settings for a log scan.
type RunConfig struct {
	FromBlock    uint64
	ToBlock      uint64
	Addresses    []common.Address
	Topic0       []common.Hash
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
	// SkipTimestamps leaves record timestamps empty and saves one header
	// fetch per block.
	SkipTimestamps bool
}

// Runner scans logs from the chain, decodes them and writes the results.
type Runner struct {
	cfg     RunConfig
	chain   LogSource
	decoder *RecordDecoder
	storage storage.Storage
	logger  *zap.Logger
	seen    map[string]struct{}
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source LogSource, recordDecoder *RecordDecoder, sink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		chain:   source,
		decoder: recordDecoder,
		storage: sink,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// Run scans the configured range batch by batch. A zero ToBlock means the
// latest block.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if r.chain == nil {
		return stats, fmt.Errorf("chain client is nil")
	}
	if r.decoder == nil {
		return stats, fmt.Errorf("decoder is nil")
	}
	if r.storage == nil {
		return stats, fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return stats, fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Addresses) == 0 {
		return stats, fmt.Errorf("at least one address is required")
	}

	chainID, err := r.chain.ChainID(ctx)
	if err != nil {
		return stats, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return stats, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return stats, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}
	if from > to {
		r.logger.Info("nothing to scan", zap.Uint64("from", from), zap.Uint64("to", to))
		return stats, nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return stats, err
	}

	for _, blockRange := range ranges {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
		if err != nil {
			return stats, fmt.Errorf("filter logs: %w", err)
		}

		ingestedAt := time.Now().UTC()
		records := make([]model.LogRecord, 0, len(logs))
		for _, log := range logs {
			if r.isDuplicate(log) {
				continue
			}

			var ts uint64
			if !r.cfg.SkipTimestamps {
				ts, err = r.blockTimestampWithRetry(ctx, log.BlockNumber)
				if err != nil {
					return stats, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
				}
			}
			records = append(records, model.NewLogRecord(chainIDValue, log, ts, ingestedAt))
		}

		batch, err := r.decoder.DecodeRecords(ctx, records, r.storage)
		stats.add(batch)
		if err != nil {
			return stats, err
		}

		r.logger.Info("batch complete",
			zap.Int("logs", len(records)),
			zap.Int("decoded", batch.Decoded),
			zap.Int("failed", batch.Failed),
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
		)
	}

	return stats, nil
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := retry.Do(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, fromBlock, toBlock, r.cfg.Addresses, r.cfg.Topic0)
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := retry.Do(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
