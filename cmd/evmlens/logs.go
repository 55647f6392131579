package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evmlens/internal/chain"
	"evmlens/internal/config"
	"evmlens/internal/indexer"
	"evmlens/internal/sigdb"
)

func newLogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Scan and decode contract logs in a block range",
		RunE:  runLogs,
	}
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().Uint64("from", 0, "start block (inclusive)")
	cmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	cmd.Flags().StringSlice("address", nil, "contract addresses (comma-separated)")
	cmd.Flags().StringSlice("topic0", nil, "topic0 filters (comma-separated)")
	cmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	cmd.Flags().String("abi", "", "JSON interface description; built-in fragments when empty")
	cmd.Flags().String("out", "./data/decoded_logs.jsonl", "output decoded logs JSONL (- for stdout)")
	cmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().Bool("skip-timestamps", false, "do not fetch block timestamps")
	cmd.Flags().Bool("keep-raw", false, "attach topic0 and data to decoded records")
	cmd.Flags().Bool("skip-unknown", false, "skip logs no signature matches")
	cmd.Flags().String("int-base", "decimal", "integer rendering (decimal, hex, binary)")
	addSigdbFlags(cmd.Flags())
	addLogLevelFlag(cmd.Flags())
	return cmd
}

func runLogs(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	addresses, err := indexer.ParseAddresses(cfg.Addresses)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("address list is required")
	}

	topic0, err := indexer.ParseHashes(cfg.Topic0)
	if err != nil {
		return err
	}

	opts, err := renderOptions(cfg.IntBase)
	if err != nil {
		return err
	}
	fragments, err := loadFragments(cfg.ABI)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	db, closeDB, err := openSigdb(ctx, cfg.Sigdb, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	sink, closeSink, err := openJsonlStorage(cfg.Out, cfg.Errors)
	if err != nil {
		return err
	}
	defer closeSink()

	recordDecoder := indexer.NewRecordDecoder(sigdb.NewResolver(fragments, db), indexer.DecodeOptions{
		Render:      opts,
		KeepRaw:     cfg.KeepRaw,
		SkipUnknown: cfg.SkipUnknown,
	})

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:      cfg.FromBlock,
		ToBlock:        cfg.ToBlock,
		Addresses:      addresses,
		Topic0:         topic0,
		BatchSize:      cfg.BatchSize,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
		SkipTimestamps: cfg.SkipTimestamps,
	}, chainClient, recordDecoder, sink, logger)

	logger.Info("log scan start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("addresses", len(addresses)),
		zap.Int("topic0", len(topic0)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
	)

	stats, err := runner.Run(ctx)
	logCacheStats(logger, db)
	if err != nil {
		return err
	}

	logger.Info("log scan complete",
		zap.Int("total", stats.Total),
		zap.Int("decoded", stats.Decoded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return nil
}
