package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evmlens/internal/blocktime"
	"evmlens/internal/chain"
	"evmlens/internal/config"
	"evmlens/internal/indexer"
)

type blockAtResult struct {
	Timestamp   uint64 `json:"timestamp"`
	Time        string `json:"time"`
	BlockNumber uint64 `json:"block_number"`
	Found       bool   `json:"found"`
}

type blockTimeResult struct {
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp,omitempty"`
	Time        string `json:"time,omitempty"`
	Found       bool   `json:"found"`
}

func newBlockAtCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block-at",
		Short: "Find the last block produced at or before a timestamp",
		RunE:  runBlockAt,
	}
	cmd.Flags().String("timestamp", "", "unix seconds or RFC3339")
	cmd.Flags().String("rpc", "", "RPC URL")
	addLogLevelFlag(cmd.Flags())
	return cmd
}

func runBlockAt(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadInspect(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetString("timestamp")
	target, err := indexer.ParseTimestamp(raw)
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

	ctx, stop := signalContext()
	defer stop()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	latest, err := client.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}

	number, found, err := blocktime.BlockNumberForTimestamp(ctx, target, client.FetchBlock, latest)
	if err != nil {
		return err
	}
	logger.Debug("block search complete", zap.Uint64("target", target), zap.Uint64("latest", latest), zap.Bool("found", found))

	return printJSON(cmd.OutOrStdout(), newBlockAtResult(target, number, found))
}

func newBlockAtResult(target, number uint64, found bool) blockAtResult {
	return blockAtResult{
		Timestamp:   target,
		Time:        formatUnix(target),
		BlockNumber: number,
		Found:       found,
	}
}

func newBlockTimeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block-time",
		Short: "Print the timestamp of a block",
		RunE:  runBlockTime,
	}
	cmd.Flags().Uint64("number", 0, "block number")
	cmd.Flags().String("rpc", "", "RPC URL")
	addLogLevelFlag(cmd.Flags())
	return cmd
}

func runBlockTime(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadInspect(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	number, _ := cmd.Flags().GetUint64("number")

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	ctx, stop := signalContext()
	defer stop()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	ts, found, err := blocktime.TimestampForBlockNumber(ctx, number, client.FetchBlock)
	if err != nil {
		return err
	}

	result := blockTimeResult{BlockNumber: number, Found: found}
	if found {
		result.Timestamp = ts
		result.Time = formatUnix(ts)
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func formatUnix(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}
