package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evmlens/internal/chain"
	"evmlens/internal/config"
	"evmlens/internal/indexer"
	"evmlens/internal/sigdb"
	"evmlens/internal/trace"
)

func newTraceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Decode the call trace of a mined transaction",
		RunE:  runTrace,
	}
	cmd.Flags().String("tx", "", "transaction hash")
	cmd.Flags().String("rpc", "", "RPC URL of a node exposing debug_traceTransaction")
	cmd.Flags().String("abi", "", "JSON interface description; built-in fragments when empty")
	cmd.Flags().String("int-base", "decimal", "integer rendering (decimal, hex, binary)")
	cmd.Flags().Bool("text", false, "print an indented call tree instead of JSON")
	addSigdbFlags(cmd.Flags())
	addLogLevelFlag(cmd.Flags())
	return cmd
}

func runTrace(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadDecode(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	text, _ := cmd.Flags().GetBool("text")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Tx == "" {
		return fmt.Errorf("transaction hash is required")
	}
	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	hash, err := indexer.ParseHash(cfg.Tx)
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

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	root, err := client.TraceTransaction(ctx, hash)
	if err != nil {
		return fmt.Errorf("fetch trace %s: %w", hash.Hex(), err)
	}

	db, closeDB, err := openSigdb(ctx, cfg.Sigdb, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	frames, err := trace.Flatten(ctx, *root, sigdb.NewResolver(fragments, db), opts)
	logCacheStats(logger, db)
	if err != nil {
		return err
	}
	logger.Debug("trace decoded", zap.String("tx", hash.Hex()), zap.Int("frames", len(frames)))

	if text {
		return printTraceTree(cmd.OutOrStdout(), frames)
	}
	return printJSON(cmd.OutOrStdout(), frames)
}

func printTraceTree(w io.Writer, frames []trace.Frame) error {
	for _, f := range frames {
		line := fmt.Sprintf("%s[%s] %s %s -> %s %s",
			strings.Repeat("  ", f.Depth), trace.FormatAddress(f.TraceAddress), f.Type, f.From, f.To, f.Label())
		if f.Value != "" {
			line += " value=" + f.Value
		}
		if f.Error != "" {
			line += " error=" + f.Error
		}
		if f.RevertReason != "" {
			line += " reason=" + f.RevertReason
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
