package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evmlens/internal/bytecode"
	"evmlens/internal/chain"
	"evmlens/internal/config"
	"evmlens/internal/indexer"
)

func addCodeFlags(cmd *cobra.Command) {
	cmd.Flags().String("code", "", "runtime bytecode hex")
	cmd.Flags().String("address", "", "contract address to fetch code from")
	cmd.Flags().String("rpc", "", "RPC URL (required with --address)")
	addLogLevelFlag(cmd.Flags())
}

func newDisasmCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disasm",
		Short: "Disassemble runtime bytecode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCode(cmd, func(_ context.Context, _ config.InspectConfig, _ *zap.Logger, code []byte) error {
				return writeDisassembly(cmd.OutOrStdout(), code)
			})
		},
	}
	addCodeFlags(cmd)
	return cmd
}

func writeDisassembly(w io.Writer, code []byte) error {
	it := bytecode.Disassemble(code)
	for it.Next() {
		if _, err := fmt.Fprintln(w, it.Opcode().String()); err != nil {
			return err
		}
	}
	return nil
}

func newSelectorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selectors",
		Short: "Recover function selectors and event topics from bytecode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCode(cmd, func(ctx context.Context, cfg config.InspectConfig, logger *zap.Logger, code []byte) error {
				db, closeDB, err := openSigdb(ctx, cfg.Sigdb, logger)
				if err != nil {
					return err
				}
				defer closeDB()

				iface := bytecode.RecoverSelectors(ctx, code, db, bytecode.WithConcurrency(cfg.Concurrency))
				logCacheStats(logger, db)
				logger.Info("selectors recovered",
					zap.Int("functions", len(iface.Functions)),
					zap.Int("events", len(iface.Events)),
				)
				return printJSON(cmd.OutOrStdout(), iface)
			})
		},
	}
	addCodeFlags(cmd)
	cmd.Flags().Int("concurrency", 8, "signature lookups in flight")
	addSigdbFlags(cmd.Flags())
	return cmd
}

func newDecompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decompile",
		Short: "Print pseudo-source reconstructed from bytecode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCode(cmd, func(_ context.Context, _ config.InspectConfig, _ *zap.Logger, code []byte) error {
				_, err := io.WriteString(cmd.OutOrStdout(), bytecode.ReconstructSource(code))
				return err
			})
		},
	}
	addCodeFlags(cmd)
	return cmd
}

type codeFunc func(ctx context.Context, cfg config.InspectConfig, logger *zap.Logger, code []byte) error

// withCode loads configuration and bytecode, from --code or from the chain,
// and hands them to fn.
func withCode(cmd *cobra.Command, fn codeFunc) error {
	cfg, err := config.LoadInspect(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	code, err := loadCode(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Debug("code loaded", zap.Int("bytes", len(code)), zap.String("address", cfg.Address))

	return fn(ctx, cfg, logger, code)
}

func loadCode(ctx context.Context, cfg config.InspectConfig) ([]byte, error) {
	if strings.TrimSpace(cfg.Code) != "" {
		return indexer.ParseHexData(cfg.Code)
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("one of --code or --address is required")
	}
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required with --address")
	}

	addresses, err := indexer.ParseAddresses([]string{cfg.Address})
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	code, err := client.CodeAt(ctx, addresses[0])
	if err != nil {
		return nil, fmt.Errorf("fetch code %s: %w", addresses[0].Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("no code at %s", addresses[0].Hex())
	}
	return code, nil
}
