package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"evmlens/internal/chain"
	"evmlens/internal/config"
	"evmlens/internal/convert"
	"evmlens/internal/indexer"
	"evmlens/internal/model"
	"evmlens/internal/token"
)

type tokenAmountResult struct {
	Raw       string           `json:"raw"`
	Formatted string           `json:"formatted"`
	Token     *model.TokenMeta `json:"token,omitempty"`
}

func newTokenAmountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token-amount RAW",
		Short: "Format a raw token amount with its decimals",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenAmount,
	}
	cmd.Flags().Int("decimals", -1, "token decimals; fetched from --address when negative")
	cmd.Flags().String("address", "", "token contract address")
	cmd.Flags().String("rpc", "", "RPC URL (required with --address)")
	addLogLevelFlag(cmd.Flags())
	return cmd
}

func runTokenAmount(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadInspect(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	raw, err := convert.Normalize(args[0], convert.Decimal)
	if err != nil {
		return err
	}
	amount, _ := new(big.Int).SetString(raw, 10)

	decimals, _ := cmd.Flags().GetInt("decimals")
	if decimals >= 0 {
		if decimals > 255 {
			return fmt.Errorf("decimals must be at most 255")
		}
		return printJSON(cmd.OutOrStdout(), tokenAmountResult{
			Raw:       raw,
			Formatted: convert.FormatTokenAmount(amount, uint8(decimals)),
		})
	}

	if cfg.Address == "" || cfg.RPCURL == "" {
		return fmt.Errorf("either --decimals or --address with --rpc is required")
	}
	addresses, err := indexer.ParseAddresses([]string{cfg.Address})
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

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	formatted, meta, err := token.NewMetaCache(client, logger).FormatAmount(ctx, addresses[0], amount)
	if err != nil {
		return fmt.Errorf("token metadata %s: %w", addresses[0].Hex(), err)
	}
	return printJSON(cmd.OutOrStdout(), tokenAmountResult{Raw: raw, Formatted: formatted, Token: &meta})
}
