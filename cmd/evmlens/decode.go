package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evmlens/internal/chain"
	"evmlens/internal/config"
	"evmlens/internal/decoder"
	"evmlens/internal/indexer"
	"evmlens/internal/model"
	"evmlens/internal/sigdb"
	"evmlens/internal/storage"
)

func newDecodeCallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode-call",
		Short: "Decode transaction calldata",
		RunE:  runDecodeCall,
	}
	cmd.Flags().String("data", "", "calldata hex")
	cmd.Flags().String("tx", "", "transaction hash to fetch calldata from")
	cmd.Flags().String("rpc", "", "RPC URL (required with --tx)")
	cmd.Flags().String("abi", "", "JSON interface description; built-in fragments when empty")
	cmd.Flags().String("int-base", "decimal", "integer rendering (decimal, hex, binary)")
	addSigdbFlags(cmd.Flags())
	addLogLevelFlag(cmd.Flags())
	return cmd
}

func runDecodeCall(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadDecode(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

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

	var (
		record   model.DecodedCallRecord
		calldata []byte
		logs     []types.Log
		chainID  uint64
	)
	switch {
	case cfg.Data != "":
		calldata, err = indexer.ParseHexData(cfg.Data)
		if err != nil {
			return err
		}
	case cfg.Tx != "":
		if cfg.RPCURL == "" {
			return fmt.Errorf("rpc url is required with --tx")
		}
		hash, err := indexer.ParseHash(cfg.Tx)
		if err != nil {
			return err
		}
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer client.Close()

		input, to, err := client.TransactionInput(ctx, hash)
		if err != nil {
			return fmt.Errorf("fetch transaction %s: %w", hash.Hex(), err)
		}
		calldata = input
		record.TxHash = hash.Hex()
		if to != nil {
			record.To = to.Hex()
		}

		id, err := client.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("get chain id: %w", err)
		}
		chainID = id.Uint64()
		logs, err = client.TransactionLogs(ctx, hash)
		if err != nil {
			return fmt.Errorf("fetch receipt %s: %w", hash.Hex(), err)
		}
	default:
		return fmt.Errorf("one of --data or --tx is required")
	}

	db, closeDB, err := openSigdb(ctx, cfg.Sigdb, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	resolver := sigdb.NewResolver(fragments, db)
	decoded, err := resolver.DecodeCall(ctx, calldata)
	if err != nil {
		logCacheStats(logger, db)
		return fmt.Errorf("decode calldata %s: %w", hexutil.Encode(calldata[:min(len(calldata), 4)]), err)
	}

	out := model.NewDecodedCallRecord(decoded, opts)
	out.TxHash, out.To = record.TxHash, record.To
	if len(logs) > 0 {
		out.Logs, out.LogErrors, err = decodeReceiptLogs(ctx, resolver, chainID, logs, opts)
		if err != nil {
			return err
		}
	}
	logCacheStats(logger, db)
	return printJSON(cmd.OutOrStdout(), out)
}

// receiptLogs collects decoded receipt logs in memory.
type receiptLogs struct {
	decoded []model.DecodedLogRecord
	failed  []model.DecodeError
}

func (r *receiptLogs) PutDecodedBatch(records []model.DecodedLogRecord) error {
	r.decoded = append(r.decoded, records...)
	return nil
}

func (r *receiptLogs) PutErrorBatch(records []model.DecodeError) error {
	r.failed = append(r.failed, records...)
	return nil
}

// decodeReceiptLogs decodes the logs a transaction emitted. Logs that do not
// decode are returned as decode errors next to the ones that do.
func decodeReceiptLogs(
	ctx context.Context,
	resolver indexer.LogResolver,
	chainID uint64,
	logs []types.Log,
	opts decoder.RenderOptions,
) ([]model.DecodedLogRecord, []model.DecodeError, error) {
	now := time.Now().UTC()
	records := make([]model.LogRecord, 0, len(logs))
	for _, l := range logs {
		records = append(records, model.NewLogRecord(chainID, l, 0, now))
	}

	var collected receiptLogs
	recordDecoder := indexer.NewRecordDecoder(resolver, indexer.DecodeOptions{Render: opts})
	if _, err := recordDecoder.DecodeRecords(ctx, records, &collected); err != nil {
		return nil, nil, fmt.Errorf("decode receipt logs: %w", err)
	}
	return collected.decoded, collected.failed, nil
}

func newDecodeLogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode-logs",
		Short: "Decode raw log records from a JSONL file",
		RunE:  runDecodeLogs,
	}
	cmd.Flags().String("in", "", "input raw logs JSONL (- for stdin)")
	cmd.Flags().String("out", "-", "output decoded logs JSONL (- for stdout)")
	cmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	cmd.Flags().String("abi", "", "JSON interface description; built-in fragments when empty")
	cmd.Flags().Bool("keep-raw", false, "attach topic0 and data to decoded records")
	cmd.Flags().Bool("skip-unknown", false, "skip logs no signature matches")
	cmd.Flags().String("int-base", "decimal", "integer rendering (decimal, hex, binary)")
	addSigdbFlags(cmd.Flags())
	addLogLevelFlag(cmd.Flags())
	return cmd
}

func runDecodeLogs(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadDecode(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
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

	input := os.Stdin
	if cfg.In != "-" {
		input, err = os.Open(cfg.In)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer input.Close()
	}

	sink, closeSink, err := openJsonlStorage(cfg.Out, cfg.Errors)
	if err != nil {
		return err
	}
	defer closeSink()

	db, closeDB, err := openSigdb(ctx, cfg.Sigdb, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	recordDecoder := indexer.NewRecordDecoder(sigdb.NewResolver(fragments, db), indexer.DecodeOptions{
		Render:      opts,
		KeepRaw:     cfg.KeepRaw,
		SkipUnknown: cfg.SkipUnknown,
	})

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("fragments", len(fragments)),
	)

	stats, err := recordDecoder.DecodeStream(ctx, input, sink, logger)
	logCacheStats(logger, db)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.Total),
		zap.Int("decoded", stats.Decoded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return nil
}

// openJsonlStorage opens the decoded and error writers. An empty errors path
// discards failures.
func openJsonlStorage(outPath, errorsPath string) (*storage.JsonlStorage, func(), error) {
	out, err := storage.NewJsonlWriter(outPath, false)
	if err != nil {
		return nil, nil, err
	}

	var errs *storage.JsonlWriter
	if errorsPath != "" {
		errs, err = storage.NewJsonlWriter(errorsPath, false)
		if err != nil {
			out.Close()
			return nil, nil, err
		}
	}

	closeFn := func() {
		out.Close()
		errs.Close()
	}
	return storage.NewJsonlStorage(out, errs), closeFn, nil
}
