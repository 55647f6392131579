package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evmlens/internal/config"
	"evmlens/internal/sigdb"
)

const importBatchSize = 1000

func newSigdbImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sigdb-import",
		Short: "Import signatures into the Postgres signature dataset",
		Long: "Reads one signature per line, either a JSON entry " +
			`{"kind":"function","hash":"0x..","signature":"..."} or a text signature ` +
			"prefixed with \"function \" or \"event \".",
		RunE: runSigdbImport,
	}
	cmd.Flags().String("in", "", "input file (- for stdin)")
	cmd.Flags().String("sigdb-pg-dsn", "", "Postgres DSN")
	cmd.Flags().Bool("builtin", false, "also import the built-in dataset")
	addLogLevelFlag(cmd.Flags())
	return cmd
}

func runSigdbImport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadImport(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" && !cfg.Builtin {
		return fmt.Errorf("one of --in or --builtin is required")
	}

	dataset := sigdb.NewStatic()
	if cfg.Builtin {
		dataset = sigdb.NewBuiltin()
	}
	if cfg.In != "" {
		r := io.Reader(os.Stdin)
		if cfg.In != "-" {
			file, err := os.Open(cfg.In)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer file.Close()
			r = file
		}
		if err := readSignatures(r, dataset); err != nil {
			return err
		}
	}

	ctx, stop := signalContext()
	defer stop()

	pg, err := sigdb.NewPostgres(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect signature postgres: %w", err)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		return err
	}

	entries := dataset.Entries()
	for start := 0; start < len(entries); start += importBatchSize {
		end := min(start+importBatchSize, len(entries))
		if err := pg.Import(ctx, entries[start:end]); err != nil {
			return err
		}
		logger.Debug("import batch complete", zap.Int("from", start), zap.Int("to", end))
	}

	logger.Info("import complete", zap.Int("entries", len(entries)))
	return nil
}

// readSignatures adds every line of r to dataset.
func readSignatures(r io.Reader, dataset *sigdb.Static) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "{") {
			var entry sigdb.Entry
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			if err := dataset.AddEntry(entry); err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		kind := sigdb.KindFunction
		if strings.HasPrefix(line, "event ") {
			kind = sigdb.KindEvent
		}
		if err := dataset.AddSignature(kind, line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
