package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "evmlens",
		Short:        "Decode and inspect EVM calldata, logs and bytecode",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(
		newDecodeCallCommand(),
		newDecodeLogsCommand(),
		newTraceCommand(),
		newLogsCommand(),
		newDisasmCommand(),
		newSelectorsCommand(),
		newDecompileCommand(),
		newUnitsCommand(),
		newBaseCommand(),
		newASCIICommand(),
		newTokenAmountCommand(),
		newBlockAtCommand(),
		newBlockTimeCommand(),
		newSigdbImportCommand(),
	)

	return root
}

// addSigdbFlags registers the signature database selection flags.
func addSigdbFlags(flags *pflag.FlagSet) {
	flags.String("sigdb-url", "https://api.openchain.xyz", "signature database API base URL")
	flags.String("sigdb-pg-dsn", "", "Postgres DSN of an imported signature dataset")
	flags.Int("sigdb-cache-mb", 16, "signature lookup cache size in MB")
	flags.Duration("sigdb-cache-ttl", 24*time.Hour, "signature lookup cache TTL")
	flags.Duration("sigdb-timeout", 10*time.Second, "signature database request timeout")
	flags.Bool("offline", false, "do not query the signature database API")
}

func addLogLevelFlag(flags *pflag.FlagSet) {
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func configFile(cmd *cobra.Command) string {
	cfgFile, _ := cmd.Flags().GetString("config")
	return cfgFile
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
