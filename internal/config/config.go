package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. EVMLENS_RPC.
const EnvPrefix = "EVMLENS"

// Config holds configuration for the logs command.
type Config struct {
	RPCURL         string
	FromBlock      uint64
	ToBlock        uint64
	Addresses      []string
	Topic0         []string
	BatchSize      uint64
	ABI            string
	Out            string
	Errors         string
	MaxRetries     int
	RetryBackoff   time.Duration
	SkipTimestamps bool
	KeepRaw        bool
	SkipUnknown    bool
	IntBase        string
	LogLevel       string
	Sigdb          SigdbConfig
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"batch-size":    uint64(2000),
		"out":           "./data/decoded_logs.jsonl",
		"errors":        "./data/decode_errors.jsonl",
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"int-base":      "decimal",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:         v.GetString("rpc"),
		FromBlock:      v.GetUint64("from"),
		ToBlock:        v.GetUint64("to"),
		Addresses:      getStringSlice(v, "address"),
		Topic0:         getStringSlice(v, "topic0"),
		BatchSize:      v.GetUint64("batch-size"),
		ABI:            v.GetString("abi"),
		Out:            v.GetString("out"),
		Errors:         v.GetString("errors"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		SkipTimestamps: v.GetBool("skip-timestamps"),
		KeepRaw:        v.GetBool("keep-raw"),
		SkipUnknown:    v.GetBool("skip-unknown"),
		IntBase:        v.GetString("int-base"),
		LogLevel:       v.GetString("log-level"),
		Sigdb:          loadSigdb(v),
	}

	return cfg, nil
}

// newViper builds a viper instance layered as flags over environment over
// config file over defaults. A missing ./config.* file is not an error.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	setSigdbDefaults(v)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
