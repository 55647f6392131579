package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SigdbConfig selects and tunes the signature databases.
type SigdbConfig struct {
	URL          string
	PGDSN        string
	CacheMB      int
	CacheTTL     time.Duration
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// Offline restricts lookups to the built-in dataset and Postgres.
	Offline bool
}

func setSigdbDefaults(v *viper.Viper) {
	v.SetDefault("sigdb-url", "https://api.openchain.xyz")
	v.SetDefault("sigdb-cache-mb", 16)
	v.SetDefault("sigdb-cache-ttl", 24*time.Hour)
	v.SetDefault("sigdb-timeout", 10*time.Second)
	v.SetDefault("sigdb-max-retries", 2)
	v.SetDefault("sigdb-retry-backoff", 250*time.Millisecond)
}

func loadSigdb(v *viper.Viper) SigdbConfig {
	return SigdbConfig{
		URL:          v.GetString("sigdb-url"),
		PGDSN:        v.GetString("sigdb-pg-dsn"),
		CacheMB:      v.GetInt("sigdb-cache-mb"),
		CacheTTL:     v.GetDuration("sigdb-cache-ttl"),
		Timeout:      v.GetDuration("sigdb-timeout"),
		MaxRetries:   v.GetInt("sigdb-max-retries"),
		RetryBackoff: v.GetDuration("sigdb-retry-backoff"),
		Offline:      v.GetBool("offline"),
	}
}

// ImportConfig holds configuration for the sigdb-import command.
type ImportConfig struct {
	In       string
	PGDSN    string
	Builtin  bool
	LogLevel string
}

// LoadImport merges config file, environment variables, and flags into ImportConfig.
func LoadImport(cfgFile string, flags *pflag.FlagSet) (ImportConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return ImportConfig{}, err
	}
	return ImportConfig{
		In:       v.GetString("in"),
		PGDSN:    v.GetString("sigdb-pg-dsn"),
		Builtin:  v.GetBool("builtin"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
