package config

import (
	"github.com/spf13/pflag"
)

// InspectConfig holds configuration for the bytecode and block commands.
type InspectConfig struct {
	RPCURL      string
	Code        string
	Address     string
	Concurrency int
	LogLevel    string
	Sigdb       SigdbConfig
}

// LoadInspect merges config file, environment variables, and flags into InspectConfig.
func LoadInspect(cfgFile string, flags *pflag.FlagSet) (InspectConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"concurrency": 8,
	})
	if err != nil {
		return InspectConfig{}, err
	}

	return InspectConfig{
		RPCURL:      v.GetString("rpc"),
		Code:        v.GetString("code"),
		Address:     v.GetString("address"),
		Concurrency: v.GetInt("concurrency"),
		LogLevel:    v.GetString("log-level"),
		Sigdb:       loadSigdb(v),
	}, nil
}
