package config

import (
	"github.com/spf13/pflag"
)

// DecodeConfig holds configuration for the decode-call and decode-logs
// commands.
type DecodeConfig struct {
	RPCURL      string
	ABI         string
	Data        string
	Tx          string
	In          string
	Out         string
	Errors      string
	KeepRaw     bool
	SkipUnknown bool
	IntBase     string
	LogLevel    string
	Sigdb       SigdbConfig
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":      "-",
		"errors":   "./data/decode_errors.jsonl",
		"int-base": "decimal",
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		RPCURL:      v.GetString("rpc"),
		ABI:         v.GetString("abi"),
		Data:        v.GetString("data"),
		Tx:          v.GetString("tx"),
		In:          v.GetString("in"),
		Out:         v.GetString("out"),
		Errors:      v.GetString("errors"),
		KeepRaw:     v.GetBool("keep-raw"),
		SkipUnknown: v.GetBool("skip-unknown"),
		IntBase:     v.GetString("int-base"),
		LogLevel:    v.GetString("log-level"),
		Sigdb:       loadSigdb(v),
	}

	return cfg, nil
}
