package indexer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseAddresses converts hex addresses into common.Address, skipping blanks.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ParseHashes converts 32-byte hex strings such as event topics or
// transaction hashes into common.Hash, skipping blanks.
func ParseHashes(inputs []string) ([]common.Hash, error) {
	hashes := make([]common.Hash, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		h, err := ParseHash(input)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

// ParseHash converts a single 32-byte hex string.
func ParseHash(input string) (common.Hash, error) {
	data, err := hexutil.Decode(strings.TrimSpace(input))
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash %s: %w", input, err)
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash length %d: %s", len(data), input)
	}
	return common.BytesToHash(data), nil
}

// ParseHexData decodes 0x-prefixed hex, tolerating a missing prefix and
// surrounding whitespace.
func ParseHexData(input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "0x") && !strings.HasPrefix(input, "0X") {
		input = "0x" + input
	}
	if input == "0x" {
		return []byte{}, nil
	}
	data, err := hexutil.Decode(input)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return data, nil
}

// ParseTimestamp accepts unix seconds or an RFC3339 time.
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("timestamp is required")
	}
	if ts, err := strconv.ParseUint(input, 10, 64); err == nil {
		return ts, nil
	}
	t, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: expected unix seconds or RFC3339", input)
	}
	if t.Unix() < 0 {
		return 0, fmt.Errorf("timestamp %q is before the unix epoch", input)
	}
	return uint64(t.Unix()), nil
}
