package model

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogRecord is the normalized representation of a chain log for storage.
type LogRecord struct {
	ChainID     uint64   `json:"chain_id"`
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	TxHash      string   `json:"tx_hash"`
	TxIndex     uint64   `json:"tx_index"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed"`
	Timestamp   uint64   `json:"timestamp,omitempty"`
	IngestedAt  string   `json:"ingested_at,omitempty"`
}

// NewLogRecord converts a go-ethereum log into a LogRecord.
func NewLogRecord(chainID uint64, log types.Log, timestamp uint64, ingestedAt time.Time) LogRecord {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	return LogRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Removed:     log.Removed,
		Timestamp:   timestamp,
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}
}

// RawLog parses the hex topics and data of the record.
func (lr LogRecord) RawLog() ([]common.Hash, []byte, error) {
	topics := make([]common.Hash, 0, len(lr.Topics))
	for i, topic := range lr.Topics {
		b, err := hexutil.Decode(topic)
		if err != nil {
			return nil, nil, fmt.Errorf("topic %d: %w", i, err)
		}
		if len(b) != common.HashLength {
			return nil, nil, fmt.Errorf("topic %d: expected 32 bytes, got %d", i, len(b))
		}
		topics = append(topics, common.BytesToHash(b))
	}

	var data []byte
	if lr.Data != "" && lr.Data != "0x" {
		var err error
		data, err = hexutil.Decode(lr.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("data: %w", err)
		}
	}
	return topics, data, nil
}

// Topic0 returns the first topic, or an empty string for topic-less logs.
func (lr LogRecord) Topic0() string {
	if len(lr.Topics) == 0 {
		return ""
	}
	return lr.Topics[0]
}
