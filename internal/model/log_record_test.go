package model

import (
	"bytes"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestNewLogRecordRawLogRoundTrip(t *testing.T) {
	log := types.Log{
		Address:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Topics:      []common.Hash{common.HexToHash("0xaa"), common.HexToHash("0xbb")},
		Data:        []byte{0xde, 0xad, 0xbe, 0xef},
		BlockNumber: 36000000,
		TxHash:      common.HexToHash("0xdef456"),
		TxIndex:     7,
		Index:       12,
	}
	ingestedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	record := NewLogRecord(56, log, 1700000000, ingestedAt)
	if record.ChainID != 56 || record.LogIndex != 12 || record.TxIndex != 7 {
		t.Fatalf("metadata mismatch: %+v", record)
	}
	if record.Data != "0xdeadbeef" || record.IngestedAt != "2024-01-01T00:00:00Z" {
		t.Fatalf("encoding mismatch: %+v", record)
	}

	topics, data, err := record.RawLog()
	if err != nil {
		t.Fatalf("raw log: %v", err)
	}
	if len(topics) != 2 || topics[1] != log.Topics[1] || !bytes.Equal(data, log.Data) {
		t.Fatalf("raw log mismatch: %v %x", topics, data)
	}
	if record.Topic0() != log.Topics[0].Hex() {
		t.Fatalf("topic0 mismatch: %s", record.Topic0())
	}
}

func TestLogRecordRawLogInvalid(t *testing.T) {
	cases := []LogRecord{
		{Topics: []string{"0x1234"}},
		{Topics: []string{"zz"}},
		{Data: "0xabc"},
	}
	for _, record := range cases {
		if _, _, err := record.RawLog(); err == nil {
			t.Fatalf("expected error for %+v", record)
		}
	}

	topics, data, err := LogRecord{Data: "0x"}.RawLog()
	if err != nil || len(topics) != 0 || len(data) != 0 {
		t.Fatalf("empty record: %v %v %v", topics, data, err)
	}
}
