package model

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"evmlens/internal/decoder"
)

func TestDecodedLogRecordJSONStringFields(t *testing.T) {
	fragments, err := decoder.WellKnownFragments()
	if err != nil {
		t.Fatalf("builtin fragments: %v", err)
	}
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	amount, _ := new(big.Int).SetString("12345678901234567890", 10)

	decoded, err := decoder.DecodeLog(decoder.Log{
		Topics: []common.Hash{
			common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"),
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: common.BigToHash(amount).Bytes(),
	}, fragments)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	record := NewDecodedLogRecord(LogRecord{ChainID: 1, Topics: []string{"0xddf2"}, Data: "0x"}, decoded, decoder.RenderOptions{}, true)
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out struct {
		Event string `json:"event"`
		Args  []struct {
			Name  string      `json:"name"`
			Value interface{} `json:"value"`
		} `json:"args"`
		Raw *RawLogRef `json:"raw"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if out.Event != "Transfer" || len(out.Args) != 3 {
		t.Fatalf("record mismatch: %s", data)
	}
	if v, ok := out.Args[2].Value.(string); !ok || v != "12345678901234567890" {
		t.Fatalf("value should be a decimal string: %v", out.Args[2].Value)
	}
	if out.Args[0].Value != from.Hex() {
		t.Fatalf("from mismatch: %v", out.Args[0].Value)
	}
	if out.Raw == nil || out.Raw.Topic0 != "0xddf2" {
		t.Fatalf("raw reference missing: %s", data)
	}
}
