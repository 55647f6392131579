package model

import "evmlens/internal/decoder"

// DecodedLogRecord is a decoded event log enriched with chain metadata.
type DecodedLogRecord struct {
	ChainID     uint64                `json:"chain_id"`
	BlockNumber uint64                `json:"block_number"`
	BlockHash   string                `json:"block_hash"`
	TxHash      string                `json:"tx_hash"`
	LogIndex    uint64                `json:"log_index"`
	Address     string                `json:"address"`
	Timestamp   uint64                `json:"timestamp,omitempty"`
	Event       string                `json:"event"`
	Signature   string                `json:"signature"`
	Args        []decoder.RenderedArg `json:"args"`
	Raw         *RawLogRef            `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}

// NewDecodedLogRecord combines a log record with its decoded form.
func NewDecodedLogRecord(lr LogRecord, decoded *decoder.DecodedLog, opts decoder.RenderOptions, keepRaw bool) DecodedLogRecord {
	out := DecodedLogRecord{
		ChainID:     lr.ChainID,
		BlockNumber: lr.BlockNumber,
		BlockHash:   lr.BlockHash,
		TxHash:      lr.TxHash,
		LogIndex:    lr.LogIndex,
		Address:     lr.Address,
		Timestamp:   lr.Timestamp,
		Event:       decoded.Fragment.Name,
		Signature:   decoded.Fragment.Signature(),
		Args:        decoder.RenderArgs(decoded.Args, opts),
	}
	if keepRaw {
		out.Raw = &RawLogRef{Topic0: lr.Topic0(), Data: lr.Data}
	}
	return out
}

// DecodedCallRecord is decoded calldata in display form.
type DecodedCallRecord struct {
	TxHash    string                `json:"tx_hash,omitempty"`
	To        string                `json:"to,omitempty"`
	Selector  string                `json:"selector"`
	Function  string                `json:"function"`
	Signature string                `json:"signature"`
	Args      []decoder.RenderedArg `json:"args"`
	Logs      []DecodedLogRecord    `json:"logs,omitempty"`
	LogErrors []DecodeError         `json:"log_errors,omitempty"`
}

// NewDecodedCallRecord converts a decoded call into its display form.
func NewDecodedCallRecord(call *decoder.DecodedCall, opts decoder.RenderOptions) DecodedCallRecord {
	return DecodedCallRecord{
		Selector:  decoder.SelectorHex(call.Selector),
		Function:  call.Fragment.Name,
		Signature: call.Fragment.Signature(),
		Args:      decoder.RenderArgs(call.Args, opts),
	}
}
