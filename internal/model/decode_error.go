package model

// DecodeError records a decode failure for a log line.
type DecodeError struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Kind        string `json:"kind,omitempty"`
	Offset      int    `json:"offset,omitempty"`
	Error       string `json:"error"`
}

// NewDecodeError builds a DecodeError for a log record.
func NewDecodeError(lr LogRecord, kind string, offset int, err error) DecodeError {
	return DecodeError{
		ChainID:     lr.ChainID,
		BlockNumber: lr.BlockNumber,
		TxHash:      lr.TxHash,
		LogIndex:    lr.LogIndex,
		Address:     lr.Address,
		Topic0:      lr.Topic0(),
		Kind:        kind,
		Offset:      offset,
		Error:       err.Error(),
	}
}
