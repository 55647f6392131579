package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"evmlens/internal/model"
)

const maxLineSize = 10 * 1024 * 1024

// LogRecordFunc receives each parsed line. A non-nil parseErr means the line
// was not a valid log record; returning an error stops the scan.
type LogRecordFunc func(line int, record model.LogRecord, parseErr error) error

// ScanLogRecords reads JSONL log records from r, skipping blank lines.
func ScanLogRecords(r io.Reader, fn LogRecordFunc) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record model.LogRecord
		parseErr := json.Unmarshal(line, &record)
		if err := fn(lineNo, record, parseErr); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
