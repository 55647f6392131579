package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"evmlens/internal/model"
)

func TestJsonlStorageWritesBothStreams(t *testing.T) {
	dir := t.TempDir()
	decodedPath := filepath.Join(dir, "nested", "decoded.jsonl")
	errorsPath := filepath.Join(dir, "errors.jsonl")

	decoded, err := NewJsonlWriter(decodedPath, false)
	if err != nil {
		t.Fatalf("open decoded: %v", err)
	}
	errs, err := NewJsonlWriter(errorsPath, false)
	if err != nil {
		t.Fatalf("open errors: %v", err)
	}

	store := NewJsonlStorage(decoded, errs)
	if err := store.PutDecodedBatch([]model.DecodedLogRecord{{Event: "Transfer"}, {Event: "Approval"}}); err != nil {
		t.Fatalf("put decoded: %v", err)
	}
	if err := store.PutErrorBatch([]model.DecodeError{{Error: "boom"}}); err != nil {
		t.Fatalf("put errors: %v", err)
	}
	if err := store.PutErrorBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if err := decoded.Close(); err != nil {
		t.Fatalf("close decoded: %v", err)
	}
	if err := errs.Close(); err != nil {
		t.Fatalf("close errors: %v", err)
	}

	lines := readLines(t, decodedPath)
	if len(lines) != 2 {
		t.Fatalf("expected 2 decoded lines, got %d", len(lines))
	}
	var first model.DecodedLogRecord
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.Event != "Transfer" {
		t.Fatalf("first line mismatch: %s %v", lines[0], err)
	}
	if got := readLines(t, errorsPath); len(got) != 1 || !strings.Contains(got[0], "boom") {
		t.Fatalf("errors mismatch: %v", got)
	}
}

func TestJsonlWriterAppendMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	for i := 0; i < 2; i++ {
		w, err := NewJsonlWriter(path, true)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := w.Write(map[string]int{"run": i}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	if lines := readLines(t, path); len(lines) != 2 {
		t.Fatalf("expected appended lines, got %v", lines)
	}

	w, err := NewJsonlWriter(path, false)
	if err != nil {
		t.Fatalf("open truncate: %v", err)
	}
	w.Close()
	if lines := readLines(t, path); len(lines) != 0 {
		t.Fatalf("expected truncated file, got %v", lines)
	}
}

func TestScanLogRecords(t *testing.T) {
	input := strings.Join([]string{
		`{"chain_id":1,"block_number":10,"topics":["0xaa"],"data":"0x"}`,
		``,
		`not json`,
		`{"chain_id":1,"block_number":11,"topics":[],"data":"0x01"}`,
	}, "\n")

	var blocks []uint64
	var badLines []int
	err := ScanLogRecords(strings.NewReader(input), func(line int, record model.LogRecord, parseErr error) error {
		if parseErr != nil {
			badLines = append(badLines, line)
			return nil
		}
		blocks = append(blocks, record.BlockNumber)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(blocks) != 2 || blocks[0] != 10 || blocks[1] != 11 {
		t.Fatalf("blocks mismatch: %v", blocks)
	}
	if len(badLines) != 1 || badLines[0] != 3 {
		t.Fatalf("bad lines mismatch: %v", badLines)
	}

	stop := errors.New("stop")
	err = ScanLogRecords(strings.NewReader(input), func(int, model.LogRecord, error) error { return stop })
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func TestJsonlStream(t *testing.T) {
	var buf bytes.Buffer
	w := NewJsonlStream(&buf)
	if err := w.Write(map[string]string{"a": "b"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if buf.String() != "{\"a\":\"b\"}\n" {
		t.Fatalf("stream mismatch: %q", buf.String())
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
