package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// StdoutPath selects standard output instead of a file.
const StdoutPath = "-"

// JsonlWriter writes values as JSON lines. It is safe for concurrent use.
type JsonlWriter struct {
	mu     sync.Mutex
	closer io.Closer
	writer *bufio.Writer
}

// NewJsonlWriter opens path for writing. Existing files are truncated unless
// appendMode is set.
func NewJsonlWriter(path string, appendMode bool) (*JsonlWriter, error) {
	if path == StdoutPath {
		return &JsonlWriter{writer: bufio.NewWriter(os.Stdout)}, nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	return &JsonlWriter{closer: file, writer: bufio.NewWriter(file)}, nil
}

// NewJsonlStream wraps an already open stream. Close flushes but does not
// close w.
func NewJsonlStream(w io.Writer) *JsonlWriter {
	return &JsonlWriter{writer: bufio.NewWriter(w)}
}

// Write appends a single value.
func (w *JsonlWriter) Write(value interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeLocked(value)
}

// WriteBatch appends values and flushes them together.
func WriteBatch[T any](w *JsonlWriter, values []T) error {
	if len(values) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, value := range values {
		if err := w.writeLocked(value); err != nil {
			return err
		}
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func (w *JsonlWriter) writeLocked(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

// Close flushes buffered lines and closes the underlying file.
func (w *JsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		if w.closer != nil {
			w.closer.Close()
		}
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
