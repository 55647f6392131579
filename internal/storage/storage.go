package storage

import "evmlens/internal/model"

// Storage defines a sink for decoded logs and decode failures.
type Storage interface {
	PutDecodedBatch(records []model.DecodedLogRecord) error
	PutErrorBatch(records []model.DecodeError) error
}

// JsonlStorage writes decoded logs and decode errors to separate JSONL
// writers. A nil errors writer drops failures.
type JsonlStorage struct {
	decoded *JsonlWriter
	errors  *JsonlWriter
}

func NewJsonlStorage(decoded, errors *JsonlWriter) *JsonlStorage {
	return &JsonlStorage{decoded: decoded, errors: errors}
}

func (s *JsonlStorage) PutDecodedBatch(records []model.DecodedLogRecord) error {
	return WriteBatch(s.decoded, records)
}

func (s *JsonlStorage) PutErrorBatch(records []model.DecodeError) error {
	if s.errors == nil {
		return nil
	}
	return WriteBatch(s.errors, records)
}
