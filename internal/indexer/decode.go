package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"evmlens/internal/decoder"
	"evmlens/internal/model"
	"evmlens/internal/storage"
)

const streamBatchSize = 500

// Failure kinds recorded on decode errors.
const (
	KindMalformedRecord     = "malformed_record"
	KindNoMatchingSignature = "no_matching_signature"
	KindTopicCountMismatch  = "topic_count_mismatch"
	KindTruncatedData       = "truncated_data"
	KindTypeMismatch        = "type_mismatch"
	KindAmbiguous           = "ambiguous"
	KindLookupFailed        = "lookup_failed"
)

// LogResolver decodes a single log. *sigdb.Resolver satisfies it.
type LogResolver interface {
	DecodeLog(ctx context.Context, log decoder.Log) (*decoder.DecodedLog, error)
}

// DecodeOptions controls how decoded records are produced.
type DecodeOptions struct {
	Render decoder.RenderOptions
	// KeepRaw attaches topic0 and data to each decoded record.
	KeepRaw bool
	// SkipUnknown drops logs no signature matches instead of reporting them.
	SkipUnknown bool
}

// RecordDecoder turns raw log records into decoded records or decode errors.
type RecordDecoder struct {
	resolver LogResolver
	opts     DecodeOptions
}

func NewRecordDecoder(resolver LogResolver, opts DecodeOptions) *RecordDecoder {
	return &RecordDecoder{resolver: resolver, opts: opts}
}

// Decode decodes one record. Both results are nil when the record was skipped.
func (d *RecordDecoder) Decode(ctx context.Context, record model.LogRecord) (*model.DecodedLogRecord, *model.DecodeError) {
	topics, data, err := record.RawLog()
	if err != nil {
		failure := model.NewDecodeError(record, KindMalformedRecord, 0, err)
		return nil, &failure
	}
	if len(topics) == 0 {
		failure := model.NewDecodeError(record, KindNoMatchingSignature, 0, fmt.Errorf("missing topic0"))
		return nil, &failure
	}

	decoded, err := d.resolver.DecodeLog(ctx, decoder.Log{Topics: topics, Data: data})
	if err != nil {
		kind := failureKind(err)
		if d.opts.SkipUnknown && kind == KindNoMatchingSignature {
			return nil, nil
		}
		offset := 0
		var decodeErr *decoder.Error
		if errors.As(err, &decodeErr) {
			offset = decodeErr.Offset
		}
		failure := model.NewDecodeError(record, kind, offset, err)
		return nil, &failure
	}

	out := model.NewDecodedLogRecord(record, decoded, d.opts.Render, d.opts.KeepRaw)
	return &out, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, decoder.ErrAmbiguousSelector):
		return KindAmbiguous
	case errors.Is(err, decoder.ErrTopicCountMismatch):
		return KindTopicCountMismatch
	case errors.Is(err, decoder.ErrTruncatedData):
		return KindTruncatedData
	case errors.Is(err, decoder.ErrTypeMismatch):
		return KindTypeMismatch
	case errors.Is(err, decoder.ErrNoMatchingSignature):
		return KindNoMatchingSignature
	default:
		return KindLookupFailed
	}
}

// Stats counts the outcome of a decode run.
type Stats struct {
	Total   int
	Decoded int
	Skipped int
	Failed  int
}

func (s *Stats) add(other Stats) {
	s.Total += other.Total
	s.Decoded += other.Decoded
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// DecodeRecords decodes records in order and writes results to sink.
func (d *RecordDecoder) DecodeRecords(ctx context.Context, records []model.LogRecord, sink storage.Storage) (Stats, error) {
	var stats Stats
	decoded := make([]model.DecodedLogRecord, 0, len(records))
	var failures []model.DecodeError
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Total++
		out, failure := d.Decode(ctx, record)
		switch {
		case out != nil:
			stats.Decoded++
			decoded = append(decoded, *out)
		case failure != nil:
			stats.Failed++
			failures = append(failures, *failure)
		default:
			stats.Skipped++
		}
	}

	if err := sink.PutDecodedBatch(decoded); err != nil {
		return stats, fmt.Errorf("store decoded logs: %w", err)
	}
	if err := sink.PutErrorBatch(failures); err != nil {
		return stats, fmt.Errorf("store decode errors: %w", err)
	}
	return stats, nil
}

// DecodeStream decodes JSONL log records from r. Lines that are not valid
// records are reported as decode errors and do not stop the stream.
func (d *RecordDecoder) DecodeStream(ctx context.Context, r io.Reader, sink storage.Storage, logger *zap.Logger) (Stats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var stats Stats
	pending := make([]model.LogRecord, 0, streamBatchSize)
	var unparsable []model.DecodeError

	flush := func() error {
		batch, err := d.DecodeRecords(ctx, pending, sink)
		stats.add(batch)
		if err != nil {
			return err
		}
		if err := sink.PutErrorBatch(unparsable); err != nil {
			return fmt.Errorf("store decode errors: %w", err)
		}
		logger.Debug("decode batch complete", zap.Int("records", len(pending)), zap.Int("failed", batch.Failed+len(unparsable)))
		pending = pending[:0]
		unparsable = unparsable[:0]
		return nil
	}

	err := storage.ScanLogRecords(r, func(line int, record model.LogRecord, parseErr error) error {
		if parseErr != nil {
			stats.Total++
			stats.Failed++
			unparsable = append(unparsable, model.DecodeError{
				Kind:  KindMalformedRecord,
				Error: fmt.Sprintf("line %d: %v", line, parseErr),
			})
			return nil
		}
		pending = append(pending, record)
		if len(pending) >= streamBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}
