package sigdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"evmlens/internal/decoder"
)

// Resolver decodes calls and logs against known fragments and falls back to
// the candidates of a signature database when no fragment matches.
type Resolver struct {
	fragments []decoder.Fragment
	db        Database
}

// NewResolver builds a Resolver. A nil db disables the fallback.
func NewResolver(fragments []decoder.Fragment, db Database) *Resolver {
	return &Resolver{fragments: fragments, db: db}
}

// DecodeCall decodes calldata. Database candidates are tried one by one and
// kept only when the calldata decodes cleanly against them.
func (r *Resolver) DecodeCall(ctx context.Context, calldata []byte) (*decoder.DecodedCall, error) {
	decoded, err := decoder.DecodeCall(calldata, r.fragments)
	if err == nil || r.db == nil || !errors.Is(err, decoder.ErrNoMatchingSelector) {
		return decoded, err
	}

	var selector [4]byte
	copy(selector[:], calldata)
	sigs, lookupErr := r.db.LookupSelector(ctx, selector)
	if lookupErr != nil {
		return nil, fmt.Errorf("lookup selector %s: %w", hexutil.Encode(selector[:]), lookupErr)
	}

	var fits []*decoder.DecodedCall
	for _, f := range parseCandidates(decoder.KindFunction, sigs) {
		if d, err := decoder.DecodeCallWith(calldata, f); err == nil {
			fits = append(fits, d)
		}
	}
	return pick(fits, err, hexutil.Encode(selector[:]), func(d *decoder.DecodedCall) decoder.Fragment { return d.Fragment })
}

// DecodeLog decodes a log. Database signatures carry no indexed markers, so
// the leading parameters are taken as indexed, one per topic after topic0.
func (r *Resolver) DecodeLog(ctx context.Context, log decoder.Log) (*decoder.DecodedLog, error) {
	decoded, err := decoder.DecodeLog(log, r.fragments)
	if err == nil || r.db == nil || len(log.Topics) == 0 || !errors.Is(err, decoder.ErrNoMatchingSignature) {
		return decoded, err
	}

	sigs, lookupErr := r.db.LookupEvent(ctx, log.Topics[0])
	if lookupErr != nil {
		return nil, fmt.Errorf("lookup event %s: %w", log.Topics[0].Hex(), lookupErr)
	}

	indexed := len(log.Topics) - 1
	var fits []*decoder.DecodedLog
	for _, f := range parseCandidates(decoder.KindEvent, sigs) {
		if indexed > len(f.Params) {
			continue
		}
		for i := range f.Params {
			f.Params[i].Indexed = i < indexed
		}
		if d, err := decoder.DecodeLogWith(log, f); err == nil {
			fits = append(fits, d)
		}
	}
	return pick(fits, err, log.Topics[0].Hex(), func(d *decoder.DecodedLog) decoder.Fragment { return d.Fragment })
}

func parseCandidates(kind decoder.Kind, sigs []string) []decoder.Fragment {
	fragments := make([]decoder.Fragment, 0, len(sigs))
	for _, sig := range sigs {
		f, err := decoder.ParseSignature(kind, sig)
		if err != nil {
			continue
		}
		fragments = append(fragments, f)
	}
	return fragments
}

func pick[T any](fits []T, notFound error, hash string, fragment func(T) decoder.Fragment) (T, error) {
	var zero T
	switch len(fits) {
	case 0:
		return zero, notFound
	case 1:
		return fits[0], nil
	default:
		candidates := make([]decoder.Fragment, 0, len(fits))
		for _, fit := range fits {
			candidates = append(candidates, fragment(fit))
		}
		return zero, &decoder.AmbiguousError{Hash: hash, Candidates: candidates}
	}
}
