package decoder

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Log is the raw part of an event log needed for decoding.
type Log struct {
	Topics []common.Hash
	Data   []byte
}

// MatchLog returns the distinct, non-anonymous event fragments whose topic
// hash equals topics[0].
func MatchLog(log Log, fragments []Fragment) []Fragment {
	if len(log.Topics) == 0 {
		return nil
	}
	var matches []Fragment
	seen := make(map[string]struct{})
	for _, f := range fragments {
		if f.Kind != KindEvent || f.Anonymous {
			continue
		}
		if f.Topic() != log.Topics[0] {
			continue
		}
		key := f.indexedKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		matches = append(matches, f)
	}
	return matches
}

// DecodeLog decodes a log against the event fragment whose signature hash is
// topics[0]. When several fragments share the hash (for example the ERC-20 and
// ERC-721 Transfer events), only those whose indexed parameter count fits the
// topic count are considered; if more than one remains the result is an
// *AmbiguousError.
func DecodeLog(log Log, fragments []Fragment) (*DecodedLog, error) {
	if len(log.Topics) == 0 {
		return nil, &Error{Kind: ErrNoMatchingSignature, Detail: "log has no topics"}
	}

	matches := MatchLog(log, fragments)
	if len(matches) == 0 {
		return nil, &Error{Kind: ErrNoMatchingSignature, Found: log.Topics[0].Hex()}
	}

	fitting := make([]Fragment, 0, len(matches))
	for _, f := range matches {
		if f.IndexedCount() == len(log.Topics)-1 {
			fitting = append(fitting, f)
		}
	}
	switch len(fitting) {
	case 0:
		return DecodeLogWith(log, matches[0])
	case 1:
		return DecodeLogWith(log, fitting[0])
	default:
		return nil, &AmbiguousError{Hash: log.Topics[0].Hex(), Candidates: fitting}
	}
}

// DecodeLogWith decodes a log against a single event fragment. Indexed values
// come from topics[1..] in declaration order, the rest from data.
func DecodeLogWith(log Log, fragment Fragment) (*DecodedLog, error) {
	if fragment.Kind != KindEvent {
		return nil, fmt.Errorf("%w: %s is not an event", ErrNoMatchingSignature, fragment.Name)
	}

	topics := log.Topics
	if !fragment.Anonymous {
		if len(topics) == 0 || topics[0] != fragment.Topic() {
			found := "none"
			if len(topics) > 0 {
				found = topics[0].Hex()
			}
			return nil, &Error{
				Kind:     ErrNoMatchingSignature,
				Expected: fragment.Topic().Hex(),
				Found:    found,
			}
		}
		topics = topics[1:]
	}

	if want := fragment.IndexedCount(); want != len(topics) {
		return nil, &Error{
			Kind:     ErrTopicCountMismatch,
			Detail:   fragment.Signature(),
			Expected: fmt.Sprintf("%d indexed topics", want),
			Found:    fmt.Sprintf("%d", len(topics)),
		}
	}

	var nonIndexed []*abi.Type
	for i := range fragment.Params {
		if !fragment.Params[i].Indexed {
			nonIndexed = append(nonIndexed, &fragment.Params[i].Type)
		}
	}
	r := newReader(log.Data)
	dataValues, err := r.decodeTuple(nonIndexed, 0)
	if err != nil {
		return nil, err
	}

	values := make([]Value, len(fragment.Params))
	topicIdx, dataIdx := 0, 0
	for i, p := range fragment.Params {
		if !p.Indexed {
			values[i] = dataValues[dataIdx]
			dataIdx++
			continue
		}
		v, err := decodeTopic(&fragment.Params[i].Type, topics[topicIdx], topicIdx+1)
		if err != nil {
			return nil, err
		}
		values[i] = v
		topicIdx++
	}

	decoded := &DecodedLog{Fragment: fragment, Args: zipArgs(fragment.Params, values)}
	if !fragment.Anonymous {
		decoded.Topic = log.Topics[0]
	}
	return decoded, nil
}

// decodeTopic reinterprets an indexed topic. Value types are read as a single
// word; strings, bytes, arrays and tuples are only present as their hash.
func decodeTopic(t *abi.Type, topic common.Hash, index int) (Value, error) {
	switch t.T {
	case abi.StringTy, abi.BytesTy, abi.SliceTy, abi.ArrayTy, abi.TupleTy:
		return HashedValue{typed{t.String()}, topic}, nil
	}
	v, err := decodeWord(t, topic.Bytes(), 0)
	var decodeErr *Error
	if errors.As(err, &decodeErr) {
		decodeErr.Detail = fmt.Sprintf("topic %d: %s", index, decodeErr.Detail)
	}
	return v, err
}
