package decoder

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const selectorSize = 4

// MatchCall returns the distinct function fragments whose selector equals the
// first 4 bytes of calldata. Fragments with identical canonical signatures are
// collapsed into one.
func MatchCall(calldata []byte, fragments []Fragment) []Fragment {
	if len(calldata) < selectorSize {
		return nil
	}
	var matches []Fragment
	seen := make(map[string]struct{})
	for _, f := range fragments {
		if f.Kind != KindFunction {
			continue
		}
		sel := f.Selector()
		if !bytes.Equal(sel[:], calldata[:selectorSize]) {
			continue
		}
		sig := f.Signature()
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		matches = append(matches, f)
	}
	return matches
}

// DecodeCall decodes calldata against the function fragment whose selector
// matches its first 4 bytes. Several distinct matching signatures produce an
// *AmbiguousError; use MatchCall and DecodeCallWith to choose one.
func DecodeCall(calldata []byte, fragments []Fragment) (*DecodedCall, error) {
	if len(calldata) < selectorSize {
		return nil, truncated(0, "selector", selectorSize, len(calldata))
	}

	matches := MatchCall(calldata, fragments)
	switch len(matches) {
	case 0:
		return nil, &Error{
			Kind:  ErrNoMatchingSelector,
			Found: hexutil.Encode(calldata[:selectorSize]),
		}
	case 1:
		return DecodeCallWith(calldata, matches[0])
	default:
		return nil, &AmbiguousError{
			Hash:       hexutil.Encode(calldata[:selectorSize]),
			Candidates: matches,
		}
	}
}

// DecodeCallWith decodes calldata against a single function fragment. Error
// offsets are positions within calldata, selector included.
func DecodeCallWith(calldata []byte, fragment Fragment) (*DecodedCall, error) {
	if fragment.Kind != KindFunction {
		return nil, fmt.Errorf("%w: %s is not a function", ErrNoMatchingSelector, fragment.Name)
	}
	if len(calldata) < selectorSize {
		return nil, truncated(0, "selector", selectorSize, len(calldata))
	}
	sel := fragment.Selector()
	if !bytes.Equal(sel[:], calldata[:selectorSize]) {
		return nil, &Error{
			Kind:     ErrNoMatchingSelector,
			Expected: SelectorHex(sel),
			Found:    hexutil.Encode(calldata[:selectorSize]),
		}
	}

	r := newReader(calldata)
	values, err := r.decodeTuple(paramTypes(fragment.Params), selectorSize)
	if err != nil {
		return nil, err
	}

	return &DecodedCall{
		Selector: sel,
		Fragment: fragment,
		Args:     zipArgs(fragment.Params, values),
	}, nil
}

func zipArgs(params []Param, values []Value) []Arg {
	args := make([]Arg, len(params))
	for i, p := range params {
		args[i] = Arg{Param: p, Value: values[i]}
	}
	return args
}
