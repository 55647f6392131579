package decoder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedAbi        = errors.New("malformed abi")
	ErrNoMatchingSelector  = errors.New("no matching selector")
	ErrNoMatchingSignature = errors.New("no matching signature")
	ErrTopicCountMismatch  = errors.New("topic count mismatch")
	ErrTruncatedData       = errors.New("truncated data")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrAmbiguousSelector   = errors.New("ambiguous selector")
)

// Error describes a decode failure with enough context to render a diagnostic.
// It unwraps to one of the sentinel errors above.
type Error struct {
	Kind     error
	Offset   int
	Type     string
	Expected string
	Found    string
	Detail   string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, " (%s at offset %d)", e.Type, e.Offset)
	} else if e.Offset > 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	if e.Expected != "" || e.Found != "" {
		fmt.Fprintf(&b, ": expected %s, found %s", e.Expected, e.Found)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// AmbiguousError reports a selector or topic hash shared by several distinct signatures.
type AmbiguousError struct {
	Hash       string
	Candidates []Fragment
}

func (e *AmbiguousError) Error() string {
	sigs := make([]string, 0, len(e.Candidates))
	for _, f := range e.Candidates {
		sigs = append(sigs, f.Signature())
	}
	return fmt.Sprintf("%s %s: %s", ErrAmbiguousSelector, e.Hash, strings.Join(sigs, " | "))
}

func (e *AmbiguousError) Unwrap() error {
	return ErrAmbiguousSelector
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedAbi, fmt.Sprintf(format, args...))
}

func truncated(offset int, typ string, need, have int) *Error {
	if have < 0 {
		have = 0
	}
	return &Error{
		Kind:     ErrTruncatedData,
		Offset:   offset,
		Type:     typ,
		Expected: fmt.Sprintf("%d bytes", need),
		Found:    fmt.Sprintf("%d bytes", have),
	}
}

func mismatch(offset int, typ, detail string) *Error {
	return &Error{
		Kind:   ErrTypeMismatch,
		Offset: offset,
		Type:   typ,
		Detail: detail,
	}
}
