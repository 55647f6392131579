package sigdb

import (
	"context"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Kind distinguishes function selectors from event topics.
type Kind string

const (
	KindFunction Kind = "function"
	KindEvent    Kind = "event"
)

// Database resolves selectors and event topics to text signatures. A hash
// with no known signature yields an empty result and a nil error.
type Database interface {
	LookupSelector(ctx context.Context, selector [4]byte) ([]string, error)
	LookupEvent(ctx context.Context, topic common.Hash) ([]string, error)
}

// Entry is a single signature record, as stored by importable datasets.
type Entry struct {
	Kind      Kind   `json:"kind"`
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
}

// uniqueSorted removes duplicates and orders signatures so results are stable
// across backends.
func uniqueSorted(sigs []string) []string {
	if len(sigs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(sigs))
	out := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		if sig == "" {
			continue
		}
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, sig)
	}
	sort.Strings(out)
	return out
}
