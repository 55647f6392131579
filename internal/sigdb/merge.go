package sigdb

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// Merge queries every database and returns the union of their candidates, so
// a collision known to one backend is never hidden by another. Errors are
// only reported when no database produced a candidate.
type Merge []Database

func (m Merge) LookupSelector(ctx context.Context, selector [4]byte) ([]string, error) {
	return m.union(func(db Database) ([]string, error) {
		return db.LookupSelector(ctx, selector)
	})
}

func (m Merge) LookupEvent(ctx context.Context, topic common.Hash) ([]string, error) {
	return m.union(func(db Database) ([]string, error) {
		return db.LookupEvent(ctx, topic)
	})
}

func (m Merge) union(lookup func(Database) ([]string, error)) ([]string, error) {
	var (
		all  []string
		errs []error
	)
	for _, db := range m {
		if db == nil {
			continue
		}
		sigs, err := lookup(db)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, sigs...)
	}
	if len(all) > 0 {
		return uniqueSorted(all), nil
	}
	return nil, errors.Join(errs...)
}
