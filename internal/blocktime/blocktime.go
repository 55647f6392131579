package blocktime

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrMissingBlock is returned when the fetcher reports no block for a number
// inside the searched range.
var ErrMissingBlock = errors.New("missing block")

// Block is the part of a block header the search needs.
type Block struct {
	Number    uint64
	Timestamp uint64
}

// FetchBlockFunc returns the block with the given number, or nil when the
// chain has no such block.
type FetchBlockFunc func(ctx context.Context, number uint64) (*Block, error)

// BlockNumberForTimestamp finds the block whose timestamp equals target by
// binary search over [0, latest]. Without an exact match it returns the last
// block with a timestamp below target; found is false when target precedes the
// first block. Block timestamps must be non-decreasing.
func BlockNumberForTimestamp(ctx context.Context, target uint64, fetch FetchBlockFunc, latest uint64) (uint64, bool, error) {
	if fetch == nil {
		return 0, false, fmt.Errorf("fetch function is nil")
	}
	if latest > math.MaxInt64 {
		return 0, false, fmt.Errorf("latest block %d out of range", latest)
	}

	var (
		low   int64
		high  = int64(latest)
		best  uint64
		found bool
	)
	for low <= high {
		mid := low + (high-low)/2

		block, err := fetchAt(ctx, fetch, uint64(mid))
		if err != nil {
			return 0, false, err
		}

		switch {
		case block.Timestamp == target:
			return uint64(mid), true, nil
		case block.Timestamp < target:
			best, found = uint64(mid), true
			low = mid + 1
		default:
			high = mid - 1
		}
	}
	return best, found, nil
}

// TimestampForBlockNumber returns the timestamp of a block. found is false
// when the chain has no block with that number.
func TimestampForBlockNumber(ctx context.Context, number uint64, fetch FetchBlockFunc) (uint64, bool, error) {
	if fetch == nil {
		return 0, false, fmt.Errorf("fetch function is nil")
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	block, err := fetch(ctx, number)
	if err != nil {
		return 0, false, fmt.Errorf("fetch block %d: %w", number, err)
	}
	if block == nil {
		return 0, false, nil
	}
	return block.Timestamp, true, nil
}

func fetchAt(ctx context.Context, fetch FetchBlockFunc, number uint64) (*Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	block, err := fetch(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("fetch block %d: %w", number, err)
	}
	if block == nil {
		return nil, fmt.Errorf("%w: %d", ErrMissingBlock, number)
	}
	return block, nil
}
