package retry

import (
	"context"
	"time"
)

const defaultBaseDelay = 100 * time.Millisecond

// Do calls fn until it succeeds or maxRetries retries have failed, doubling
// the delay between attempts. The last error is returned.
//
// fn receives ctx unchanged. A cancelled ctx ends the wait between attempts
// immediately and Do returns ctx.Err() instead of the last failure; an
// attempt already in flight is only interrupted if fn itself honours ctx.
func Do(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
