package retry

import (
	"context"
	"time"
)

const DefaultFactor = 2.0

// Retry is a concurrency safe backoff helper. Do invokes the function
// until it reports no further retry is wanted, the context is cancelled,
// or the attempt limit is reached.
type Retry struct {
	InitialDelay time.Duration
	MaximumDelay time.Duration
	Factor       float32
	MaxAttempts  int // 0 means unbounded
}

func (r *Retry) Do(ctx context.Context, f func(attempt int) (retry bool, err error)) error {
	attempt := 0
	delay := r.InitialDelay
	factor := r.Factor
	if factor < 1 { // Can't reduce
		factor = DefaultFactor
	}
	for {
		attempt++
		retry, err := f(attempt)
		if !retry {
			return err
		}
		if r.MaxAttempts > 0 && attempt >= r.MaxAttempts {
			return err
		}

		if delay > r.MaximumDelay {
			delay = r.MaximumDelay
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(float32(delay) * factor)
	}
}
