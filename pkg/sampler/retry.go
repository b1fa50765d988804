package sampler

import (
	"context"
	"time"
)

// RetryPolicy bounds how long the sampler waits for a frame to become
// decodable after seeking.
type RetryPolicy struct {
	// Attempts is the number of re-checks made after the first one.
	Attempts int `mapstructure:"retry-attempts"`
	// Interval is the time waited between checks.
	Interval time.Duration `mapstructure:"retry-interval"`
}

var DefaultRetryPolicy = RetryPolicy{
	Attempts: 30,
	Interval: 100 * time.Millisecond,
}

// Wait polls ready until it reports true, the attempts run out (ErrNotReady),
// or ctx is canceled (ctx.Err()).
func (rp RetryPolicy) Wait(ctx context.Context, ready func() bool) error {
	interval := rp.Interval
	if interval <= 0 {
		interval = DefaultRetryPolicy.Interval
	}

	for attempt := 0; ; attempt++ {
		if ready() {
			return nil
		}

		if attempt >= rp.Attempts {
			return ErrNotReady
		}

		if cancelableSleep(ctx, interval) {
			return ctx.Err()
		}
	}
}

func cancelableSleep(ctx context.Context, delay time.Duration) bool {
	wake := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		wake.Stop()
		return true
	case <-wake.C:
		return false
	}
}
