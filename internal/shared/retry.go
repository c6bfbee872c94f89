package shared

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Retry calls fn until it succeeds, attempts run out or ctx is done,
// sleeping with exponential backoff between calls.
func Retry(ctx context.Context, what string, attempts int, fn func(context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		wait := Backoff(i)
		log.Warn().Err(err).Str("what", what).Int("attempt", i+1).Dur("wait", wait).Msg("retrying")
		if !SleepCtx(ctx, wait) {
			return fmt.Errorf("%s: %w", what, ctx.Err())
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", what, attempts, err)
}

// SleepCtx waits for d or returns false early if ctx is done.
func SleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Backoff doubles from 200ms per attempt (0,1,2,...) and adds up to +50% jitter.
func Backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
