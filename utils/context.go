package utils

import (
	"context"
	"time"
)

// ContextSleep blocks for d or until ctx is done, whichever comes first.
// It returns false when the sleep was interrupted by the context.
func ContextSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
