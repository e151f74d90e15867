package cache

import (
	"context"
	"errors"
)

// ErrUnavailable wraps every backend failure. Callers treat it as a miss.
var ErrUnavailable = errors.New("cache unavailable")

// Store is the byte-level contract shared by the in-process and the networked
// caches. Get on an expired or evicted key reports a miss, not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
}
