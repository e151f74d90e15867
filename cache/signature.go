package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/omni/pds-gateway/logging"
	"github.com/omni/pds-gateway/utils"
)

type State string

const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailed  State = "failed"
)

type Entry struct {
	State State           `json:"state"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type WaitResult int

const (
	WaitSuccess WaitResult = iota
	WaitFailed
	WaitTimeout
	WaitCancelled
)

func (r WaitResult) String() string {
	switch r {
	case WaitSuccess:
		return "success"
	case WaitFailed:
		return "failed"
	case WaitTimeout:
		return "timeout"
	default:
		return "cancelled"
	}
}

// SignatureCache implements the pending/success/failed protocol on top of a
// Store. Backend failures never escape: they are logged and read as a miss.
type SignatureCache struct {
	store          Store
	logger         logging.Logger
	pendingTimeout time.Duration
	pollInterval   time.Duration
}

func NewSignatureCache(logger logging.Logger, store Store, pendingTimeout, pollInterval time.Duration) *SignatureCache {
	return &SignatureCache{
		store:          store,
		logger:         logger,
		pendingTimeout: pendingTimeout,
		pollInterval:   pollInterval,
	}
}

func (c *SignatureCache) Lookup(ctx context.Context, key string) (*Entry, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("can't read signature cache, treating as miss")
		Lookups.WithLabelValues("error").Inc()
		return nil, false
	}
	if !ok {
		Lookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	entry := new(Entry)
	if err = json.Unmarshal(raw, entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("can't decode signature cache entry, treating as miss")
		Lookups.WithLabelValues("error").Inc()
		return nil, false
	}
	Lookups.WithLabelValues(string(entry.State)).Inc()
	return entry, true
}

// Claim moves an absent key to pending. It returns false when another request
// already owns the key. An unavailable backend lets the caller proceed.
func (c *SignatureCache) Claim(ctx context.Context, key string) bool {
	raw, err := encodeEntry(&Entry{State: StatePending})
	if err != nil {
		c.logger.WithError(err).Error("can't encode pending entry")
		return true
	}
	ok, err := c.store.SetNX(ctx, key, raw)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("can't claim signature cache key")
		return true
	}
	return ok
}

func (c *SignatureCache) MarkPending(ctx context.Context, key string) {
	c.set(ctx, key, &Entry{State: StatePending})
}

func (c *SignatureCache) MarkSuccess(ctx context.Context, key string, data []byte) {
	c.set(ctx, key, &Entry{State: StateSuccess, Data: data})
}

func (c *SignatureCache) MarkFailed(ctx context.Context, key string) {
	c.set(ctx, key, &Entry{State: StateFailed})
}

func (c *SignatureCache) set(ctx context.Context, key string, entry *Entry) {
	raw, err := encodeEntry(entry)
	if err != nil {
		c.logger.WithError(err).WithField("state", entry.State).Error("can't encode signature cache entry")
		return
	}
	if err = c.store.Set(ctx, key, raw); err != nil {
		c.logger.WithError(err).WithField("key", key).WithField("state", entry.State).
			Warn("can't write signature cache entry")
	}
}

// Wait polls a pending key until its owner stores a result or the pending
// timeout elapses. A timeout, a failed owner or a vanished entry all tell the
// caller to go upstream itself. When the deadline and the owner's transition
// race, the deadline wins.
func (c *SignatureCache) Wait(ctx context.Context, key string) (*Entry, WaitResult) {
	res, entry := c.wait(ctx, key)
	Waits.WithLabelValues(res.String()).Inc()
	return entry, res
}

func (c *SignatureCache) wait(ctx context.Context, key string) (WaitResult, *Entry) {
	deadline := time.Now().Add(c.pendingTimeout)
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for {
		if !utils.ContextSleep(waitCtx, c.pollInterval) {
			if ctx.Err() != nil {
				return WaitCancelled, nil
			}
			return WaitTimeout, nil
		}
		if !time.Now().Before(deadline) {
			return WaitTimeout, nil
		}
		entry, ok := c.Lookup(ctx, key)
		if !ok {
			return WaitFailed, nil
		}
		switch entry.State {
		case StateSuccess:
			return WaitSuccess, entry
		case StateFailed:
			return WaitFailed, nil
		case StatePending:
		default:
			return WaitFailed, nil
		}
	}
}

func encodeEntry(entry *Entry) ([]byte, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("can't marshal cache entry: %w", err)
	}
	return raw, nil
}
