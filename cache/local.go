package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LocalStore is a bounded in-process store: least recently used entries are
// evicted on overflow and every entry expires ttl after its last write.
type LocalStore struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, []byte]
}

func NewLocalStore(size int, ttl time.Duration) *LocalStore {
	return &LocalStore{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

func (s *LocalStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lru.Add(key, copyBytes(value))
	return nil
}

func (s *LocalStore) SetNX(_ context.Context, key string, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lru.Get(key); ok {
		return false, nil
	}
	s.lru.Add(key, copyBytes(value))
	return true, nil
}

func (s *LocalStore) Len() int {
	return s.lru.Len()
}

func copyBytes(b []byte) []byte {
	res := make([]byte, len(b))
	copy(res, b)
	return res
}
