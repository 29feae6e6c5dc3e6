package cache

import (
	"context"
	"errors"
	"time"
)

// Package cache contains the key-value store abstraction backing short-lived
// server state: emailed passcodes (with TTL) and cached listing views keyed by
// revalidation path.

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache: key not found")

// Store is a minimal TTL-aware key-value store.
type Store interface {
	// Set stores value under key with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value stored under key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Del removes key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error
}
