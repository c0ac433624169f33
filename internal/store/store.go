// Package store provides the TTL-keyed key/value abstraction shared by the
// rate limiter, the login lockout guard and the token revocation ledger.
//
// Any error other than ErrNotFound means the backing store is unavailable.
// Callers treat that condition as "no state recorded" and fail open; it is
// never surfaced to the end user as a hard error.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key is absent or has expired.
var ErrNotFound = errors.New("store: key not found")

// Store is a key/value store with per-key expiration.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key with the given TTL, replacing any
	// previous value and TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Exists reports whether key currently holds a live value.
	Exists(ctx context.Context, key string) (bool, error)

	// Increment atomically increments the integer counter at key and
	// re-arms its TTL, returning the post-increment value.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Ping is the liveness probe used by dual-path callers to branch
	// before a check whose degraded behavior differs.
	Ping(ctx context.Context) error
}
