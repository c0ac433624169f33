package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"

	"skillswap/internal/store"
	"skillswap/internal/util"
)

const counterPrefix = "rate_limit:"

// attemptWindow is the stored counter record for one (identifier, action)
// pair. It lives in the TTL store only; losing it resets the count, which
// the fail-open design accepts.
type attemptWindow struct {
	Attempts       int       `json:"attempts"`
	FirstAttemptAt time.Time `json:"first_attempt_at"`
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetTime *time.Time
}

// Limiter applies the registry's policies to attempt counters kept in the
// TTL store. It is a fixed-window counter with block extension: once a
// window fills, every further request re-arms the block TTL, so the block
// slides forward under continued traffic. Bursts straddling a window
// boundary can admit up to twice MaxAttempts; accepted for simplicity.
//
// The get/compute/set sequence is not atomic. Concurrent requests for the
// same identifier can under-count by racing between read and write; this is
// acceptable for approximate abuse mitigation.
type Limiter struct {
	store      store.Store
	registry   *Registry
	hasherPool sync.Pool
}

func NewLimiter(s store.Store, registry *Registry) *Limiter {
	return &Limiter{
		store:    s,
		registry: registry,
		hasherPool: sync.Pool{
			New: func() interface{} {
				return murmur3.New64()
			},
		},
	}
}

// counterKey builds "rate_limit:<action>:<hash(identifier)>". Hashing keeps
// raw addresses and user ids out of store keys and bounds key length.
func (l *Limiter) counterKey(action, identifier string) string {
	h := l.hasherPool.Get().(hash.Hash64)
	h.Reset()
	_, _ = io.WriteString(h, identifier)
	sum := h.Sum64()
	l.hasherPool.Put(h)
	return fmt.Sprintf("%s%s:%016x", counterPrefix, action, sum)
}

// Allow admits or rejects one request for the given identifier and action.
// Store failures never reject: they are logged and the request is allowed.
func (l *Limiter) Allow(ctx context.Context, identifier, action string) Decision {
	policy := l.registry.PolicyFor(action)

	if !l.registry.Enabled() {
		return Decision{Allowed: true, Remaining: policy.MaxAttempts}
	}

	key := l.counterKey(action, identifier)
	now := time.Now().UTC()

	raw, err := l.store.Get(ctx, key)
	if err != nil && err != store.ErrNotFound {
		l.failOpen(action, identifier, err)
		return Decision{Allowed: true, Remaining: policy.MaxAttempts}
	}

	var window attemptWindow
	fresh := err == store.ErrNotFound
	if !fresh {
		if err := json.Unmarshal([]byte(raw), &window); err != nil {
			// Corrupt record: same treatment as no state recorded.
			l.failOpen(action, identifier, err)
			fresh = true
		}
	}

	// Blocked while the filled record survives. The record's TTL carries the
	// block: re-writing it here slides the block forward under continued
	// traffic, and the window-elapsed check below must not resurrect a
	// blocked identifier early.
	if !fresh && window.Attempts >= policy.MaxAttempts {
		l.writeWindow(ctx, key, window, policy.Block, action, identifier)
		retryAt := now.Add(policy.Block)
		return Decision{Allowed: false, Remaining: 0, ResetTime: &retryAt}
	}

	// New window, or the previous one ran out.
	if fresh || now.Sub(window.FirstAttemptAt) > policy.Window {
		window = attemptWindow{Attempts: 1, FirstAttemptAt: now}
		l.writeWindow(ctx, key, window, policy.Window, action, identifier)
		reset := window.FirstAttemptAt.Add(policy.Window)
		return Decision{Allowed: true, Remaining: policy.MaxAttempts - 1, ResetTime: &reset}
	}

	reset := window.FirstAttemptAt.Add(policy.Window)

	window.Attempts++
	l.writeWindow(ctx, key, window, policy.Window, action, identifier)

	remaining := policy.MaxAttempts - window.Attempts
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining, ResetTime: &reset}
}

// RemainingAttempts returns how many attempts are left in the current
// window without recording one.
func (l *Limiter) RemainingAttempts(ctx context.Context, identifier, action string) int {
	policy := l.registry.PolicyFor(action)

	window, ok := l.readWindow(ctx, identifier, action)
	if !ok {
		return policy.MaxAttempts
	}
	if window.Attempts >= policy.MaxAttempts {
		return 0
	}
	if time.Now().UTC().Sub(window.FirstAttemptAt) > policy.Window {
		return policy.MaxAttempts
	}

	remaining := policy.MaxAttempts - window.Attempts
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ResetTime returns when the current window ends, or nil if no window is
// recorded.
func (l *Limiter) ResetTime(ctx context.Context, identifier, action string) *time.Time {
	policy := l.registry.PolicyFor(action)

	window, ok := l.readWindow(ctx, identifier, action)
	if !ok {
		return nil
	}
	reset := window.FirstAttemptAt.Add(policy.Window)
	return &reset
}

func (l *Limiter) readWindow(ctx context.Context, identifier, action string) (attemptWindow, bool) {
	key := l.counterKey(action, identifier)

	raw, err := l.store.Get(ctx, key)
	if err != nil {
		if err != store.ErrNotFound {
			l.failOpen(action, identifier, err)
		}
		return attemptWindow{}, false
	}

	var window attemptWindow
	if err := json.Unmarshal([]byte(raw), &window); err != nil {
		l.failOpen(action, identifier, err)
		return attemptWindow{}, false
	}
	return window, true
}

func (l *Limiter) writeWindow(ctx context.Context, key string, window attemptWindow, ttl time.Duration, action, identifier string) {
	payload, err := json.Marshal(window)
	if err != nil {
		l.failOpen(action, identifier, err)
		return
	}
	if err := l.store.Set(ctx, key, string(payload), ttl); err != nil {
		l.failOpen(action, identifier, err)
	}
}

func (l *Limiter) failOpen(action, identifier string, err error) {
	util.Warn("rate limit store unavailable, failing open",
		zap.String("action", action),
		zap.String("identifier", identifier),
		zap.Error(err))
}
