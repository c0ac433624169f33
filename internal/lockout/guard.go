// Package lockout implements escalating account lockout after repeated
// login failures. It is distinct from the generic rate limiter: keyed solely
// by account email, scoped to existing accounts, and exposing an explicit
// locked/unlocked signal the login endpoint checks after credential
// validation.
package lockout

import (
	"context"
	"time"

	"go.uber.org/zap"

	"skillswap/internal/config"
	"skillswap/internal/store"
	"skillswap/internal/util"
)

const (
	attemptPrefix = "lockout_attempts:"
	flagPrefix    = "lockout_flag:"
)

// AccountDirectory answers whether an email belongs to an existing account.
// Lockout state is never created for unknown emails, so attackers cannot
// fill the store by spraying invented addresses. The flip side is that
// lockout behavior differs between real and invented emails, which leaks
// account existence; inherited behavior, left as is.
type AccountDirectory interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Guard tracks login failures per email and flips a lock flag once the
// threshold is reached. Both records expire on their own; a successful
// login clears them early.
type Guard struct {
	store       store.Store
	accounts    AccountDirectory
	maxAttempts int
	window      time.Duration
	block       time.Duration
}

func NewGuard(s store.Store, accounts AccountDirectory, cfg config.LockoutConfig) *Guard {
	return &Guard{
		store:       s,
		accounts:    accounts,
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
		block:       cfg.Block,
	}
}

// IsLocked reports whether the account is currently locked. Unknown emails
// and store failures both read as unlocked.
func (g *Guard) IsLocked(ctx context.Context, email string) bool {
	email = util.NormalizeEmail(email)

	exists, err := g.accounts.EmailExists(ctx, email)
	if err != nil {
		g.failOpen("account lookup failed", email, err)
		return false
	}
	if !exists {
		return false
	}

	locked, err := g.store.Exists(ctx, flagPrefix+email)
	if err != nil {
		g.failOpen("lock flag check failed", email, err)
		return false
	}
	return locked
}

// RegisterFailure records one failed login attempt. It returns true when
// this failure locked the account. A no-op for emails with no account.
func (g *Guard) RegisterFailure(ctx context.Context, email string) bool {
	email = util.NormalizeEmail(email)

	exists, err := g.accounts.EmailExists(ctx, email)
	if err != nil {
		g.failOpen("account lookup failed", email, err)
		return false
	}
	if !exists {
		return false
	}

	count, err := g.store.Increment(ctx, attemptPrefix+email, g.window)
	if err != nil {
		g.failOpen("failure counter increment failed", email, err)
		return false
	}

	if count < int64(g.maxAttempts) {
		return false
	}

	if err := g.store.Set(ctx, flagPrefix+email, "locked", g.block); err != nil {
		// Best effort; the failure counter still carries the state.
		g.failOpen("lock flag write failed", email, err)
		return false
	}

	util.Info("account locked after repeated login failures",
		zap.String("email", email),
		zap.Int64("failures", count),
		zap.Duration("block", g.block))
	return true
}

// Reset clears both the failure counter and the lock flag; called on any
// successful authentication.
func (g *Guard) Reset(ctx context.Context, email string) {
	email = util.NormalizeEmail(email)

	if err := g.store.Delete(ctx, attemptPrefix+email, flagPrefix+email); err != nil {
		g.failOpen("lockout reset failed", email, err)
	}
}

func (g *Guard) failOpen(msg, email string, err error) {
	util.Warn("lockout store degraded: "+msg,
		zap.String("email", email),
		zap.Error(err))
}
