// Package revocation keeps a best-effort denylist of revoked session token
// identifiers. Revocation degrades, availability does not: while the store
// is unreachable, revoked tokens stay valid until their natural expiry.
package revocation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"skillswap/internal/config"
	"skillswap/internal/store"
	"skillswap/internal/util"
)

const markerPrefix = "revoked_token:"

// StoreState is the capability the dual-path check branches on.
type StoreState int

const (
	StoreHealthy StoreState = iota
	StoreDegraded
)

// Ledger writes and checks denylist markers keyed by token id (jti).
type Ledger struct {
	store       store.Store
	fallbackTTL time.Duration
}

func NewLedger(s store.Store, cfg config.TokenConfig) *Ledger {
	return &Ledger{
		store:       s,
		fallbackTTL: cfg.RevocationFallbackTTL,
	}
}

// Revoke denylists a token id. The marker TTL is derived from the token's
// remaining lifetime so it outlives the token by no more than necessary;
// the fallback TTL applies when the expiry is unknown. Write failures are
// logged and swallowed: revocation is explicitly best-effort.
func (l *Ledger) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) {
	ttl := l.fallbackTTL
	if !expiresAt.IsZero() {
		remaining := time.Until(expiresAt)
		if remaining <= 0 {
			// Already expired; nothing to deny.
			return
		}
		ttl = remaining
	}

	if err := l.store.Set(ctx, markerPrefix+tokenID, "revoked", ttl); err != nil {
		util.Warn("token revocation write failed, token stays valid until expiry",
			zap.String("token_id", tokenID),
			zap.Error(err))
		return
	}

	util.Info("token revoked",
		zap.String("token_id", tokenID),
		zap.Duration("marker_ttl", ttl))
}

// IsRevoked reports whether the token id is denylisted. The store is probed
// first; when degraded, the denylist check is skipped entirely and the
// token is treated as not revoked.
func (l *Ledger) IsRevoked(ctx context.Context, tokenID string) bool {
	state := l.probe(ctx, tokenID)

	present := false
	if state == StoreHealthy {
		var err error
		present, err = l.store.Exists(ctx, markerPrefix+tokenID)
		if err != nil {
			util.Warn("revocation check failed after healthy probe, failing open",
				zap.String("token_id", tokenID),
				zap.Error(err))
			state = StoreDegraded
		}
	}

	return decide(state, present)
}

func (l *Ledger) probe(ctx context.Context, tokenID string) StoreState {
	if err := l.store.Ping(ctx); err != nil {
		util.Warn("revocation store degraded, skipping denylist check",
			zap.String("token_id", tokenID),
			zap.Error(err))
		return StoreDegraded
	}
	return StoreHealthy
}

// decide is the pure dual-path rule: a marker only counts while the store
// is healthy.
func decide(state StoreState, markerPresent bool) bool {
	return state == StoreHealthy && markerPresent
}
