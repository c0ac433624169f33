package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillswap/internal/config"
	"skillswap/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(s.Close)
	return NewLedger(s, config.TokenConfig{RevocationFallbackTTL: time.Hour}), s
}

func TestRevokeThenCheck(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	if ledger.IsRevoked(ctx, "jti-1") {
		t.Error("unrevoked token reported as revoked")
	}

	ledger.Revoke(ctx, "jti-1", time.Now().Add(time.Hour))

	if !ledger.IsRevoked(ctx, "jti-1") {
		t.Error("revoked token reported as valid")
	}
	if ledger.IsRevoked(ctx, "jti-2") {
		t.Error("unrelated token reported as revoked")
	}
}

func TestMarkerTTLDerivedFromExpiry(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	// Marker inherits the token's short remaining lifetime, not the
	// fallback TTL.
	ledger.Revoke(ctx, "jti-1", time.Now().Add(30*time.Millisecond))
	if !ledger.IsRevoked(ctx, "jti-1") {
		t.Fatal("freshly revoked token reported as valid")
	}

	time.Sleep(60 * time.Millisecond)

	if ledger.IsRevoked(ctx, "jti-1") {
		t.Error("marker survived the token's own expiry")
	}
}

func TestRevokeExpiredTokenWritesNothing(t *testing.T) {
	ledger, s := newTestLedger(t)
	ctx := context.Background()

	ledger.Revoke(ctx, "jti-1", time.Now().Add(-time.Minute))

	if _, err := s.Get(ctx, markerPrefix+"jti-1"); err != store.ErrNotFound {
		t.Errorf("marker written for an already expired token: err = %v", err)
	}
}

func TestFallbackTTLWhenExpiryUnknown(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	ledger.Revoke(ctx, "jti-1", time.Time{})

	if !ledger.IsRevoked(ctx, "jti-1") {
		t.Error("token revoked with unknown expiry reported as valid")
	}
}

// degradedStore fails every call, as a partitioned backend would.
type degradedStore struct{}

var errDegraded = errors.New("store unreachable")

func (degradedStore) Get(ctx context.Context, key string) (string, error) { return "", errDegraded }
func (degradedStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errDegraded
}
func (degradedStore) Delete(ctx context.Context, keys ...string) error     { return errDegraded }
func (degradedStore) Exists(ctx context.Context, key string) (bool, error) { return false, errDegraded }
func (degradedStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, errDegraded
}
func (degradedStore) Ping(ctx context.Context) error { return errDegraded }

func TestDegradedStoreFailsOpen(t *testing.T) {
	ledger := NewLedger(degradedStore{}, config.TokenConfig{RevocationFallbackTTL: time.Hour})
	ctx := context.Background()

	// Revoke is best-effort; it must not panic or surface the failure.
	ledger.Revoke(ctx, "jti-1", time.Now().Add(time.Hour))

	if ledger.IsRevoked(ctx, "jti-1") {
		t.Error("token rejected while the revocation store is unreachable")
	}
}

// healthyPingStore pings fine but fails the denylist lookup, exercising the
// demotion after a healthy probe.
type healthyPingStore struct{ degradedStore }

func (healthyPingStore) Ping(ctx context.Context) error { return nil }

func TestLookupFailureAfterHealthyProbeFailsOpen(t *testing.T) {
	ledger := NewLedger(healthyPingStore{}, config.TokenConfig{RevocationFallbackTTL: time.Hour})

	if ledger.IsRevoked(context.Background(), "jti-1") {
		t.Error("token rejected when the denylist lookup failed")
	}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		state  StoreState
		marker bool
		want   bool
	}{
		{StoreHealthy, true, true},
		{StoreHealthy, false, false},
		{StoreDegraded, true, false},
		{StoreDegraded, false, false},
	}
	for _, tc := range cases {
		if got := decide(tc.state, tc.marker); got != tc.want {
			t.Errorf("decide(%v, %v) = %v, want %v", tc.state, tc.marker, got, tc.want)
		}
	}
}
