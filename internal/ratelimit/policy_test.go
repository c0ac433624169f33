package ratelimit

import (
	"testing"
	"time"

	"skillswap/internal/config"
)

func TestDefaultPolicies(t *testing.T) {
	registry := NewRegistry(config.RateLimitConfig{Enabled: true})

	login := registry.PolicyFor(ActionLogin)
	if login.MaxAttempts != 5 || login.Window != 15*time.Minute || login.Block != 60*time.Minute {
		t.Errorf("login policy = %+v, want 5 attempts / 15m window / 60m block", login)
	}

	reset := registry.PolicyFor(ActionPasswordReset)
	if reset.MaxAttempts != 3 || reset.Window != 60*time.Minute || reset.Block != 120*time.Minute {
		t.Errorf("password reset policy = %+v, want 3 attempts / 60m window / 120m block", reset)
	}
}

func TestUnknownActionFallsBackToAPI(t *testing.T) {
	registry := NewRegistry(config.RateLimitConfig{Enabled: true})

	got := registry.PolicyFor("something_new")
	want := registry.PolicyFor(ActionAPI)
	if got != want {
		t.Errorf("unknown action policy = %+v, want api policy %+v", got, want)
	}
}

func TestOverrideReplacesDefault(t *testing.T) {
	registry := NewRegistry(config.RateLimitConfig{
		Enabled: true,
		Overrides: map[string]config.PolicyOverride{
			ActionLogin: {MaxAttempts: 10, WindowMinutes: 5, BlockMinutes: 20},
		},
	})

	login := registry.PolicyFor(ActionLogin)
	if login.MaxAttempts != 10 || login.Window != 5*time.Minute || login.Block != 20*time.Minute {
		t.Errorf("overridden login policy = %+v, want 10 attempts / 5m window / 20m block", login)
	}

	// Other actions keep their defaults.
	if register := registry.PolicyFor(ActionRegister); register.MaxAttempts != 3 {
		t.Errorf("register policy changed by unrelated override: %+v", register)
	}
}

func TestBypassPaths(t *testing.T) {
	registry := NewRegistry(config.RateLimitConfig{
		Enabled:     true,
		BypassPaths: []string{"/health", "/api/v1/internal/metrics"},
	})

	if !registry.Bypassed("/health") {
		t.Error("bypassed path reported as limited")
	}
	if registry.Bypassed("/api/v1/auth/login") {
		t.Error("non-bypassed path reported as bypassed")
	}
}

func TestKillSwitch(t *testing.T) {
	if NewRegistry(config.RateLimitConfig{Enabled: false}).Enabled() {
		t.Error("Enabled() = true with kill-switch off")
	}
	if !NewRegistry(config.RateLimitConfig{Enabled: true}).Enabled() {
		t.Error("Enabled() = false with limiting on")
	}
}
