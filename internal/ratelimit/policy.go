package ratelimit

import (
	"time"

	"skillswap/internal/config"
)

// Known action names. Anything else falls back to the generic api policy.
const (
	ActionLogin             = "login"
	ActionRegister          = "register"
	ActionEmailVerification = "email_verification"
	ActionPasswordReset     = "password_reset"
	ActionAPI               = "api"
	ActionEmailCheck        = "email_check"
)

// Policy is the immutable per-action throttling configuration.
// Block < Window is allowed (inherited behavior), though Block >= Window is
// the sensible configuration.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
	Block       time.Duration
}

func defaultPolicies() map[string]Policy {
	return map[string]Policy{
		ActionLogin:             {MaxAttempts: 5, Window: 15 * time.Minute, Block: 60 * time.Minute},
		ActionRegister:          {MaxAttempts: 3, Window: 15 * time.Minute, Block: 30 * time.Minute},
		ActionEmailVerification: {MaxAttempts: 5, Window: 15 * time.Minute, Block: 60 * time.Minute},
		ActionPasswordReset:     {MaxAttempts: 3, Window: 60 * time.Minute, Block: 120 * time.Minute},
		ActionAPI:               {MaxAttempts: 1000, Window: 60 * time.Minute, Block: 60 * time.Minute},
		ActionEmailCheck:        {MaxAttempts: 30, Window: 10 * time.Minute, Block: 30 * time.Minute},
	}
}

// Registry resolves the effective Policy per action: compiled-in defaults,
// replaced per action by deployment-time overrides, plus the global
// kill-switch and the per-path bypass list.
type Registry struct {
	enabled  bool
	policies map[string]Policy
	bypass   map[string]struct{}
}

func NewRegistry(cfg config.RateLimitConfig) *Registry {
	policies := defaultPolicies()
	for action, override := range cfg.Overrides {
		policies[action] = Policy{
			MaxAttempts: override.MaxAttempts,
			Window:      time.Duration(override.WindowMinutes) * time.Minute,
			Block:       time.Duration(override.BlockMinutes) * time.Minute,
		}
	}

	bypass := make(map[string]struct{}, len(cfg.BypassPaths))
	for _, path := range cfg.BypassPaths {
		bypass[path] = struct{}{}
	}

	return &Registry{
		enabled:  cfg.Enabled,
		policies: policies,
		bypass:   bypass,
	}
}

// Enabled reports the global kill-switch state.
func (r *Registry) Enabled() bool {
	return r.enabled
}

// PolicyFor returns the effective policy for an action; unknown actions get
// the generic api policy.
func (r *Registry) PolicyFor(action string) Policy {
	if policy, ok := r.policies[action]; ok {
		return policy
	}
	return r.policies[ActionAPI]
}

// Bypassed reports whether the request path skips limiting entirely.
func (r *Registry) Bypassed(path string) bool {
	_, ok := r.bypass[path]
	return ok
}
