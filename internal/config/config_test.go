package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.GetServerAddress() != "0.0.0.0:8080" {
		t.Errorf("GetServerAddress = %q, want 0.0.0.0:8080", cfg.GetServerAddress())
	}
	if !cfg.RateLimit.Enabled {
		t.Error("rate limiting disabled by default")
	}
	if cfg.Lockout.MaxAttempts != 5 || cfg.Lockout.Window != 15*time.Minute || cfg.Lockout.Block != 60*time.Minute {
		t.Errorf("Lockout = %+v, want 5 attempts / 15m window / 60m block", cfg.Lockout)
	}
	if cfg.Token.TTL != 24*time.Hour {
		t.Errorf("Token.TTL = %v, want 24h", cfg.Token.TTL)
	}
	if !cfg.UseMemoryStore() {
		t.Error("UseMemoryStore = false with no Redis URL")
	}
	if cfg.IsProduction() {
		t.Error("IsProduction = true in development")
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOGIN_FAILURE_MAX_ATTEMPTS", "7")
	t.Setenv("LOGIN_FAILURE_WINDOW_MINUTES", "5")
	t.Setenv("LOGIN_FAILURE_BLOCK_MINUTES", "10")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_BYPASS_PATHS", "/health, /metrics")

	cfg := LoadConfig()

	if !cfg.IsProduction() {
		t.Error("IsProduction = false, want true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.UseMemoryStore() {
		t.Error("UseMemoryStore = true with a Redis URL set")
	}
	if cfg.Lockout.MaxAttempts != 7 || cfg.Lockout.Window != 5*time.Minute || cfg.Lockout.Block != 10*time.Minute {
		t.Errorf("Lockout = %+v, want 7 attempts / 5m window / 10m block", cfg.Lockout)
	}
	if cfg.Token.TTL != time.Hour {
		t.Errorf("Token.TTL = %v, want 1h", cfg.Token.TTL)
	}
	if cfg.RateLimit.Enabled {
		t.Error("RateLimit.Enabled = true, want false")
	}
	want := []string{"/health", "/metrics"}
	if len(cfg.RateLimit.BypassPaths) != len(want) {
		t.Fatalf("BypassPaths = %v, want %v", cfg.RateLimit.BypassPaths, want)
	}
	for i := range want {
		if cfg.RateLimit.BypassPaths[i] != want[i] {
			t.Errorf("BypassPaths[%d] = %q, want %q", i, cfg.RateLimit.BypassPaths[i], want[i])
		}
	}
}

func TestParseOverrides(t *testing.T) {
	cfg := &Config{}
	overrides := cfg.parseOverrides("login:10:5:20, api:500:30:60")

	if len(overrides) != 2 {
		t.Fatalf("parsed %d overrides, want 2", len(overrides))
	}
	login := overrides["login"]
	if login.MaxAttempts != 10 || login.WindowMinutes != 5 || login.BlockMinutes != 20 {
		t.Errorf("login override = %+v, want 10:5:20", login)
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", cfg.Warnings)
	}
}

func TestParseOverridesMalformedEntriesSkipped(t *testing.T) {
	cfg := &Config{}
	overrides := cfg.parseOverrides("login:10:5:20, broken, register:x:5:20, reset:0:5:20")

	if len(overrides) != 1 {
		t.Fatalf("parsed %d overrides, want 1 (only the valid entry)", len(overrides))
	}
	if _, ok := overrides["login"]; !ok {
		t.Error("valid login override missing")
	}
	if len(cfg.Warnings) != 3 {
		t.Errorf("got %d warnings, want 3: %v", len(cfg.Warnings), cfg.Warnings)
	}
}

func TestParseOverridesEmpty(t *testing.T) {
	cfg := &Config{}
	if overrides := cfg.parseOverrides(""); len(overrides) != 0 {
		t.Errorf("parsed %d overrides from empty input, want 0", len(overrides))
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", cfg.Warnings)
	}
}

func TestLoadConfigOverridesFromEnvironment(t *testing.T) {
	t.Setenv("RATE_LIMIT_OVERRIDES", "login:2:1:1")

	cfg := LoadConfig()

	override, ok := cfg.RateLimit.Overrides["login"]
	if !ok {
		t.Fatal("login override missing")
	}
	if override.MaxAttempts != 2 || override.WindowMinutes != 1 || override.BlockMinutes != 1 {
		t.Errorf("override = %+v, want 2:1:1", override)
	}
}

func TestSplitList(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a,b,c", 3},
		{" a , , b ", 2},
	}
	for _, tc := range cases {
		if got := splitList(tc.raw); len(got) != tc.want {
			t.Errorf("splitList(%q) = %v, want %d items", tc.raw, got, tc.want)
		}
	}
}
