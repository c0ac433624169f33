package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Environment string

	Server    ServerConfig
	Redis     RedisConfig
	Scylla    ScyllaConfig
	Kafka     KafkaConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Lockout   LockoutConfig
	Token     TokenConfig
	Hashing   HashingConfig

	// Warnings collects non-fatal parse problems (e.g. malformed overrides)
	// so the factory can log them once the logger is up.
	Warnings []string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	// URL is a redis:// or rediss:// connection string. Empty URL selects
	// the in-process fallback store (single-instance deployments only).
	URL      string
	Password string
	DB       int
	PoolSize int
}

type ScyllaConfig struct {
	Hosts    []string
	Keyspace string
	Timeout  time.Duration
}

type KafkaConfig struct {
	Enabled             bool
	Brokers             []string
	SecurityEventsTopic string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// PolicyOverride replaces the compiled-in policy fields for one action.
type PolicyOverride struct {
	MaxAttempts   int
	WindowMinutes int
	BlockMinutes  int
}

type RateLimitConfig struct {
	// Enabled is the global kill-switch; false disables all limiting.
	Enabled     bool
	BypassPaths []string
	Overrides   map[string]PolicyOverride
}

type LockoutConfig struct {
	MaxAttempts int
	Window      time.Duration
	Block       time.Duration
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
	// RevocationFallbackTTL is used for denylist markers when the token's
	// own expiry cannot be determined.
	RevocationFallbackTTL time.Duration
}

type HashingConfig struct {
	Argon2MemoryCost  int
	Argon2TimeCost    int
	Argon2Parallelism int
}

// LoadConfig reads configuration from the environment, optionally seeded
// from a .env file when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 50),
		},
		Scylla: ScyllaConfig{
			Hosts:    splitList(getEnv("SCYLLA_HOSTS", "")),
			Keyspace: getEnv("SCYLLA_KEYSPACE", "skillswap"),
			Timeout:  getEnvDuration("SCYLLA_TIMEOUT", 5*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:             getEnvBool("KAFKA_ENABLED", false),
			Brokers:             splitList(getEnv("KAFKA_BROKERS", "")),
			SecurityEventsTopic: getEnv("KAFKA_SECURITY_EVENTS_TOPIC", "security-events"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getEnvBool("RATE_LIMIT_ENABLED", true),
			BypassPaths: splitList(getEnv("RATE_LIMIT_BYPASS_PATHS", "")),
		},
		Lockout: LockoutConfig{
			MaxAttempts: getEnvInt("LOGIN_FAILURE_MAX_ATTEMPTS", 5),
			Window:      time.Duration(getEnvInt("LOGIN_FAILURE_WINDOW_MINUTES", 15)) * time.Minute,
			Block:       time.Duration(getEnvInt("LOGIN_FAILURE_BLOCK_MINUTES", 60)) * time.Minute,
		},
		Token: TokenConfig{
			Secret:                getEnv("TOKEN_SECRET", "dev-only-secret"),
			TTL:                   getEnvDuration("TOKEN_TTL", 24*time.Hour),
			RevocationFallbackTTL: getEnvDuration("TOKEN_REVOCATION_FALLBACK_TTL", 24*time.Hour),
		},
		Hashing: HashingConfig{
			Argon2MemoryCost:  getEnvInt("ARGON2_MEMORY_COST", 64*1024),
			Argon2TimeCost:    getEnvInt("ARGON2_TIME_COST", 3),
			Argon2Parallelism: getEnvInt("ARGON2_PARALLELISM", 2),
		},
	}

	cfg.RateLimit.Overrides = cfg.parseOverrides(getEnv("RATE_LIMIT_OVERRIDES", ""))

	return cfg
}

// parseOverrides parses "action:max:window:block" entries separated by commas.
// Malformed entries are skipped; the compiled-in default for that action stays
// in effect.
func (c *Config) parseOverrides(raw string) map[string]PolicyOverride {
	overrides := make(map[string]PolicyOverride)
	if raw == "" {
		return overrides
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			c.Warnings = append(c.Warnings, fmt.Sprintf("rate limit override %q: want action:max:window:block", entry))
			continue
		}
		max, err1 := strconv.Atoi(parts[1])
		window, err2 := strconv.Atoi(parts[2])
		block, err3 := strconv.Atoi(parts[3])
		if err1 != nil || err2 != nil || err3 != nil || max < 1 || window < 1 || block < 1 {
			c.Warnings = append(c.Warnings, fmt.Sprintf("rate limit override %q: non-numeric or out-of-range values", entry))
			continue
		}
		overrides[parts[0]] = PolicyOverride{
			MaxAttempts:   max,
			WindowMinutes: window,
			BlockMinutes:  block,
		}
	}
	return overrides
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// UseMemoryStore reports whether the in-process fallback store is selected.
func (c *Config) UseMemoryStore() bool {
	return c.Redis.URL == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
