package factory

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"skillswap/internal/client"
	"skillswap/internal/config"
	"skillswap/internal/events"
	"skillswap/internal/handler"
	"skillswap/internal/hashing"
	"skillswap/internal/lockout"
	"skillswap/internal/ratelimit"
	"skillswap/internal/repository/memory"
	"skillswap/internal/repository/scylla"
	"skillswap/internal/revocation"
	"skillswap/internal/service"
	"skillswap/internal/store"
	"skillswap/internal/token"
	"skillswap/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config *config.Config

	// Clients
	redisClient   *client.RedisClient
	scyllaClient  *scylla.ScyllaClient
	kafkaProducer *client.KafkaProducer
	memoryStore   *store.MemoryStore

	// Core components
	ttlStore  store.Store
	accounts  scylla.AccountRepository
	hasher    *hashing.Hasher
	issuer    *token.Issuer
	registry  *ratelimit.Registry
	limiter   *ratelimit.Limiter
	guard     *lockout.Guard
	ledger    *revocation.Ledger
	publisher *events.Publisher

	authService *service.AuthService

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	for _, warning := range cfg.Warnings {
		util.Warn("configuration warning", util.String("detail", warning))
	}

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	factory.initializeComponents()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("memory_store", factory.memoryStore != nil),
		util.Bool("rate_limiting_enabled", cfg.RateLimit.Enabled),
		util.Bool("kafka_enabled", cfg.Kafka.Enabled),
	)

	return factory, nil
}

// initializeClients connects the external dependencies. The TTL store and
// account directory have in-process fallbacks outside production; Kafka is
// always optional.
func (f *Factory) initializeClients() error {
	// TTL store: Redis when configured, in-process fallback otherwise
	if f.config.UseMemoryStore() {
		if f.config.IsProduction() {
			return fmt.Errorf("REDIS_URL is required in production")
		}
		f.memoryStore = store.NewMemoryStore()
		f.ttlStore = f.memoryStore
		util.Warn("No Redis URL configured - using in-process TTL store (single instance only)")
	} else {
		redisClient, err := client.NewRedisClient(f.config, util.Get())
		if err != nil {
			if f.config.IsProduction() {
				return fmt.Errorf("redis: %w", err)
			}
			// Degraded start: the core fails open without its store.
			util.Warn("Redis unavailable at startup - falling back to in-process TTL store", util.ErrorField(err))
			f.memoryStore = store.NewMemoryStore()
			f.ttlStore = f.memoryStore
		} else {
			f.redisClient = redisClient
			f.ttlStore = store.NewRedisStore(redisClient)
		}
	}

	// Account directory: ScyllaDB when configured
	if len(f.config.Scylla.Hosts) > 0 {
		scyllaClient, err := scylla.NewScyllaClient(f.config, util.Get())
		if err != nil {
			return fmt.Errorf("scylla: %w", err)
		}
		f.scyllaClient = scyllaClient
		f.accounts = scylla.NewAccountDirectory(scyllaClient)
	} else {
		if f.config.IsProduction() {
			return fmt.Errorf("SCYLLA_HOSTS is required in production")
		}
		util.Warn("No Scylla hosts configured - using in-process account repository")
		f.accounts = memory.NewAccountRepository()
	}

	// Kafka: best-effort event stream
	if f.config.Kafka.Enabled {
		if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
			util.Warn("Kafka producer initialization failed - proceeding without security events", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
		}
	}

	return nil
}

func (f *Factory) initializeComponents() {
	f.hasher = hashing.NewHasher(f.config)
	f.issuer = token.NewIssuer(f.config.Token)
	f.registry = ratelimit.NewRegistry(f.config.RateLimit)
	f.limiter = ratelimit.NewLimiter(f.ttlStore, f.registry)
	f.guard = lockout.NewGuard(f.ttlStore, f.accounts, f.config.Lockout)
	f.ledger = revocation.NewLedger(f.ttlStore, f.config.Token)
	f.publisher = events.NewPublisher(f.kafkaProducer, f.config.Kafka.SecurityEventsTopic)

	f.authService = service.NewAuthService(
		f.accounts,
		f.hasher,
		f.issuer,
		f.guard,
		f.ledger,
		f.publisher,
		util.Get(),
	)
}

// HealthCheck probes all external dependencies in parallel.
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	var mu sync.Mutex
	healthErrors := make(map[string]error)
	record := func(name string, err error) {
		mu.Lock()
		healthErrors[name] = err
		mu.Unlock()
	}

	group, ctx := errgroup.WithContext(ctx)

	if f.redisClient != nil {
		group.Go(func() error {
			record("redis", f.redisClient.HealthCheck(ctx))
			return nil
		})
	}
	if f.scyllaClient != nil {
		group.Go(func() error {
			record("scylla", f.scyllaClient.HealthCheck())
			return nil
		})
	}
	if f.kafkaProducer != nil {
		group.Go(func() error {
			record("kafka", f.kafkaProducer.HealthCheck(ctx))
			return nil
		})
	}

	_ = group.Wait()

	return healthErrors
}

// AuthHandler builds the HTTP handler for the auth surface.
func (f *Factory) AuthHandler() *handler.AuthHandler {
	return handler.NewAuthHandler(f.authService, util.Get())
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			}
		}

		if f.scyllaClient != nil {
			f.scyllaClient.Close()
			util.Info("ScyllaDB client closed")
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			}
		}

		if f.memoryStore != nil {
			f.memoryStore.Close()
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}

// Getters

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) AuthService() *service.AuthService {
	return f.authService
}

func (f *Factory) Limiter() *ratelimit.Limiter {
	return f.limiter
}

func (f *Factory) Registry() *ratelimit.Registry {
	return f.registry
}

func (f *Factory) Publisher() *events.Publisher {
	return f.publisher
}
