package di

import (
	"context"
	"fmt"
	"time"

	"task-tracker/application/serviceimpl"
	"task-tracker/domain/ports"
	"task-tracker/domain/repositories"
	"task-tracker/domain/services"
	"task-tracker/infrastructure/memory"
	natspkg "task-tracker/infrastructure/nats"
	neo4jpkg "task-tracker/infrastructure/neo4j"
	"task-tracker/infrastructure/postgres"
	redispkg "task-tracker/infrastructure/redis"
	"task-tracker/infrastructure/storage"
	"task-tracker/interfaces/api/handlers"
	"task-tracker/pkg/config"
	"task-tracker/pkg/logger"
	"task-tracker/pkg/scheduler"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"gorm.io/gorm"
)

type Container struct {
	// Configuration
	Config  *config.Config
	options options

	// Infrastructure
	DB             *gorm.DB
	Neo4jDriver    neo4j.DriverWithContext
	RedisClient    *redispkg.Client // optional
	NATSClient     *natspkg.Client  // optional
	Storage        ports.StoragePort
	EventScheduler scheduler.EventScheduler

	// Ports
	TaskCache      ports.TaskListCache      // nil without Redis
	EventPublisher ports.TaskEventPublisher // no-op without NATS

	// Repositories
	TaskRepository repositories.TaskRepository

	// Services
	TaskService     services.TaskService
	SnapshotService *serviceimpl.SnapshotService
}

type options struct {
	storeType        string
	logOutput        string
	logLevel         string
	disableScheduler bool
}

type Option func(*options)

// WithStore overrides STORE_TYPE.
func WithStore(storeType string) Option {
	return func(o *options) { o.storeType = storeType }
}

// WithLogOutput overrides LOG_OUTPUT.
func WithLogOutput(output string) Option {
	return func(o *options) { o.logOutput = output }
}

// WithLogLevel overrides LOG_LEVEL.
func WithLogLevel(level string) Option {
	return func(o *options) { o.logLevel = level }
}

// WithoutScheduler skips registering and starting scheduled jobs.
func WithoutScheduler() Option {
	return func(o *options) { o.disableScheduler = true }
}

func NewContainer(opts ...Option) *Container {
	c := &Container{}
	for _, opt := range opts {
		opt(&c.options)
	}
	return c
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initLogger(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if c.options.storeType != "" {
		cfg.Store.Type = c.options.storeType
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if c.options.logOutput != "" {
		cfg.Log.Output = c.options.logOutput
	}
	if c.options.logLevel != "" {
		cfg.Log.Level = c.options.logLevel
	}
	c.Config = cfg
	return nil
}

func (c *Container) initLogger() error {
	logConfig := logger.Config{
		Level:      c.Config.Log.Level,
		Format:     c.Config.Log.Format,
		Output:     c.Config.Log.Output,
		FilePath:   c.Config.Log.FilePath,
		MaxSize:    c.Config.Log.MaxSize,
		MaxBackups: c.Config.Log.MaxBackups,
		MaxAge:     c.Config.Log.MaxAge,
		Compress:   c.Config.Log.Compress,
		Service:    c.Config.App.Name,
	}

	if err := logger.Init(logConfig); err != nil {
		return err
	}

	logger.Info("Logger initialized",
		"level", c.Config.Log.Level,
		"format", c.Config.Log.Format,
		"output", c.Config.Log.Output,
	)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Infrastructure
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Container) initInfrastructure() error {
	if err := c.initStore(); err != nil {
		return err
	}

	c.initCache()
	c.initEvents()

	if err := c.initStorage(); err != nil {
		return err
	}
	return nil
}

func (c *Container) initStore() error {
	switch c.Config.Store.Type {
	case config.StorePostgres:
		dbConfig := postgres.DatabaseConfig{
			Host:         c.Config.Database.Host,
			Port:         c.Config.Database.Port,
			User:         c.Config.Database.User,
			Password:     c.Config.Database.Password,
			DBName:       c.Config.Database.DBName,
			SSLMode:      c.Config.Database.SSLMode,
			MaxOpenConns: c.Config.Database.MaxOpenConns,
			MaxIdleConns: c.Config.Database.MaxIdleConns,
			LogQueries:   c.Config.Database.LogQueries,
		}
		db, err := postgres.NewDatabase(dbConfig)
		if err != nil {
			return err
		}
		c.DB = db
		logger.Info("Database connected", "host", c.Config.Database.Host, "db", c.Config.Database.DBName)

		if err := postgres.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("Database migrated")

	case config.StoreNeo4j:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		driver, err := neo4jpkg.NewDriver(ctx, neo4jpkg.Config{
			URI:      c.Config.Neo4j.URI,
			Username: c.Config.Neo4j.Username,
			Password: c.Config.Neo4j.Password,
			Database: c.Config.Neo4j.Database,
		})
		if err != nil {
			return err
		}
		c.Neo4jDriver = driver
		logger.Info("Neo4j connected", "uri", c.Config.Neo4j.URI)

		if err := neo4jpkg.EnsureSchema(ctx, driver, c.Config.Neo4j.Database); err != nil {
			return fmt.Errorf("failed to ensure neo4j schema: %w", err)
		}

	case config.StoreMemory:
		logger.Warn("Using in-memory store, tasks are lost on exit")
	}
	return nil
}

// initCache enables the Redis list cache when REDIS_URL is set.
func (c *Container) initCache() {
	if c.Config.Redis.URL == "" {
		logger.Info("Redis not configured (list cache disabled)")
		return
	}

	redisClient, err := redispkg.NewClient(&c.Config.Redis)
	if err != nil {
		logger.Warn("Redis client initialization failed (list cache disabled)", "error", err)
		return
	}
	c.RedisClient = redisClient

	cache := redispkg.NewTaskCache(redisClient, c.Config.Redis.TTL)

	// Entries written by a previous process may describe another store.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if n, err := cache.Purge(ctx); err != nil {
		logger.Warn("Failed to purge task list cache", "error", err)
	} else if n > 0 {
		logger.Info("Task list cache purged", "keys", n)
	}

	c.TaskCache = cache
	logger.Info("Redis list cache initialized", "url", c.Config.Redis.URL, "ttl", c.Config.Redis.TTL)
}

// initEvents connects the lifecycle event stream when NATS_URL is set.
func (c *Container) initEvents() {
	c.EventPublisher = natspkg.NewNoopPublisher()

	if c.Config.NATS.URL == "" {
		logger.Info("NATS not configured (lifecycle events disabled)")
		return
	}

	natsClient, err := natspkg.NewClient(natspkg.ClientConfig{
		URL:        c.Config.NATS.URL,
		StreamName: c.Config.NATS.Stream,
		MaxAge:     c.Config.NATS.MaxAge,
	})
	if err != nil {
		logger.Warn("NATS client initialization failed (lifecycle events disabled)", "error", err)
		return
	}

	c.NATSClient = natsClient
	c.EventPublisher = natspkg.NewPublisher(natsClient)
	logger.Info("NATS event publisher initialized", "url", c.Config.NATS.URL, "stream", c.Config.NATS.Stream)
}

// initStorage picks the snapshot storage adapter. An unreachable S3 endpoint
// falls back to local disk.
func (c *Container) initStorage() error {
	if c.Config.Storage.Type == "s3" {
		s3Storage, err := storage.NewS3Storage(storage.S3StorageConfig{
			Endpoint:  c.Config.Storage.S3.Endpoint,
			AccessKey: c.Config.Storage.S3.AccessKey,
			SecretKey: c.Config.Storage.S3.SecretKey,
			Bucket:    c.Config.Storage.S3.Bucket,
			UseSSL:    c.Config.Storage.S3.UseSSL,
			Region:    c.Config.Storage.S3.Region,
			PublicURL: c.Config.Storage.S3.PublicURL,
		})
		if err == nil {
			c.Storage = s3Storage
			logger.Info("S3 storage initialized",
				"endpoint", c.Config.Storage.S3.Endpoint,
				"bucket", c.Config.Storage.S3.Bucket,
			)
			return nil
		}
		logger.Warn("S3 storage initialization failed, falling back to local storage", "error", err)
	}

	localStorage, err := storage.NewLocalStorage(storage.LocalStorageConfig{
		BasePath: c.Config.Storage.BasePath,
		BaseURL:  c.Config.Storage.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize local storage: %w", err)
	}
	c.Storage = localStorage
	logger.Info("Local storage initialized", "path", c.Config.Storage.BasePath)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Repositories / Services
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Container) initRepositories() error {
	switch c.Config.Store.Type {
	case config.StorePostgres:
		c.TaskRepository = postgres.NewTaskRepository(c.DB)
	case config.StoreNeo4j:
		c.TaskRepository = neo4jpkg.NewTaskRepository(c.Neo4jDriver, c.Config.Neo4j.Database)
	default:
		c.TaskRepository = memory.NewTaskRepository()
	}
	logger.Info("Repositories initialized", "store", c.Config.Store.Type)
	return nil
}

func (c *Container) initServices() error {
	c.TaskService = serviceimpl.NewTaskService(c.TaskRepository, c.TaskCache, c.EventPublisher)

	c.EventScheduler = scheduler.NewEventScheduler()
	c.SnapshotService = serviceimpl.NewSnapshotService(
		serviceimpl.SnapshotConfig{
			AppName: c.Config.App.Name,
			Prefix:  c.Config.Snapshot.Prefix,
			Cron:    c.Config.Snapshot.Cron,
			Keep:    c.Config.Snapshot.Keep,
		},
		c.TaskRepository,
		c.Storage,
		c.EventScheduler,
	)

	logger.Info("Services initialized",
		"cache", c.TaskCache != nil,
		"events", c.NATSClient != nil,
		"storage", c.Storage.GetProviderName(),
	)
	return nil
}

func (c *Container) initScheduler() error {
	if c.options.disableScheduler || !c.Config.Snapshot.Enabled {
		return nil
	}

	if err := c.SnapshotService.RegisterJob(); err != nil {
		return fmt.Errorf("failed to schedule snapshots: %w", err)
	}
	c.EventScheduler.Start()
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Wiring helpers
// ═══════════════════════════════════════════════════════════════════════════════

// GetHandlerServices collects what the HTTP layer needs.
func (c *Container) GetHandlerServices() *handlers.Services {
	svc := &handlers.Services{
		TaskService:  c.TaskService,
		Snapshots:    c.SnapshotService,
		AppName:      c.Config.App.Name,
		StoreType:    c.Config.Store.Type,
		HealthChecks: c.healthChecks(),
	}
	if c.NATSClient != nil {
		svc.EventStream = c.NATSClient
	}
	return svc
}

func (c *Container) healthChecks() []handlers.HealthCheck {
	checks := []handlers.HealthCheck{{Name: "store"}}

	switch {
	case c.DB != nil:
		checks[0].Check = func(ctx context.Context) error {
			sqlDB, err := c.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	case c.Neo4jDriver != nil:
		checks[0].Check = c.Neo4jDriver.VerifyConnectivity
	default:
		checks[0].Check = func(context.Context) error { return nil }
	}

	cache := handlers.HealthCheck{Name: "cache"}
	if c.RedisClient != nil {
		cache.Check = c.RedisClient.Ping
	}

	events := handlers.HealthCheck{Name: "events"}
	if c.NATSClient != nil {
		events.Check = func(context.Context) error {
			if !c.NATSClient.IsConnected() {
				return fmt.Errorf("nats disconnected")
			}
			return nil
		}
	}

	return append(checks, cache, events)
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) Cleanup() error {
	logger.Info("Starting cleanup...")

	if c.EventScheduler != nil && c.EventScheduler.IsRunning() {
		c.EventScheduler.Stop()
	}

	if c.NATSClient != nil {
		if err := c.NATSClient.Close(); err != nil {
			logger.Warn("Failed to close NATS connection", "error", err)
		} else {
			logger.Info("NATS connection closed")
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.Warn("Failed to close Redis connection", "error", err)
		} else {
			logger.Info("Redis connection closed")
		}
	}

	if c.Neo4jDriver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Neo4jDriver.Close(ctx); err != nil {
			logger.Warn("Failed to close Neo4j driver", "error", err)
		} else {
			logger.Info("Neo4j driver closed")
		}
	}

	if c.DB != nil {
		if err := postgres.Close(c.DB); err != nil {
			logger.Warn("Failed to close database connection", "error", err)
		} else {
			logger.Info("Database connection closed")
		}
	}

	logger.Info("Cleanup completed")
	return nil
}
