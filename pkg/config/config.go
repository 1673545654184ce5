package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreNeo4j    = "neo4j"
	StoreMemory   = "memory"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	Database DatabaseConfig
	Neo4j    Neo4jConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Snapshot SnapshotConfig
	Storage  StorageConfig
	Log      LogConfig
}

type AppConfig struct {
	Name     string `env:"APP_NAME" env-default:"Task Tracker"`
	Port     string `env:"APP_PORT" env-default:"8080"`
	Env      string `env:"APP_ENV" env-default:"development"`
	BasePath string `env:"APP_BASE_PATH" env-default:""`
	// Comma-separated, "*" allows any origin.
	CORSOrigins string `env:"CORS_ORIGINS" env-default:"*"`
}

type StoreConfig struct {
	Type string `env:"STORE_TYPE" env-default:"postgres"`
}

type DatabaseConfig struct {
	Host         string `env:"DB_HOST" env-default:"localhost"`
	Port         string `env:"DB_PORT" env-default:"5432"`
	User         string `env:"DB_USER" env-default:"postgres"`
	Password     string `env:"DB_PASSWORD" env-default:""`
	DBName       string `env:"DB_NAME" env-default:"task_tracker"`
	SSLMode      string `env:"DB_SSL_MODE" env-default:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	LogQueries   bool   `env:"DB_LOG_QUERIES" env-default:"false"`
}

type Neo4jConfig struct {
	URI      string `env:"NEO4J_URI" env-default:"neo4j://localhost:7687"`
	Username string `env:"NEO4J_USER" env-default:"neo4j"`
	Password string `env:"NEO4J_PASSWORD" env-default:""`
	Database string `env:"NEO4J_DATABASE" env-default:""`
}

// RedisConfig backs the list cache. An empty URL disables caching.
type RedisConfig struct {
	URL      string        `env:"REDIS_URL" env-default:""`
	Password string        `env:"REDIS_PASSWORD" env-default:""`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `env:"REDIS_LIST_TTL" env-default:"60s"`
}

// NATSConfig backs the lifecycle event stream. An empty URL disables it.
type NATSConfig struct {
	URL    string        `env:"NATS_URL" env-default:""`
	Stream string        `env:"NATS_STREAM" env-default:"TASK_EVENTS"`
	MaxAge time.Duration `env:"NATS_EVENT_MAX_AGE" env-default:"168h"`
}

type SnapshotConfig struct {
	Enabled bool   `env:"SNAPSHOT_ENABLED" env-default:"false"`
	Cron    string `env:"SNAPSHOT_CRON" env-default:"0 * * * *"`
	Prefix  string `env:"SNAPSHOT_PREFIX" env-default:"snapshots"`
	// Older snapshots beyond this count are deleted after each export. 0 keeps all.
	Keep int `env:"SNAPSHOT_KEEP" env-default:"24"`
}

type StorageConfig struct {
	Type     string `env:"STORAGE_TYPE" env-default:"local"`
	BasePath string `env:"STORAGE_BASE_PATH" env-default:"./data"`
	BaseURL  string `env:"STORAGE_BASE_URL" env-default:""`
	S3       S3Config
}

type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `env:"S3_ACCESS_KEY" env-default:"minioadmin"`
	SecretKey string `env:"S3_SECRET_KEY" env-default:"minioadmin"`
	Bucket    string `env:"S3_BUCKET" env-default:"task-snapshots"`
	UseSSL    bool   `env:"S3_USE_SSL" env-default:"false"`
	Region    string `env:"S3_REGION" env-default:"us-east-1"`
	PublicURL string `env:"S3_PUBLIC_URL" env-default:""`
}

type LogConfig struct {
	Level      string `env:"LOG_LEVEL" env-default:"info"`
	Format     string `env:"LOG_FORMAT" env-default:"json"`
	Output     string `env:"LOG_OUTPUT" env-default:"stdout"`
	FilePath   string `env:"LOG_FILE" env-default:"logs/task-tracker.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" env-default:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" env-default:"5"`
	MaxAge     int    `env:"LOG_MAX_AGE" env-default:"30"`
	Compress   bool   `env:"LOG_COMPRESS" env-default:"true"`
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (*Config, error) {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Store.Type = strings.ToLower(strings.TrimSpace(c.Store.Type))
	switch c.Store.Type {
	case StorePostgres, StoreNeo4j, StoreMemory:
	default:
		return fmt.Errorf("STORE_TYPE must be postgres, neo4j or memory, got %q", c.Store.Type)
	}

	switch c.Storage.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("STORAGE_TYPE must be local or s3, got %q", c.Storage.Type)
	}

	c.App.BasePath = strings.TrimSuffix(strings.TrimSpace(c.App.BasePath), "/")
	if c.App.BasePath != "" && !strings.HasPrefix(c.App.BasePath, "/") {
		c.App.BasePath = "/" + c.App.BasePath
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Usage lists every supported environment variable with its description.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
