package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_TYPE", "")
	t.Setenv("APP_BASE_PATH", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Type != StorePostgres {
		t.Errorf("Store.Type = %q", cfg.Store.Type)
	}
	if cfg.Redis.TTL != 60*time.Second {
		t.Errorf("Redis.TTL = %v", cfg.Redis.TTL)
	}
	if cfg.NATS.Stream != "TASK_EVENTS" {
		t.Errorf("NATS.Stream = %q", cfg.NATS.Stream)
	}
	if cfg.Snapshot.Cron != "0 * * * *" {
		t.Errorf("Snapshot.Cron = %q", cfg.Snapshot.Cron)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_TYPE", "Neo4j")
	t.Setenv("APP_BASE_PATH", "api/v1/")
	t.Setenv("REDIS_LIST_TTL", "5m")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Type != StoreNeo4j {
		t.Errorf("Store.Type = %q", cfg.Store.Type)
	}
	if cfg.App.BasePath != "/api/v1" {
		t.Errorf("BasePath = %q", cfg.App.BasePath)
	}
	if cfg.Redis.TTL != 5*time.Minute {
		t.Errorf("Redis.TTL = %v", cfg.Redis.TTL)
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"store", Config{Store: StoreConfig{Type: "mongo"}, Storage: StorageConfig{Type: "local"}}},
		{"storage", Config{Store: StoreConfig{Type: "memory"}, Storage: StorageConfig{Type: "ftp"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Errorf("Validate() accepted %+v", tt.cfg)
			}
		})
	}
}
