package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Web.Port)
	}
	if cfg.Inventory.TransitionOnly {
		t.Error("TransitionOnly should default to false")
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fabrica.yaml")
	data := []byte(`
database:
  driver: postgres
  postgres:
    host: db.local
    port: 6543
web:
  port: 9000
messaging:
  backend: mqtt
  outbox_drain_interval: 2s
inventory:
  transition_only: true
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Database.Postgres.Host != "db.local" || cfg.Database.Postgres.Port != 6543 {
		t.Errorf("Postgres = %+v", cfg.Database.Postgres)
	}
	if cfg.Database.Postgres.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, want default disable", cfg.Database.Postgres.SSLMode)
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Web.Port)
	}
	if cfg.Messaging.Backend != "mqtt" {
		t.Errorf("Backend = %q, want mqtt", cfg.Messaging.Backend)
	}
	if cfg.Messaging.OutboxDrainInterval != 2*time.Second {
		t.Errorf("OutboxDrainInterval = %v, want 2s", cfg.Messaging.OutboxDrainInterval)
	}
	if !cfg.Inventory.TransitionOnly {
		t.Error("TransitionOnly should be true")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FABRICA_WEB_PORT", "9999")
	t.Setenv("FABRICA_DB_DRIVER", "postgres")
	t.Setenv("FABRICA_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FABRICA_TRANSITION_ONLY", "true")
	t.Setenv("FABRICA_REDIS_ENABLED", "not-a-bool")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Web.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Web.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if len(cfg.Messaging.Kafka.Brokers) != 2 || cfg.Messaging.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v", cfg.Messaging.Kafka.Brokers)
	}
	if !cfg.Inventory.TransitionOnly {
		t.Error("TransitionOnly should be true")
	}
	if !cfg.Redis.Enabled {
		t.Error("invalid bool override should leave default in place")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Defaults()
	cfg.Web.Port = 8181
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Web.Port != 8181 {
		t.Errorf("Port = %d, want 8181", got.Web.Port)
	}
}
