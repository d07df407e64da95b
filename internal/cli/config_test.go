package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
head = "start"
width = 1440
height = 900
seed = 42

[server]
addr = ":9090"
watch = true

[mongo]
uri = "mongodb://localhost:27017"
database = "plots"

[redis]
addr = "localhost:6379"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Head != "start" {
		t.Errorf("Head = %q, want start", cfg.Head)
	}
	if cfg.Width != 1440 || cfg.Height != 900 {
		t.Errorf("bounds = %dx%d, want 1440x900", cfg.Width, cfg.Height)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
	if cfg.Server.Addr != ":9090" || !cfg.Server.Watch {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Mongo.URI != "mongodb://localhost:27017" || cfg.Mongo.Database != "plots" {
		t.Errorf("Mongo = %+v", cfg.Mongo)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing config should not error, got %v", err)
	}
	if cfg.Head != "" || cfg.Width != 0 {
		t.Errorf("missing config should be zero, got %+v", cfg)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("width = {broken"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
