package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DAMAGE_DATABASE_PATH", filepath.Join(dir, "db", "app.db"))
	t.Setenv("DAMAGE_UPLOAD_DIR", filepath.Join(dir, "uploads"))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Fatalf("expected default port 3000 got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver got %q", cfg.Database.Driver)
	}
	if cfg.Upload.MaxSize != 5*1024*1024 {
		t.Fatalf("unexpected max size %d", cfg.Upload.MaxSize)
	}
	if cfg.Upload.FieldName != "photo" {
		t.Fatalf("unexpected field name %q", cfg.Upload.FieldName)
	}
	if cfg.Security.BcryptCost != 10 {
		t.Fatalf("unexpected bcrypt cost %d", cfg.Security.BcryptCost)
	}
	if cfg.Server.GetRequestTimeout() != 30*time.Second {
		t.Fatalf("unexpected request timeout %v", cfg.Server.GetRequestTimeout())
	}
	if _, err := os.Stat(filepath.Join(dir, "uploads")); err != nil {
		t.Fatalf("expected uploads dir to be created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "db")); err != nil {
		t.Fatalf("expected database dir to be created: %v", err)
	}
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 8081\nlog:\n  level: debug\ndatabase:\n  max_open_conns: 3\n"
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DAMAGE_SERVER_PORT", "9090")

	cfg, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected env override 9090 got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected file value debug got %q", cfg.Log.Level)
	}
	if cfg.Database.MaxOpenConns != 3 {
		t.Fatalf("expected max_open_conns 3 got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoadConfigRejectsWeakBcryptCost(t *testing.T) {
	isolate(t)
	t.Setenv("DAMAGE_SECURITY_BCRYPT_COST", "4")

	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for bcrypt cost below 10")
	}
}

func TestLoadConfigPostgresNeedsDSN(t *testing.T) {
	isolate(t)
	t.Setenv("DAMAGE_DATABASE_DRIVER", "postgres")

	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error when postgres dsn is missing")
	}
}
