package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	conf, _, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if conf.Server.Port != "5050" || conf.Database.Driver != "postgres" || conf.Server.IdleTimeout != 30*time.Minute {
		t.Fatalf("defaults = %+v", conf)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	root := writeConfig(t, `
server:
  port: "8080"
  idle_timeout: 5m
database:
  driver: sqlite
  sqlite_path: /tmp/test.db
battery:
  path: battery.yaml
`)
	t.Setenv("COGBATTERY_SERVER_PORT", "9090")

	conf, _, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Server.Port != "9090" {
		t.Errorf("port = %q, want env override 9090", conf.Server.Port)
	}
	if conf.Server.IdleTimeout != 5*time.Minute {
		t.Errorf("idle timeout = %v", conf.Server.IdleTimeout)
	}
	if conf.Database.Driver != "sqlite" || conf.Database.SQLitePath != "/tmp/test.db" {
		t.Errorf("database = %+v", conf.Database)
	}
	if conf.Battery.Path != "battery.yaml" {
		t.Errorf("battery path = %q", conf.Battery.Path)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	root := writeConfig(t, "database:\n  driver: mysql\n")
	if _, _, err := Load(root); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
