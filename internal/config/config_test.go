package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/rbin/internal/core"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 8080

storage:
  type: localfs
  path: "/tmp/rbin/pastes"

paste:
  id_length: 8
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath, "")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Path != "/tmp/rbin/pastes" {
		t.Errorf("expected /tmp/rbin/pastes, got %s", cfg.Storage.Path)
	}
	if cfg.Paste.IDLength != 8 {
		t.Errorf("expected id_length 8, got %d", cfg.Paste.IDLength)
	}
	// Keys absent from the file keep their defaults
	if cfg.Server.FormField != "rbin" {
		t.Errorf("expected default form field rbin, got %s", cfg.Server.FormField)
	}
	if cfg.Server.MaxBodyBytes != 10<<20 {
		t.Errorf("expected default body limit, got %d", cfg.Server.MaxBodyBytes)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_NoSources(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg != *Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RBIN_HOST", "127.0.0.1")
	t.Setenv("RBIN_PORT", "4000")
	t.Setenv("RBIN_PASTE_DIR", "/srv/pastes")
	t.Setenv("RBIN_REQUEST_LOG_LEVEL", "info")
	t.Setenv("RBIN_METRICS_ENABLED", "false")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("expected port 4000, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Path != "/srv/pastes" {
		t.Errorf("expected /srv/pastes, got %s", cfg.Storage.Path)
	}
	if cfg.Log.RequestLevel != "info" {
		t.Errorf("expected request level info, got %s", cfg.Log.RequestLevel)
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics disabled")
	}
	if cfg.Addr() != "127.0.0.1:4000" {
		t.Errorf("unexpected addr %s", cfg.Addr())
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("server:\n  port: 8080\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RBIN_PORT", "9090")

	cfg, err := Load(cfgPath, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected env port 9090, got %d", cfg.Server.Port)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := []byte("RBIN_PASTE_DIR=/data/rbin\nRBIN_ID_LENGTH=7\nRBIN_LOG_LEVEL=warn\n")
	if err := os.WriteFile(filepath.Join(dir, DotEnvFile), dotenv, 0644); err != nil {
		t.Fatal(err)
	}
	// The real environment wins over .env
	t.Setenv("RBIN_LOG_LEVEL", "error")

	cfg, err := Load("", dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.Path != "/data/rbin" {
		t.Errorf("expected path from .env, got %s", cfg.Storage.Path)
	}
	if cfg.Paste.IDLength != 7 {
		t.Errorf("expected id_length 7 from .env, got %d", cfg.Paste.IDLength)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected env log level error, got %s", cfg.Log.Level)
	}
}

func TestLoad_DotEnvAbsent(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Path != "pastes" {
		t.Errorf("expected default path, got %s", cfg.Storage.Path)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Path != "pastes" {
		t.Errorf("expected default path pastes, got %s", cfg.Storage.Path)
	}
	if cfg.Paste.IDLength != 6 {
		t.Errorf("expected default id length 6, got %d", cfg.Paste.IDLength)
	}
	if cfg.Log.RequestLevel != "debug" {
		t.Errorf("expected default request level debug, got %s", cfg.Log.RequestLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port - zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port - too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero body limit",
			mutate:  func(c *Config) { c.Server.MaxBodyBytes = 0 },
			wantErr: true,
		},
		{
			name:    "empty form field",
			mutate:  func(c *Config) { c.Server.FormField = "" },
			wantErr: true,
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "tape" },
			wantErr: true,
		},
		{
			name:    "localfs without path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: true,
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.Storage.Type = StorageS3 },
			wantErr: true,
		},
		{
			name: "s3 with bucket",
			mutate: func(c *Config) {
				c.Storage.Type = StorageS3
				c.Storage.S3.Bucket = "pastes"
			},
			wantErr: false,
		},
		{
			name:    "id length too short",
			mutate:  func(c *Config) { c.Paste.IDLength = 2 },
			wantErr: true,
		},
		{
			name:    "id length too long",
			mutate:  func(c *Config) { c.Paste.IDLength = 64 },
			wantErr: true,
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Paste.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "chatty" },
			wantErr: true,
		},
		{
			name:    "bad request log level",
			mutate:  func(c *Config) { c.Log.RequestLevel = "chatty" },
			wantErr: true,
		},
		{
			name:    "metrics on root",
			mutate:  func(c *Config) { c.Metrics.Path = "/" },
			wantErr: true,
		},
		{
			name:    "metrics on health path",
			mutate:  func(c *Config) { c.Metrics.Path = "/healthz" },
			wantErr: true,
		},
		{
			name:    "metrics path with wildcard",
			mutate:  func(c *Config) { c.Metrics.Path = "/{x}" },
			wantErr: true,
		},
		{
			name: "bad metrics path ignored when disabled",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.Path = ""
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrConfigInvalid) {
				t.Errorf("expected CONFIG_INVALID, got %v", err)
			}
		})
	}
}

func TestDefaultValue(t *testing.T) {
	tests := map[string]string{
		"server.port":           "3000",
		"server.max_body_bytes": "10485760",
		"storage.path":          "pastes",
		"paste.id_length":       "6",
		"metrics.enabled":       "true",
		"storage.s3.bucket":     "",
	}
	for key, want := range tests {
		if got := DefaultValue(key); got != want {
			t.Errorf("DefaultValue(%q) = %q, want %q", key, got, want)
		}
	}
}
