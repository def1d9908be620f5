package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Session.Store != SessionStoreSQLite {
		t.Errorf("expected default session store %q, got %q", SessionStoreSQLite, cfg.Session.Store)
	}
	if cfg.Jobs.PageSize != 10 {
		t.Errorf("expected default page size 10, got %d", cfg.Jobs.PageSize)
	}
	if !cfg.JobSearch.Contracts.Enabled {
		t.Error("expected contracts finder enabled by default")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.guardpost.yml")

	original := DefaultConfig()
	original.Server.Port = 9090
	original.Backend.BaseURL = "https://api.example.com"
	original.Backend.Timeout = 5 * time.Second
	original.Session.Store = SessionStoreRedis
	original.Session.RedisAddr = "redis:6379"
	original.JobSearch.Reed.APIKey = "reed-key"
	original.Pages.Include = []string{"policies/*.md"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Server.Port != 9090 {
		t.Errorf("port: got %d, want 9090", loaded.Server.Port)
	}
	if loaded.Backend.BaseURL != original.Backend.BaseURL {
		t.Errorf("backend url: got %q, want %q", loaded.Backend.BaseURL, original.Backend.BaseURL)
	}
	if loaded.Backend.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v, want 5s", loaded.Backend.Timeout)
	}
	if loaded.Session.Store != SessionStoreRedis {
		t.Errorf("session store: got %q", loaded.Session.Store)
	}
	if loaded.JobSearch.Reed.APIKey != "reed-key" {
		t.Errorf("reed key: got %q", loaded.JobSearch.Reed.APIKey)
	}
	if len(loaded.Pages.Include) != 1 || loaded.Pages.Include[0] != "policies/*.md" {
		t.Errorf("include: got %v", loaded.Pages.Include)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("GUARDPOST_BACKEND__BASE_URL", "https://members.example.com")
	t.Setenv("GUARDPOST_SERVER__PORT", "7070")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend.BaseURL != "https://members.example.com" {
		t.Errorf("env override failed: got %q", loaded.Backend.BaseURL)
	}
	if loaded.Server.Port != 7070 {
		t.Errorf("env override failed: got port %d", loaded.Server.Port)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}

	if err := os.WriteFile(path, []byte("GUARDPOST_TEST_DOTENV=loaded\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("GUARDPOST_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("GUARDPOST_TEST_DOTENV"); got != "loaded" {
		t.Errorf("expected variable from .env, got %q", got)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty backend url", func(c *Config) { c.Backend.BaseURL = "" }},
		{"relative backend url", func(c *Config) { c.Backend.BaseURL = "/api" }},
		{"negative timeout", func(c *Config) { c.Backend.Timeout = -time.Second }},
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown session store", func(c *Config) { c.Session.Store = "memcached" }},
		{"redis without address", func(c *Config) { c.Session.Store = SessionStoreRedis }},
		{"empty cookie name", func(c *Config) { c.Session.CookieName = "" }},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"zero sweep interval", func(c *Config) { c.Session.SweepInterval = 0 }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero page size", func(c *Config) { c.Jobs.PageSize = 0 }},
		{"zero per page", func(c *Config) { c.JobSearch.PerPage = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"adzuna,reed", []string{"adzuna", "reed"}},
		{" adzuna , reed , contracts ", []string{"adzuna", "reed", "contracts"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
