package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 3001 {
		t.Errorf("expected default port 3001, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Name != "intern_app" || cfg.Database.User != "root" || cfg.Database.Host != "localhost" {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.RateLimit.Submissions != 5 || cfg.RateLimit.Window != time.Minute || len(cfg.RateLimit.TrustedProxies) != 0 {
		t.Errorf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Addr() != ":3001" {
		t.Errorf("expected addr :3001, got %q", cfg.Addr())
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "intern")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "applications")
	t.Setenv("SUBMIT_RATE_WINDOW", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.10")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("expected normalized mysql driver, got %q", cfg.Database.Driver)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("expected 30s window, got %s", cfg.RateLimit.Window)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("expected redis addr, got %q", cfg.Redis.Addr)
	}
	if got := cfg.RateLimit.TrustedProxies; len(got) != 2 || got[0] != "10.0.0.0/8" || got[1] != "192.0.2.10" {
		t.Errorf("expected two trusted proxies, got %v", got)
	}

	dsn := cfg.Database.ConnectionString()
	for _, part := range []string{"intern:secret@tcp(db.internal:3306)/applications", "parseTime=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("expected DSN %q to contain %q", dsn, part)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "intern-app.yaml")
	content := "http:\n  port: 9000\ndatabase:\n  driver: postgres\n  host: pg\n  user: app\n  name: interns\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected port from file, got %d", cfg.HTTP.Port)
	}
	dsn := cfg.Database.ConnectionString()
	if !strings.Contains(dsn, "host=pg port=5432") || !strings.Contains(dsn, "dbname=interns") {
		t.Errorf("unexpected postgres DSN %q", dsn)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.HTTP.Port = 0 }},
		{"driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"mysql host", func(c *Config) { c.Database.Driver = DriverMySQL; c.Database.Host = "" }},
		{"rate limit", func(c *Config) { c.RateLimit.Submissions = 0 }},
		{"rate window", func(c *Config) { c.RateLimit.Window = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				HTTP:      HTTPConfig{Port: 3001},
				Database:  DatabaseConfig{Driver: DriverSQLite, Path: "x.db"},
				RateLimit: RateLimitConfig{Submissions: 5, Window: time.Minute},
			}
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConnectionStringPrefersDSN(t *testing.T) {
	d := DatabaseConfig{Driver: DriverMySQL, DSN: "user:pw@tcp(x:1)/db", Host: "ignored"}
	if got := d.ConnectionString(); got != "user:pw@tcp(x:1)/db" {
		t.Errorf("expected explicit DSN, got %q", got)
	}
	s := DatabaseConfig{Driver: DriverSQLite, Path: "local.db"}
	if got := s.ConnectionString(); got != "local.db" {
		t.Errorf("expected sqlite path, got %q", got)
	}
}
