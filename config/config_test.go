package config

import (
	"os"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// unsetenv clears key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

func TestConfigLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "TIMEZONE", "AUTH_DELAY", "IDEMPOTENCY_TTL", "SEED_MOCK_DATA", "DEFAULT_USER_NAME", "REDIS_URL", "CORS_ORIGINS", "LOG_FORMAT", "AUTH_SECRET"} {
		unsetenv(t, Prefix+"_"+k)
	}

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.HTTPAddr() != ":8080" {
		t.Fatalf("unexpected port: %+v", cfg)
	}
	if cfg.AuthDelay != 1500*time.Millisecond {
		t.Fatalf("unexpected auth delay %s", cfg.AuthDelay)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("unexpected idempotency ttl %s", cfg.IdempotencyTTL)
	}
	if !cfg.SeedMockData || cfg.DefaultUserName != "Maria" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.Location() != time.Local {
		t.Fatalf("expected host zone, got %s", cfg.Location())
	}
}

func TestConfigLoadEnvOverride(t *testing.T) {
	t.Setenv("STUDY_HTTP_PORT", "9191")
	t.Setenv("STUDY_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("STUDY_AUTH_DELAY", "0s")
	t.Setenv("STUDY_CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("STUDY_SEED_MOCK_DATA", "false")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 9191 {
		t.Fatalf("port override failed, got %d", cfg.HTTPPort)
	}
	if cfg.Location().String() != "America/Sao_Paulo" {
		t.Fatalf("timezone override failed, got %s", cfg.Location())
	}
	if cfg.AuthDelay != 0 || cfg.SeedMockData {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors override failed, got %v", cfg.CORSOrigins)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"port":     func(c *Config) { c.HTTPPort = 0 },
		"format":   func(c *Config) { c.LogFormat = "xml" },
		"delay":    func(c *Config) { c.AuthDelay = -time.Second },
		"ttl":      func(c *Config) { c.IdempotencyTTL = 0 },
		"secret":   func(c *Config) { c.AuthSecret = "" },
		"timezone": func(c *Config) { c.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewForTesting()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestConfigLoadRejectsBadValue(t *testing.T) {
	t.Setenv("STUDY_HTTP_PORT", "not-a-port")
	if _, err := New(); err == nil {
		t.Fatal("expected error")
	}
}

func TestConfigureLoggerFormatsFirstEntry(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cfg := NewForTesting()
	cfg.LogFormat = "json"
	cfg.Debug = true

	cfg.ConfigureLogger(logger)

	if _, ok := logger.Formatter.(*log.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", logger.Formatter)
	}
	if logger.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}
	entries := hook.AllEntries()
	if len(entries) != 1 || entries[0].Message != "configuration loaded" {
		t.Fatalf("expected a single configuration entry, got %d", len(entries))
	}
	line, err := entries[0].String()
	if err != nil {
		t.Fatalf("format entry: %v", err)
	}
	if line[0] != '{' {
		t.Fatalf("expected json output, got %q", line)
	}
	if entries[0].Data["port"] != 8080 {
		t.Fatalf("unexpected fields: %v", entries[0].Data)
	}
}

func TestNewDoesNotLog(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	for _, k := range []string{"HTTP_PORT", "TIMEZONE", "LOG_FORMAT", "AUTH_SECRET"} {
		unsetenv(t, Prefix+"_"+k)
	}
	if _, err := New(); err != nil {
		t.Fatalf("config load: %v", err)
	}
	if n := len(hook.AllEntries()); n != 0 {
		t.Fatalf("expected no log output before the logger is configured, got %d entries", n)
	}
}
