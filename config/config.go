// Package config loads the service settings from STUDY_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Prefix is prepended to every variable name, e.g. STUDY_HTTP_PORT.
const Prefix = "STUDY"

// Config holds the settings of the study planner service.
type Config struct {
	HTTPPort  int    `envconfig:"HTTP_PORT" default:"8080"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Timezone used to decide what "today" and "this week" mean. Empty means the host zone.
	Timezone     string `envconfig:"TIMEZONE" default:""`
	SeedMockData bool   `envconfig:"SEED_MOCK_DATA" default:"true"`

	// Idempotency keys are shared through Redis when RedisURL is set.
	RedisURL       string        `envconfig:"REDIS_URL" default:""`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	AuthSecret      string        `envconfig:"AUTH_SECRET" default:"study-planner-dev-secret"`
	AuthDelay       time.Duration `envconfig:"AUTH_DELAY" default:"1500ms"`
	TokenTTL        time.Duration `envconfig:"TOKEN_TTL" default:"12h"`
	DefaultUserName string        `envconfig:"DEFAULT_USER_NAME" default:"Maria"`

	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
	BodyLimit       string        `envconfig:"BODY_LIMIT" default:"64K"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	location *time.Location
}

// New parses the environment and validates the result.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigureLogger applies the level and format settings to l and then logs
// the loaded configuration through it.
func (c *Config) ConfigureLogger(l *log.Logger) {
	if c.Debug {
		l.SetLevel(log.DebugLevel)
	}
	if c.LogFormat == "json" {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	l.WithFields(log.Fields{
		"port":          c.HTTPPort,
		"timezone":      c.Location().String(),
		"seed":          c.SeedMockData,
		"redis_present": c.RedisURL != "",
		"auth_delay":    c.AuthDelay.String(),
	}).Info("configuration loaded")
}

// Validate checks value ranges and resolves the timezone.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT: %s", c.LogFormat)
	}
	if c.AuthDelay < 0 {
		return errors.New("AUTH_DELAY must not be negative")
	}
	if c.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be positive")
	}
	if c.AuthSecret == "" {
		return errors.New("AUTH_SECRET must not be empty")
	}
	loc := time.Local
	if c.Timezone != "" {
		l, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("invalid TIMEZONE: %w", err)
		}
		loc = l
	}
	c.location = loc
	return nil
}

// Location returns the resolved timezone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// HTTPAddr returns the listen address.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// NewForTesting returns a valid config with no delays and a fixed zone.
func NewForTesting() *Config {
	return &Config{
		HTTPPort:        8080,
		LogFormat:       "text",
		SeedMockData:    true,
		IdempotencyTTL:  time.Hour,
		AuthSecret:      "test-secret",
		TokenTTL:        time.Hour,
		DefaultUserName: "Maria",
		CORSOrigins:     []string{"*"},
		BodyLimit:       "64K",
		ShutdownTimeout: time.Second,
		location:        time.UTC,
	}
}
