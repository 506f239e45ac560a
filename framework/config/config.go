package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App   AppConfig
	Log   LogConfig
	Graph GraphConfig
	Debug DebugConfig
	Trace TraceConfig
}

type AppConfig struct {
	Name string `env:"APP_NAME" envDefault:"go-injector"`
	Env  string `env:"APP_ENV" envDefault:"local"` // local | production | testing
}

type LogConfig struct {
	Level  string `env:"INJECTOR_LOG_LEVEL" envDefault:"info"`  // debug | info | warn | error
	Format string `env:"INJECTOR_LOG_FORMAT" envDefault:"text"` // text | json
}

// GraphConfig controls the dependency graph dump written after boot.
type GraphConfig struct {
	File string `env:"INJECTOR_GRAPH_FILE"` // empty disables the dump
}

// DebugConfig controls the diagnostics HTTP server.
type DebugConfig struct {
	Addr string `env:"INJECTOR_DEBUG_ADDR"` // empty disables the server
}

type TraceConfig struct {
	Enabled bool `env:"INJECTOR_TRACE_ENABLED" envDefault:"false"`
}

// Load reads .env files (if present) and populates a Config from environment
// variables. Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool { return c.App.Env == "production" }
