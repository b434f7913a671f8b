// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A '.env' file in the
working directory, when present, is loaded first for local development.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (MongoDB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Backends

// Backend selectors for state that must be shared across instances.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

// # Configuration Schema

// Config holds all runtime configuration for the admin API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Document store (MongoDB)
	MongoURI      string `env:"MONGO_URI,required"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"admin_backend"`

	// Key-Value Cache (Redis). Required only when a redis backend is selected.
	RedisURL string `env:"REDIS_URL"`

	// Signing secrets, one per token context
	AdminTokenSecret            string `env:"ADMIN_TOKEN_SECRET,required"`
	ModeratorAccessTokenSecret  string `env:"MODERATOR_ACCESS_TOKEN_SECRET,required"`
	ModeratorRefreshTokenSecret string `env:"MODERATOR_REFRESH_TOKEN_SECRET,required"`

	// LedgerBackend stores moderator refresh tokens: "mongo" or "redis".
	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"mongo"`

	// RateLimitBackend stores sliding-window counters: "memory" or "redis".
	RateLimitBackend string `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`

	// Cross-Origin Resource Sharing, comma separated
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config].
func Load() (*Config, error) {

	// A missing .env file is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	return Parse()
}

// Parse maps the current environment onto a [Config] and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	c.LedgerBackend = strings.ToLower(strings.TrimSpace(c.LedgerBackend))
	c.RateLimitBackend = strings.ToLower(strings.TrimSpace(c.RateLimitBackend))

	if c.LedgerBackend != BackendMongo && c.LedgerBackend != BackendRedis {
		return fmt.Errorf("config: LEDGER_BACKEND must be %q or %q, got %q", BackendMongo, BackendRedis, c.LedgerBackend)
	}

	if c.RateLimitBackend != BackendMemory && c.RateLimitBackend != BackendRedis {
		return fmt.Errorf("config: RATE_LIMIT_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.RateLimitBackend)
	}

	if c.NeedsRedis() && c.RedisURL == "" {
		return errors.New("config: REDIS_URL is required when a redis backend is selected")
	}

	return nil
}

// NeedsRedis reports whether any shared-state backend is configured to use Redis.
func (c *Config) NeedsRedis() bool {
	return c.LedgerBackend == BackendRedis || c.RateLimitBackend == BackendRedis
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
