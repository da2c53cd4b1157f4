// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, TokenService) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/notarehq/notare/internal/platform/sec"
)

// devFallbackSecret is used ONLY when ALLOW_INSECURE_DEV_SECRET=true in a
// development environment. It must never be the silent default: a missing
// production secret is a fatal misconfiguration.
const devFallbackSecret = "notare-dev-secret-do-not-use"

// # Configuration Schema

// Config holds all runtime configuration for the Notare API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// TokenSecret signs access tokens (HMAC-SHA256). At least 8 characters.
	TokenSecret string `env:"AUTH_TOKEN_SECRET"`

	// TokenTTL is the default access-token lifetime.
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"1h"`

	// AllowInsecureDevSecret opts into a fixed development signing secret
	// when AUTH_TOKEN_SECRET is unset. Refused outside development.
	AllowInsecureDevSecret bool `env:"ALLOW_INSECURE_DEV_SECRET" envDefault:"false"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates the
// token-secret policy.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validateSecret(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecret enforces the secret-provisioning policy at startup.
//
// An absent or under-length secret is fatal. The development fallback is
// available only behind an explicit opt-in AND a development environment;
// silently defaulting in production would be a security regression.
func (c *Config) validateSecret() error {
	if c.TokenSecret == "" {
		if c.AllowInsecureDevSecret && c.IsDevelopment() {
			c.TokenSecret = devFallbackSecret
			return nil
		}
		return fmt.Errorf("config: AUTH_TOKEN_SECRET is required (set ALLOW_INSECURE_DEV_SECRET=true only for local development)")
	}

	if len(c.TokenSecret) < sec.MinSecretLength {
		return fmt.Errorf("config: AUTH_TOKEN_SECRET must be at least %d characters", sec.MinSecretLength)
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
