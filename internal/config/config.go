// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

// Package config provides layered configuration for Ledgerd using Koanf v2.
// Precedence: environment variables > optional YAML file > built-in defaults.
package config

import (
	"fmt"
	"time"
)

// DevJWTSecret is the development-only signing secret. It exists so the
// service starts with zero configuration on a laptop; Validate rejects it
// outside development.
const DevJWTSecret = "dev_jwt_secret_change_me"

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	OTP      OTPConfig      `koanf:"otp"`
	Mail     MailConfig     `koanf:"mail"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Environment gates cookie security attributes and CORS localhost
	// relaxation: "production" or "development".
	Environment string `koanf:"environment"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds session-token and request-limiting settings.
type SecurityConfig struct {
	// JWTSecret signs session tokens (HS256). Must be overridden outside
	// development; see DevJWTSecret.
	JWTSecret string `koanf:"jwt_secret"`

	// SessionTTL is the session token (and cookie) lifetime.
	SessionTTL time.Duration `koanf:"session_ttl"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs/RateLimitWindow bound requests per client IP on the
	// auth endpoints (go-chi/httprate). This is independent of the
	// per-(email,origin) OTP issuance throttle.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// OTPConfig holds one-time-code settings.
type OTPConfig struct {
	// TTL is how long an issued code remains valid.
	TTL time.Duration `koanf:"ttl"`

	// MaxAttempts is the number of failed verifications before a
	// challenge is exhausted.
	MaxAttempts int `koanf:"max_attempts"`

	// ThrottleWindow is the minimum interval between two issuances for
	// the same (email, client origin) key.
	ThrottleWindow time.Duration `koanf:"throttle_window"`
}

// MailConfig holds SMTP delivery settings. Either the explicit SMTP fields
// or the provider user/pass pair must be set; the provider pair maps to the
// provider's submission endpoint.
type MailConfig struct {
	SMTPHost string `koanf:"smtp_host"`
	SMTPPort int    `koanf:"smtp_port"`
	SMTPUser string `koanf:"smtp_user"`
	SMTPPass string `koanf:"smtp_pass"`

	// EmailUser/EmailPass select the named provider (gmail) instead of an
	// explicit host/port.
	EmailUser string `koanf:"email_user"`
	EmailPass string `koanf:"email_pass"`

	// From defaults to SMTPUser (or EmailUser) when empty.
	From string `koanf:"from"`
}

// DatabaseConfig holds BadgerDB settings.
type DatabaseConfig struct {
	// Path is the Badger data directory. Empty with InMemory=true runs
	// fully in memory (tests, throwaway development).
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaultConfig returns a Config with all default values applied.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Environment:     "development",
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret:       DevJWTSecret,
			SessionTTL:      7 * 24 * time.Hour,
			CORSOrigins:     []string{},
			RateLimitReqs:   30,
			RateLimitWindow: time.Minute,
		},
		OTP: OTPConfig{
			TTL:            10 * time.Minute,
			MaxAttempts:    5,
			ThrottleWindow: 30 * time.Second,
		},
		Mail: MailConfig{
			SMTPPort: 587,
		},
		Database: DatabaseConfig{
			Path: "/data/ledgerd",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks the configuration for conditions that are unsafe or
// unusable. It is called by LoadWithKoanf after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	if c.IsProduction() {
		if c.Security.JWTSecret == "" || c.Security.JWTSecret == DevJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set to a non-default value in production")
		}
	}

	if c.OTP.MaxAttempts <= 0 {
		return fmt.Errorf("otp max_attempts must be positive")
	}
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("otp ttl must be positive")
	}
	if c.OTP.ThrottleWindow < 0 {
		return fmt.Errorf("otp throttle_window must not be negative")
	}

	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}

	return nil
}

// MailConfigured reports whether any SMTP transport is configured.
func (c *Config) MailConfigured() bool {
	m := c.Mail
	if m.SMTPHost != "" && m.SMTPUser != "" && m.SMTPPass != "" {
		return true
	}
	return m.EmailUser != "" && m.EmailPass != ""
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
