// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 5000 {
		t.Errorf("default port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("default environment = %q, want development", cfg.Server.Environment)
	}
	if cfg.Security.SessionTTL != 7*24*time.Hour {
		t.Errorf("default session ttl = %v, want 168h", cfg.Security.SessionTTL)
	}
	if cfg.OTP.TTL != 10*time.Minute {
		t.Errorf("default otp ttl = %v, want 10m", cfg.OTP.TTL)
	}
	if cfg.OTP.MaxAttempts != 5 {
		t.Errorf("default max attempts = %d, want 5", cfg.OTP.MaxAttempts)
	}
	if cfg.OTP.ThrottleWindow != 30*time.Second {
		t.Errorf("default throttle window = %v, want 30s", cfg.OTP.ThrottleWindow)
	}
	if cfg.Security.JWTSecret != DevJWTSecret {
		t.Errorf("default jwt secret = %q, want dev default", cfg.Security.JWTSecret)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid in development",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "production rejects dev jwt secret",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
			},
			wantErr: true,
		},
		{
			name: "production rejects empty jwt secret",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.JWTSecret = ""
			},
			wantErr: true,
		},
		{
			name: "production accepts real jwt secret",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.JWTSecret = "a-real-secret-from-the-vault"
			},
			wantErr: false,
		},
		{
			name: "port out of range",
			mutate: func(c *Config) {
				c.Server.Port = 70000
			},
			wantErr: true,
		},
		{
			name: "zero max attempts",
			mutate: func(c *Config) {
				c.OTP.MaxAttempts = 0
			},
			wantErr: true,
		},
		{
			name: "negative otp ttl",
			mutate: func(c *Config) {
				c.OTP.TTL = -time.Minute
			},
			wantErr: true,
		},
		{
			name: "zero session ttl",
			mutate: func(c *Config) {
				c.Security.SessionTTL = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"OTP_TTL", "otp.ttl"},
		{"OTP_MAX_ATTEMPTS", "otp.max_attempts"},
		{"OTP_THROTTLE_WINDOW", "otp.throttle_window"},
		{"SMTP_HOST", "mail.smtp_host"},
		{"EMAIL_USER", "mail.email_user"},
		{"SMTP_FROM", "mail.from"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"DATA_DIR", "database.path"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadWithKoanfEnvOverride(t *testing.T) {
	t.Setenv("HTTP_PORT", "8123")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8123 {
		t.Errorf("port = %d, want 8123", cfg.Server.Port)
	}
	if cfg.Security.JWTSecret != "test-secret" {
		t.Errorf("jwt secret = %q, want test-secret", cfg.Security.JWTSecret)
	}
	if cfg.OTP.MaxAttempts != 3 {
		t.Errorf("max attempts = %d, want 3", cfg.OTP.MaxAttempts)
	}
	want := []string{"https://app.example.com", "https://admin.example.com"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("cors origins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("cors origin[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
}

func TestMailConfigured(t *testing.T) {
	cfg := defaultConfig()
	if cfg.MailConfigured() {
		t.Error("defaults should not report mail configured")
	}

	cfg.Mail.EmailUser = "user@gmail.com"
	cfg.Mail.EmailPass = "app-password"
	if !cfg.MailConfigured() {
		t.Error("provider pair should report mail configured")
	}

	cfg = defaultConfig()
	cfg.Mail.SMTPHost = "mail.example.com"
	cfg.Mail.SMTPUser = "ledger"
	cfg.Mail.SMTPPass = "s3cret"
	if !cfg.MailConfigured() {
		t.Error("explicit smtp settings should report mail configured")
	}
}
