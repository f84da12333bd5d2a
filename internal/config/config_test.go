package config

import (
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:      AppConfig{Env: "local", Port: 8080},
		DB:       DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "communitylog", SSLMode: ""},
		Redis:    RedisConfig{Host: "localhost", Port: 6379},
		Auth:     AuthConfig{JWTSecret: "secret"},
		Platform: PlatformConfig{BaseURL: "https://platform.example.com/api"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLModeAndToken(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "issuer"
	c.Auth.JWTAudience = "aud"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE and PLATFORM_TOKEN")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Settings.Backend != SettingsBackendPostgres {
		t.Fatalf("expected postgres settings backend default, got %q", c.Settings.Backend)
	}
	if c.Settings.CacheTTL != 5*time.Second {
		t.Fatalf("expected 5s settings TTL default, got %v", c.Settings.CacheTTL)
	}
	if c.Platform.CallTimeout != 3*time.Second {
		t.Fatalf("expected 3s provider call timeout default, got %v", c.Platform.CallTimeout)
	}
}

func TestValidate_RemoteBackendRequiresURL(t *testing.T) {
	c := validBase()
	c.Settings.Backend = SettingsBackendRemote
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for remote backend without SETTINGS_REMOTE_URL")
	}

	c = validBase()
	c.Settings.Backend = SettingsBackendRemote
	c.Settings.RemoteBaseURL = "https://settings.example.com"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_RejectsUnknownSettingsBackend(t *testing.T) {
	c := validBase()
	c.Settings.Backend = "etcd"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown settings backend")
	}
}
