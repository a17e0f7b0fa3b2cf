package config

import (
	"testing"
	"time"
)

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"all empty", []string{"", "   "}, ""},
		{"first non empty", []string{"foo", "bar"}, "foo"},
		{"skips whitespace", []string{"   ", "bar"}, "bar"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := firstNonEmpty(tt.values...); got != tt.want {
				t.Fatalf("firstNonEmpty(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestPortAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  string
	}{
		{"", ""},
		{"5000", ":5000"},
		{":5000", ":5000"},
	}

	for _, tt := range tests {
		if got := portAddr(tt.value); got != tt.want {
			t.Fatalf("portAddr(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_ADDR", "ADDR", "PORT", "SERVER_READ_HEADER_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
		"DATABASE_URL", "DB_URL", "DATABASE_MAX_IDLE_CONNS", "DATABASE_MAX_OPEN_CONNS",
		"DATABASE_CONN_MAX_LIFETIME", "DATABASE_CONN_MAX_IDLE_TIME", "DATABASE_USE_MOCK",
		"DATABASE_RESET", "DATABASE_SEED_FILE", "LOG_LEVEL", "LOG_FORMAT",
		"AUTH0_DOMAIN", "API_AUDIENCE", "AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_JWKS_REFRESH", "AUTH_JWKS_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadUsesEnvironmentDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("DATABASE_MAX_IDLE_CONNS", "10")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "100")
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "1h")
	t.Setenv("DATABASE_CONN_MAX_IDLE_TIME", "30m")
	t.Setenv("DATABASE_RESET", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH0_DOMAIN", "https://coffee.us.auth0.com/")
	t.Setenv("API_AUDIENCE", "shop")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("Server.Addr = %q, want %q", cfg.Server.Addr, ":8080")
	}
	if cfg.Server.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("Server.ReadHeaderTimeout = %s", cfg.Server.ReadHeaderTimeout)
	}
	if cfg.Database.URL != "postgres://example" {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Database.MaxIdleConns != 10 {
		t.Fatalf("Database.MaxIdleConns = %d", cfg.Database.MaxIdleConns)
	}
	if cfg.Database.MaxOpenConns != 100 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.ConnMaxLifetime != time.Hour {
		t.Fatalf("Database.ConnMaxLifetime = %s", cfg.Database.ConnMaxLifetime)
	}
	if cfg.Database.ConnMaxIdleTime != 30*time.Minute {
		t.Fatalf("Database.ConnMaxIdleTime = %s", cfg.Database.ConnMaxIdleTime)
	}
	if !cfg.Database.Reset {
		t.Fatal("Database.Reset = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Fatalf("Logging.Format = %q", cfg.Logging.Format)
	}
	if cfg.Auth.Domain != "coffee.us.auth0.com" {
		t.Fatalf("Auth.Domain = %q", cfg.Auth.Domain)
	}
	if cfg.Auth.Issuer != "https://coffee.us.auth0.com/" {
		t.Fatalf("Auth.Issuer = %q", cfg.Auth.Issuer)
	}
	if cfg.Auth.JWKSURL != "https://coffee.us.auth0.com/.well-known/jwks.json" {
		t.Fatalf("Auth.JWKSURL = %q", cfg.Auth.JWKSURL)
	}
	if cfg.Auth.Audience != "shop" {
		t.Fatalf("Auth.Audience = %q", cfg.Auth.Audience)
	}
	if cfg.Auth.JWKSRefresh != 10*time.Minute {
		t.Fatalf("Auth.JWKSRefresh = %s", cfg.Auth.JWKSRefresh)
	}
}

func TestLoadPrefersServerAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("PORT", "5000")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("AUTH_JWKS_URL", "http://localhost/jwks.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("Server.Addr = %q, want %q", cfg.Server.Addr, "127.0.0.1:9000")
	}
	if cfg.Auth.Issuer != "" {
		t.Fatalf("Auth.Issuer = %q, want empty without a domain", cfg.Auth.Issuer)
	}
}

func TestLoadFallsBackToPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "5000")
	t.Setenv("DATABASE_USE_MOCK", "true")
	t.Setenv("AUTH0_DOMAIN", "coffee.us.auth0.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Fatalf("Server.Addr = %q, want :5000", cfg.Server.Addr)
	}
	if !cfg.Database.UseMock {
		t.Fatal("Database.UseMock = false, want true")
	}
}

func TestLoadRejectsMissingDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH0_DOMAIN", "coffee.us.auth0.com")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no database URL and no mock")
	}
}

func TestLoadRejectsMissingIdentityProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_USE_MOCK", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when neither AUTH0_DOMAIN nor AUTH_JWKS_URL is set")
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_USE_MOCK", "true")
	t.Setenv("AUTH0_DOMAIN", "coffee.us.auth0.com")
	t.Setenv("AUTH_JWKS_REFRESH", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestLoadDatabaseIgnoresAuthSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_URL", "sqlite://file:menu.db")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "4")

	cfg, err := LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase() error = %v", err)
	}
	if cfg.URL != "sqlite://file:menu.db" {
		t.Fatalf("URL = %q, want DB_URL fallback", cfg.URL)
	}
	if cfg.MaxOpenConns != 4 {
		t.Fatalf("MaxOpenConns = %d, want 4", cfg.MaxOpenConns)
	}
}

func TestLoadDatabaseRequiresURL(t *testing.T) {
	clearEnv(t)

	if _, err := LoadDatabase(); err == nil {
		t.Fatal("expected error when no database URL is set")
	}
}
