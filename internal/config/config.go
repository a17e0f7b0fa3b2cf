package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Auth     AuthConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr              string        `env:"SERVER_ADDR"`
	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT,default=5s"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=5s"`
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `env:"DATABASE_CONN_MAX_IDLE_TIME"`
	UseMock         bool          `env:"DATABASE_USE_MOCK,default=false"`
	Reset           bool          `env:"DATABASE_RESET,default=false"`
	SeedFile        string        `env:"DATABASE_SEED_FILE"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=text"`
}

// AuthConfig describes the identity provider whose tokens are accepted.
type AuthConfig struct {
	Domain      string        `env:"AUTH0_DOMAIN"`
	Audience    string        `env:"API_AUDIENCE"`
	Issuer      string        `env:"AUTH_ISSUER"`
	JWKSURL     string        `env:"AUTH_JWKS_URL"`
	JWKSRefresh time.Duration `env:"AUTH_JWKS_REFRESH,default=10m"`
	JWKSTimeout time.Duration `env:"AUTH_JWKS_TIMEOUT,default=5s"`
}

// Load inspects the environment and builds a Config value.
func Load() (Config, error) {
	cfg := Config{}
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	cfg.Server.Addr = firstNonEmpty(
		cfg.Server.Addr,
		os.Getenv("ADDR"),
		portAddr(os.Getenv("PORT")),
		":8080",
	)
	cfg.Database.URL = firstNonEmpty(cfg.Database.URL, os.Getenv("DB_URL"))

	domain := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(cfg.Auth.Domain), "https://"), "/")
	cfg.Auth.Domain = domain
	if domain != "" {
		cfg.Auth.Issuer = firstNonEmpty(cfg.Auth.Issuer, "https://"+domain+"/")
		cfg.Auth.JWKSURL = firstNonEmpty(cfg.Auth.JWKSURL, "https://"+domain+"/.well-known/jwks.json")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabase decodes only the database settings. Offline tools use it so
// they do not need server or identity provider configuration.
func LoadDatabase() (DatabaseConfig, error) {
	cfg := DatabaseConfig{}
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return DatabaseConfig{}, fmt.Errorf("decode environment: %w", err)
	}
	cfg.URL = firstNonEmpty(cfg.URL, os.Getenv("DB_URL"))
	if strings.TrimSpace(cfg.URL) == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL or DB_URL must be set")
	}
	return cfg, nil
}

// Validate reports the first configuration problem that would prevent the
// service from starting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if !c.Database.UseMock && strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("database URL must be set unless DATABASE_USE_MOCK is enabled")
	}
	if strings.TrimSpace(c.Auth.JWKSURL) == "" {
		return fmt.Errorf("either AUTH0_DOMAIN or AUTH_JWKS_URL must be set")
	}
	return nil
}

func portAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ""
	}
	return ":" + strings.TrimPrefix(port, ":")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
