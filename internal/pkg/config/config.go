package config

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,default=8080"`
	Env      string `env:"ENV,default=development"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	Session SessionConfig
	Backend BackendConfig
	Redis   RedisConfig
	Mongo   MongoConfig
	Audit   AuditConfig
}

// SessionConfig controls the portal's own session cookie.
type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET"`
	TTL          time.Duration `env:"SESSION_TTL,default=8h"`
	CookieName   string        `env:"SESSION_COOKIE,default=portal_session"`
	CookieSecure bool          `env:"COOKIE_SECURE,default=false"`
}

// BackendConfig points at the REST backend.
type BackendConfig struct {
	BaseURL       string        `env:"BACKEND_URL,default=http://localhost:8000"`
	Timeout       time.Duration `env:"BACKEND_TIMEOUT,default=15s"`
	SessionCookie string        `env:"BACKEND_SESSION_COOKIE,default=laravel_session"`
	XSRFCookie    string        `env:"BACKEND_XSRF_COOKIE,default=XSRF-TOKEN"`
	HealthPath    string        `env:"BACKEND_HEALTH_PATH,default=/up"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,default=portal"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS,default=4"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadFrom reads configuration from l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET must be set")
	}
	if c.IsProduction() && len(c.Session.Secret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes in production")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}
