package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const EnvProduction = "production"

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTTTL          time.Duration `env:"JWT_TTL,          default=24h"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	LogPretty       bool          `env:"LOG_PRETTY,       default=false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Mongo MongoConfig
	Redis RedisConfig
	Likes LikeConfig
	Audit AuditConfig
	Admin AdminConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=publishing"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type LikeConfig struct {
	GuardWindow time.Duration `env:"LIKE_GUARD_WINDOW, default=2s"`
}

type AuditConfig struct {
	Workers      int           `env:"AUDIT_WORKERS,       default=4"`
	Buffer       int           `env:"AUDIT_BUFFER,        default=256"`
	WriteTimeout time.Duration `env:"AUDIT_WRITE_TIMEOUT, default=5s"`
}

// AdminConfig seeds the bootstrap admin account.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME, default=admin"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, nil)
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("config: JWT_SECRET must be at least 32 characters in production")
	}
	if c.JWTTTL <= 0 {
		return errors.New("config: JWT_TTL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }
