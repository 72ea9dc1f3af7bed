package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	Store           string        `env:"STORE,            default=mongo"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:5173,http://localhost:8080"`

	JWT   JWTConfig
	Mongo MongoConfig
	Redis RedisConfig
	Audit AuditConfig
	Seed  SeedConfig
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET"`
	Issuer     string        `env:"JWT_ISSUER,         default=auth-service"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL,   default=15m"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL,  default=168h"`
	BcryptCost int           `env:"BCRYPT_COST,        default=10"`
	// StrictTypes rejects refresh tokens on validate and access tokens on refresh.
	StrictTypes bool `env:"STRICT_TOKEN_TYPES, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_service"`
}

type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLED,          default=true"`
	Addr     string        `env:"REDIS_ADDR,             default=localhost:6379"`
	DB       int           `env:"REDIS_DB,               default=0"`
	ClaimTTL time.Duration `env:"REGISTRATION_CLAIM_TTL, default=30s"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
	Buffer  int `env:"AUDIT_BUFFER,  default=256"`
}

// SeedConfig describes an admin account created at startup when both email
// and password are set.
type SeedConfig struct {
	AdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
	AdminName     string `env:"SEED_ADMIN_NAME, default=Admin User"`
}

// Enabled reports whether an admin account should be seeded.
func (s SeedConfig) Enabled() bool {
	return s.AdminEmail != "" && s.AdminPassword != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
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

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_TTL (%s) must be positive and shorter than REFRESH_TOKEN_TTL (%s)", c.JWT.AccessTTL, c.JWT.RefreshTTL))
	}
	// Non-positive falls back to bcrypt.DefaultCost in the hasher.
	if c.JWT.BcryptCost > 0 && (c.JWT.BcryptCost < bcrypt.MinCost || c.JWT.BcryptCost > bcrypt.MaxCost) {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.JWT.BcryptCost))
	}
	if c.Store != StoreMongo && c.Store != StoreMemory {
		errs = append(errs, fmt.Errorf("STORE must be %q or %q, got %q", StoreMongo, StoreMemory, c.Store))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
