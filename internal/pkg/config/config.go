package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	Port         string `env:"PORT,default=8080"`
	Env          string `env:"ENV,default=development"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
	Storage      string `env:"STORAGE,default=mongo"`
	SeedDefaults bool   `env:"SEED_DEFAULTS,default=false"`

	Mongo MongoConfig
	Redis RedisConfig
	Hash  HashConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,default=multirole_auth"`
}

// RedisConfig configures the role cache. An empty Addr disables it.
type RedisConfig struct {
	Addr    string        `env:"REDIS_ADDR"`
	DB      int           `env:"REDIS_DB,default=0"`
	RoleTTL time.Duration `env:"ROLE_CACHE_TTL,default=10m"`
}

type HashConfig struct {
	Algorithm  string `env:"HASH_ALGORITHM,default=bcrypt"`
	BcryptCost int    `env:"BCRYPT_COST,default=10"`
	Workers    int    `env:"HASH_WORKERS,default=4"`
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := Parse(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// Parse reads configuration through lookuper and validates it.
func Parse(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMongo, StorageMemory, c.Storage)
	}
	switch strings.ToLower(c.Hash.Algorithm) {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("HASH_ALGORITHM must be bcrypt or argon2id, got %q", c.Hash.Algorithm)
	}
	if c.Hash.Workers < 0 {
		return fmt.Errorf("HASH_WORKERS must not be negative, got %d", c.Hash.Workers)
	}
	return nil
}
