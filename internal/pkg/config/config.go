package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// envFiles are loaded, when present, before the environment is read. Real
// environment variables always win over file values.
var envFiles = []string{"variables.env", ".env"}

type Config struct {
	Port     string `env:"PORT,      default=8000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	CORSOrigins []string `env:"CORS_ORIGINS, default=http://localhost:5173"`

	Auth       AuthConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Payment    PaymentConfig
	Enrollment EnrollmentConfig
}

type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET, required"`
	JWTAlgorithm   string        `env:"JWT_ALGORITHM,    default=HS256"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL, default=30m"`
	BcryptCost     int           `env:"BCRYPT_COST,      default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=course_marketplace"`
}

type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB,        default=0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

type PaymentConfig struct {
	// StripeAPIKey selects the Stripe gateway; empty runs the in-memory one.
	StripeAPIKey string `env:"STRIPE_API_KEY"`
	Currency     string `env:"PAYMENT_CURRENCY, default=usd"`
}

type EnrollmentConfig struct {
	Workers int `env:"ENROLLMENT_WORKERS, default=4"`
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads the optional env files and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", f, err)
		}
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case strings.TrimSpace(c.Auth.JWTSecret) == "":
		return errors.New("JWT_SECRET must not be blank")
	case c.Auth.AccessTokenTTL <= 0:
		return errors.New("ACCESS_TOKEN_TTL must be positive")
	case c.Enrollment.Workers < 0:
		return errors.New("ENROLLMENT_WORKERS must not be negative")
	}
	return nil
}
