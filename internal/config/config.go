package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Storage   StorageConfig
	Checkout  CheckoutConfig
	Events    EventsConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port               string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxRequestBodySize int64
}

// BackendConfig points at the external REST backend.
type BackendConfig struct {
	BaseURL        string
	Timeout        time.Duration
	BreakerTimeout time.Duration
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
}

// StorageConfig selects where the cart is persisted.
type StorageConfig struct {
	Driver   string
	Key      string
	FilePath string
	RedisURL string
	RedisTTL time.Duration
	MongoURI string
	MongoDB  string
	// DSN is the sqlite path or the postgres connection string.
	DSN string
}

type CheckoutConfig struct {
	ShippingFee decimal.Decimal
}

// EventsConfig enables kafka publishing when brokers are set.
type EventsConfig struct {
	Brokers []string
	Topic   string
}

// RateLimitConfig throttles the local API.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads configuration from the environment and applies defaults.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(lookup func(string) string) (*Config, error) {
	env := envReader{lookup: lookup}

	cfg := &Config{
		Server: ServerConfig{
			Port:               env.str("HTTP_PORT", "8080"),
			RequestTimeout:     env.duration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout:    env.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       env.duration("WRITE_TIMEOUT", 35*time.Second),
			IdleTimeout:        60 * time.Second,
			MaxRequestBodySize: 1 << 20, // 1MB
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(env.str("BACKEND_URL", "http://localhost:4000/api"), "/"),
			Timeout:        env.duration("BACKEND_TIMEOUT", 15*time.Second),
			BreakerTimeout: env.duration("BACKEND_BREAKER_TIMEOUT", 30*time.Second),
			MaxFailures:    uint32(env.integer("BACKEND_BREAKER_MAX_FAILURES", 5)),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(env.str("CART_STORAGE", DriverFile)),
			Key:      env.str("CART_STORAGE_KEY", "cartItems"),
			FilePath: env.str("CART_FILE", "cart.json"),
			RedisURL: env.str("REDIS_URL", "redis://localhost:6379/0"),
			RedisTTL: env.duration("REDIS_CART_TTL", 30*24*time.Hour),
			MongoURI: env.str("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:  env.str("MONGO_DATABASE", "storefront"),
			DSN:      env.str("CART_DSN", ""),
		},
		Checkout: CheckoutConfig{
			ShippingFee: env.decimal("SHIPPING_FEE", decimal.Zero),
		},
		Events: EventsConfig{
			Brokers: env.list("KAFKA_BROKERS"),
			Topic:   env.str("KAFKA_TOPIC", "storefront-checkout"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: env.float("RATE_LIMIT_RPS", 20),
			Burst:             env.integer("RATE_LIMIT_BURST", 40),
		},
	}

	if cfg.Storage.DSN == "" && cfg.Storage.Driver == DriverSQLite {
		cfg.Storage.DSN = "storefront.db"
	}

	if len(env.errs) > 0 {
		return nil, errors.Join(env.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Driver {
	case DriverFile, DriverRedis, DriverMongo, DriverSQLite:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			problems = append(problems, "CART_DSN is required for postgres storage")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown CART_STORAGE %q", c.Storage.Driver))
	}
	if c.Storage.Key == "" {
		problems = append(problems, "CART_STORAGE_KEY must not be empty")
	}
	if c.Backend.BaseURL == "" {
		problems = append(problems, "BACKEND_URL must not be empty")
	}
	if c.Checkout.ShippingFee.IsNegative() {
		problems = append(problems, "SHIPPING_FEE must not be negative")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		problems = append(problems, "rate limit must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

type envReader struct {
	lookup func(string) string
	errs   []error
}

func (e *envReader) str(key, defaultValue string) string {
	if value := strings.TrimSpace(e.lookup(key)); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func (e *envReader) integer(key string, defaultValue int) int {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func (e *envReader) float(key string, defaultValue float64) float64 {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return f
}

func (e *envReader) decimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func (e *envReader) list(key string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
