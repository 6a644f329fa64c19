// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	LogFile     string
	HTTPAddr    string

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	KafkaBrokers string
	KafkaTopic   string

	JWTSecret    string
	OTLPEndpoint string

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string

	PlacementTimeout  time.Duration
	LowStockThreshold int
	DefaultCurrency   string
	ShutdownTimeout   time.Duration
}

// Load applies the given .env files (missing files are skipped) and then
// reads the process environment. Variables already set win over the files.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}
	cfg := Config{
		ServiceName:       r.str("SERVICE_NAME", "minishop-storefront"),
		Env:               r.str("ENV", "dev"),
		LogLevel:          r.str("LOG_LEVEL", "info"),
		LogFile:           r.str("LOG_FILE", ""),
		HTTPAddr:          r.str("HTTP_ADDR", ":8080"),
		DBDriver:          strings.ToLower(r.str("DB_DRIVER", "sqlite")),
		DBDSN:             r.str("DB_DSN", "storefront.db"),
		RedisAddr:         r.str("REDIS_ADDR", ""),
		RedisPassword:     r.str("REDIS_PASSWORD", ""),
		CacheTTL:          r.duration("CACHE_TTL", 5*time.Minute),
		KafkaBrokers:      r.str("KAFKA_BROKERS", ""),
		KafkaTopic:        r.str("KAFKA_TOPIC", "storefront.events"),
		JWTSecret:         r.str("JWT_SECRET", ""),
		OTLPEndpoint:      r.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		RateLimitRPS:      r.float("RATE_LIMIT_RPS", 20),
		RateLimitBurst:    r.int("RATE_LIMIT_BURST", 40),
		CORSOrigins:       r.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
		PlacementTimeout:  r.duration("PLACEMENT_TIMEOUT", 5*time.Second),
		LowStockThreshold: r.int("LOW_STOCK_THRESHOLD", 5),
		DefaultCurrency:   strings.ToUpper(r.str("DEFAULT_CURRENCY", "USD")),
		ShutdownTimeout:   r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("config: DB_DRIVER %q is not one of memory, sqlite, mysql", c.DBDriver)
	}
	if c.PlacementTimeout <= 0 {
		return errors.New("config: PLACEMENT_TIMEOUT must be positive")
	}
	if c.LowStockThreshold < 0 {
		return errors.New("config: LOW_STOCK_THRESHOLD must not be negative")
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("config: DEFAULT_CURRENCY %q is not an ISO 4217 code", c.DefaultCurrency)
	}
	return nil
}

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return f
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
