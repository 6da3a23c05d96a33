package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress        string
	DatabaseURI       string
	CatalogAddress    string
	JWTSecret         string
	AdminKeyHash      string
	HoldTTL           time.Duration
	CheckoutGrace     time.Duration
	SweepInterval     time.Duration
	SweepOnRead       bool
	StrictTransitions bool
	ShutdownTimeout   time.Duration
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	IdempotencyTTL    time.Duration
	KafkaBrokers      []string
	KafkaTopic        string
	OTelEndpoint      string
	ServiceName       string
}

const (
	defaultEnvFile         = ".env"
	defaultRunAddress      = ":8080"
	defaultJWTSecret       = "change-me-in-production"
	defaultHoldTTL         = 15 * time.Minute
	defaultCheckoutGrace   = 10 * time.Minute
	defaultSweepInterval   = time.Minute
	defaultShutdownTimeout = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultKafkaTopic      = "order-status"
	defaultServiceName     = "atelier"
)

// Load reads the optional env file, then parses configuration from flags and environment variables.
func Load() (*Config, error) {
	if err := loadEnvFile(os.LookupEnv); err != nil {
		return nil, err
	}
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

// loadEnvFile populates unset variables from ENV_FILE. A missing file is not an error.
func loadEnvFile(lookup envLookup) error {
	path := getString(lookup, "ENV_FILE", defaultEnvFile)
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:        getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:       getString(lookup, "DATABASE_URI", ""),
		CatalogAddress:    getString(lookup, "CATALOG_ADDRESS", ""),
		JWTSecret:         getString(lookup, "JWT_SECRET", defaultJWTSecret),
		AdminKeyHash:      getString(lookup, "ADMIN_KEY_HASH", ""),
		HoldTTL:           getDuration(lookup, "HOLD_TTL", defaultHoldTTL),
		CheckoutGrace:     getDuration(lookup, "CHECKOUT_GRACE", defaultCheckoutGrace),
		SweepInterval:     getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		SweepOnRead:       getBool(lookup, "SWEEP_ON_READ", true),
		StrictTransitions: getBool(lookup, "STRICT_TRANSITIONS", false),
		ShutdownTimeout:   getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		RedisAddr:         getString(lookup, "REDIS_ADDR", ""),
		RedisPassword:     getString(lookup, "REDIS_PASSWORD", ""),
		RedisDB:           getInt(lookup, "REDIS_DB", 0),
		IdempotencyTTL:    getDuration(lookup, "IDEMPOTENCY_TTL", defaultIdempotencyTTL),
		KafkaBrokers:      getList(lookup, "KAFKA_BROKERS"),
		KafkaTopic:        getString(lookup, "KAFKA_TOPIC", defaultKafkaTopic),
		OTelEndpoint:      getString(lookup, "OTEL_EXPORTER_ENDPOINT", ""),
		ServiceName:       getString(lookup, "SERVICE_NAME", defaultServiceName),
	}

	fs := flag.NewFlagSet("atelier", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		holdTTLStr         = cfg.HoldTTL.String()
		checkoutGraceStr   = cfg.CheckoutGrace.String()
		sweepIntervalStr   = cfg.SweepInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.CatalogAddress, "c", cfg.CatalogAddress, "Catalog service base URL")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for verifying holder tokens")
	fs.StringVar(&holdTTLStr, "hold-ttl", holdTTLStr, "Default reservation hold duration")
	fs.StringVar(&checkoutGraceStr, "checkout-grace", checkoutGraceStr, "Hold extension granted by cart validation")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between expired hold sweeps")
	fs.BoolVar(&cfg.SweepOnRead, "sweep-on-read", cfg.SweepOnRead, "Sweep expired holds before availability checks")
	fs.BoolVar(&cfg.StrictTransitions, "strict-transitions", cfg.StrictTransitions, "Reject order transitions outside the lifecycle")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.HoldTTL, err = time.ParseDuration(holdTTLStr); err != nil {
		return nil, fmt.Errorf("invalid hold ttl: %w", err)
	}

	if cfg.CheckoutGrace, err = time.ParseDuration(checkoutGraceStr); err != nil {
		return nil, fmt.Errorf("invalid checkout grace: %w", err)
	}

	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = defaultHoldTTL
	}

	if cfg.CheckoutGrace <= 0 {
		cfg.CheckoutGrace = defaultCheckoutGrace
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = defaultIdempotencyTTL
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.CatalogAddress == "" {
		return nil, fmt.Errorf("catalog address must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getList(lookup envLookup, key string) []string {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
