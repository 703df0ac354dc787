package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress    string
	DatabaseURI   string
	RedisAddr     string
	PublicBaseURL string
	AuthSecret    string

	MerchantID      string
	MerchantSaltKey string
	MerchantSaltIdx string
	ProviderBaseURL string

	ReconcilePollInterval time.Duration
	PendingCheckAge       time.Duration
	AbandonAfter          time.Duration
	WorkerPoolSize        int
	ReconcileBatch        int
	ShutdownTimeout       time.Duration
	CatalogCacheTTL       time.Duration
}

const (
	defaultRunAddress            = ":8080"
	defaultAuthSecret            = "change-me-in-production"
	defaultReconcilePollInterval = 30 * time.Second
	defaultPendingCheckAge       = 2 * time.Minute
	defaultAbandonAfter          = 24 * time.Hour
	defaultWorkerPoolSize        = 4
	defaultReconcileBatch        = 32
	defaultShutdownTimeout       = 10 * time.Second
	defaultCatalogCacheTTL       = 30 * time.Second
)

// Load parses configuration from an optional .env file, environment
// variables and flags.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:           getString(lookup, "DATABASE_URI", ""),
		RedisAddr:             getString(lookup, "REDIS_ADDR", ""),
		PublicBaseURL:         getString(lookup, "PUBLIC_BASE_URL", ""),
		AuthSecret:            getString(lookup, "AUTH_SECRET", defaultAuthSecret),
		MerchantID:            getString(lookup, "MERCHANT_ID", ""),
		MerchantSaltKey:       getString(lookup, "MERCHANT_SALT_KEY", ""),
		MerchantSaltIdx:       getString(lookup, "MERCHANT_SALT_INDEX", "1"),
		ProviderBaseURL:       getString(lookup, "PROVIDER_BASE_URL", ""),
		ReconcilePollInterval: getDuration(lookup, "RECONCILE_POLL_INTERVAL", defaultReconcilePollInterval),
		PendingCheckAge:       getDuration(lookup, "PENDING_CHECK_AGE", defaultPendingCheckAge),
		AbandonAfter:          getDuration(lookup, "ABANDON_AFTER", defaultAbandonAfter),
		WorkerPoolSize:        getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ReconcileBatch:        getInt(lookup, "RECONCILE_BATCH_SIZE", defaultReconcileBatch),
		ShutdownTimeout:       getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		CatalogCacheTTL:       getDuration(lookup, "CATALOG_CACHE_TTL", defaultCatalogCacheTTL),
	}

	fs := flag.NewFlagSet("coauthor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.ReconcilePollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for catalog cache (optional)")
	fs.StringVar(&cfg.PublicBaseURL, "base-url", cfg.PublicBaseURL, "Public base URL for redirect/callback links")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.MerchantID, "merchant-id", cfg.MerchantID, "Payment provider merchant id")
	fs.StringVar(&cfg.ProviderBaseURL, "provider-url", cfg.ProviderBaseURL, "Payment provider base URL")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconcile workers")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between reconciliation sweeps")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.ReconcileBatch, "reconcile-batch", cfg.ReconcileBatch, "Maximum purchases per reconciliation sweep")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ReconcilePollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("AUTH_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read auth secret file: %w", err)
		}
		cfg.AuthSecret = string(content)
	}

	if saltFile, ok := lookup("MERCHANT_SALT_KEY_FILE"); ok && saltFile != "" {
		content, err := os.ReadFile(saltFile)
		if err != nil {
			return nil, fmt.Errorf("read merchant salt key file: %w", err)
		}
		cfg.MerchantSaltKey = string(content)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.ReconcileBatch <= 0 {
		cfg.ReconcileBatch = defaultReconcileBatch
	}

	if cfg.ReconcilePollInterval <= 0 {
		cfg.ReconcilePollInterval = defaultReconcilePollInterval
	}

	if cfg.PendingCheckAge <= 0 {
		cfg.PendingCheckAge = defaultPendingCheckAge
	}

	if cfg.AbandonAfter <= 0 {
		cfg.AbandonAfter = defaultAbandonAfter
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.CatalogCacheTTL <= 0 {
		cfg.CatalogCacheTTL = defaultCatalogCacheTTL
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("public base URL must be provided")
	}

	if cfg.MerchantID == "" || cfg.MerchantSaltKey == "" {
		return nil, fmt.Errorf("merchant id and salt key must be provided")
	}

	if cfg.ProviderBaseURL == "" {
		return nil, fmt.Errorf("payment provider base URL must be provided")
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

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
