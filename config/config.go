// Package config loads process-start configuration from the environment.
// Nothing here is persisted state; restarting with different values is the
// only way to change engine behavior.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	FullNodeURL string
	APIKey      string

	TokenContract    string // TRC20 stablecoin contract, base58 or hex
	HotWalletAddress string // receiving address; never derived inside the verifier path
	HotWalletKey     string // hex private key; empty disables settlement (fail-closed)

	VerifyInterval   time.Duration
	SettleInterval   time.Duration
	MinConfirmations int64
	PassWorkers      int
}

// Load reads .env if present, then the environment. Missing optional values
// fall back to the defaults the original deployment used.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "4000"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		FullNodeURL:      getEnv("TRON_FULLNODE", "https://api.trongrid.io"),
		APIKey:           getEnv("TRONGRID_API_KEY", ""),
		TokenContract:    getEnv("USDT_CONTRACT", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"),
		HotWalletAddress: getEnv("HOT_WALLET_ADDRESS", ""),
		HotWalletKey:     getEnv("HOT_WALLET_PRIVATE_KEY", ""),
	}

	var err error
	if cfg.VerifyInterval, err = getDuration("VERIFY_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SettleInterval, err = getDuration("SETTLE_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.MinConfirmations, err = getInt64("MIN_CONFIRMATIONS", 1); err != nil {
		return nil, err
	}
	workers, err := getInt64("PASS_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	cfg.PassWorkers = int(workers)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
