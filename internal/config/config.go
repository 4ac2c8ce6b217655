package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Env         string
	Addr        string

	AuthorizeURL      string
	AuthorizeTimeout  time.Duration
	AuthorizeAttempts int
	AuthorizeApproval string

	NotifyURL     string
	NotifyTimeout time.Duration

	SeedDemoAccounts bool
}

// Load reads an optional .env file, then resolves every setting from the
// environment with sane defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName: getenvDefault("SERVICE_NAME", "simplepay"),
		Env:         getenvDefault("ENV", "dev"),
		Addr:        getenvDefault("ADDR", ":8080"),

		AuthorizeURL:      getenvDefault("AUTHORIZE_URL", "https://util.devi.tools/api/v2"),
		AuthorizeTimeout:  getenvDuration("AUTHORIZE_TIMEOUT", 2*time.Second),
		AuthorizeAttempts: getenvInt("AUTHORIZE_ATTEMPTS", 3),
		AuthorizeApproval: getenvDefault("AUTHORIZE_APPROVAL", "approved"),

		NotifyURL:     getenvDefault("NOTIFY_URL", "https://util.devi.tools/api/v1"),
		NotifyTimeout: getenvDuration("NOTIFY_TIMEOUT", 5*time.Second),

		SeedDemoAccounts: getenvBool("SEED_DEMO_ACCOUNTS", true),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
