package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	SeedFile       string
	SeedRandomSeed uint64
	ProgressEvery  int

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "data/invoices.db"),

		SeedFile:       getEnv("SEED_FILE", "data/Analytics_Test_Data.json"),
		SeedRandomSeed: getEnvUint64("SEED_RANDOM_SEED", 0),
		ProgressEvery:  getEnvInt("SEED_PROGRESS_EVERY", 20),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if err := cfg.Require("DATABASE_URL", cfg.DatabaseURL); err != nil {
			return Config{}, err
		}
	case DriverSQLite:
		if err := cfg.Require("SQLITE_PATH", cfg.SQLitePath); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, DriverPostgres, DriverSQLite)
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvUint64(key string, fallback uint64) uint64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
