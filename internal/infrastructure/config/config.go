package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	StorageDriverFile     = "file"
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
	StorageDriverOracle   = "oracle"
	StorageDriverSQLite   = "sqlite"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

const defaultSQLiteDSN = "trades.db"

type Config struct {
	ServerHost    string
	ServerPort    string
	AppEnv        string
	LogLevel      string
	StorageDriver string
	DataFile      string
	DBDSN         string
}

func Load() (*Config, error) {
	driver := strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", StorageDriverFile))
	dsn := os.Getenv("DB_DSN")

	switch driver {
	case StorageDriverFile, StorageDriverMemory:
	case StorageDriverPostgres, StorageDriverOracle:
		if dsn == "" {
			return nil, fmt.Errorf("DB_DSN environment variable is required for %s storage", driver)
		}
	case StorageDriverSQLite:
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER: %s", driver)
	}

	logLevel := strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL: %s", logLevel)
	}

	return &Config{
		ServerHost:    getEnvOrDefault("SERVER_HOST", "localhost"),
		ServerPort:    getEnvOrDefault("SERVER_PORT", "8080"),
		AppEnv:        getEnvOrDefault("APP_ENV", EnvDevelopment),
		LogLevel:      logLevel,
		StorageDriver: driver,
		DataFile:      getEnvOrDefault("DATA_FILE", "data/trades.json"),
		DBDSN:         dsn,
	}, nil
}

// IsProduction reports whether error responses should hide internals.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
