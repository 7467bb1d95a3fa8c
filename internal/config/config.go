package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	App struct {
		Port        string
		Debug       bool
		FrontendURL string
	}
	Redis struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	Data struct {
		NEOPath string
		CADPath string
	}
	SBDB struct {
		CADURL string
	}
	Cache struct {
		QueryTTL time.Duration
	}
	Workers struct {
		RefreshEnabled  bool
		RefreshInterval time.Duration
	}
	RateLimit struct {
		RequestsPerSecond int
		Burst             int
	}
	Export struct {
		OutputDir string
	}
}

func Load() *Config {
	cfg := &Config{}

	// App
	cfg.App.Port = getEnv("PORT", "8080")
	cfg.App.Debug = getEnvAsBool("DEBUG", false)
	cfg.App.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")

	// Redis
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnv("REDIS_PORT", "6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)

	// Datasets
	cfg.Data.NEOPath = getEnv("NEO_CSV_PATH", "./data/neos.csv")
	cfg.Data.CADPath = getEnv("CAD_JSON_PATH", "./data/cad.json")

	// SBDB close-approach API; when set, the refresh worker fetches
	// approaches from here instead of the local JSON file.
	cfg.SBDB.CADURL = getEnv("SBDB_CAD_URL", "")

	// Cache
	cfg.Cache.QueryTTL = getEnvAsDuration("QUERY_CACHE_TTL", 10*time.Minute)

	// Workers
	cfg.Workers.RefreshEnabled = getEnvAsBool("REFRESH_ENABLED", false)
	cfg.Workers.RefreshInterval = getEnvAsDuration("WORKER_REFRESH_INTERVAL", 24*time.Hour)

	// Rate Limit
	cfg.RateLimit.RequestsPerSecond = getEnvAsInt("RATE_LIMIT_RPS", 10)
	cfg.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", 20)

	// Export
	cfg.Export.OutputDir = getEnv("EXPORT_OUTPUT_DIR", "./data/exports")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}
