package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Sync      SyncConfig
	Reconcile ReconcileConfig
	App       AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Driver   string // "postgres" (lib/pq) or "pgx"
	DSN      string // takes precedence over the discrete fields when set
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// Enabled reports whether enough is configured to reach the remote store.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != "" || d.Host != ""
}

type CacheConfig struct {
	Backend       string // redis, sqlite or memory
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
}

// SyncConfig bounds every remote call made by the project service.
type SyncConfig struct {
	GetTimeout    time.Duration
	ListTimeout   time.Duration
	CreateTimeout time.Duration
	UpdateTimeout time.Duration
	DeleteTimeout time.Duration
}

type ReconcileConfig struct {
	Schedule  string  // cron spec with seconds field; empty disables the job
	RatePerS  float64 // remote pushes per second
	BurstSize int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	LogFile     string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "sitesync"),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", "sqlite"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			SQLitePath:    getEnv("SQLITE_PATH", ".sitesync/cache.db"),
		},
		Sync: SyncConfig{
			GetTimeout:    getEnvAsDuration("REMOTE_GET_TIMEOUT", 5*time.Second),
			ListTimeout:   getEnvAsDuration("REMOTE_LIST_TIMEOUT", 2*time.Second),
			CreateTimeout: getEnvAsDuration("REMOTE_CREATE_TIMEOUT", 10*time.Second),
			UpdateTimeout: getEnvAsDuration("REMOTE_UPDATE_TIMEOUT", 10*time.Second),
			DeleteTimeout: getEnvAsDuration("REMOTE_DELETE_TIMEOUT", 10*time.Second),
		},
		Reconcile: ReconcileConfig{
			Schedule:  getEnv("RECONCILE_SCHEDULE", "0 */5 * * * *"),
			RatePerS:  getEnvAsFloat("RECONCILE_RATE", 5),
			BurstSize: getEnvAsInt("RECONCILE_BURST", 10),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFile:     getEnv("LOG_FILE", ""),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or pgx, got %q", c.Database.Driver)
	}

	switch c.Cache.Backend {
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis cache backend")
		}
	case "sqlite":
		if c.Cache.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite cache backend")
		}
	case "memory":
	default:
		return fmt.Errorf("CACHE_BACKEND must be redis, sqlite or memory, got %q", c.Cache.Backend)
	}

	for name, d := range map[string]time.Duration{
		"REMOTE_GET_TIMEOUT":    c.Sync.GetTimeout,
		"REMOTE_LIST_TIMEOUT":   c.Sync.ListTimeout,
		"REMOTE_CREATE_TIMEOUT": c.Sync.CreateTimeout,
		"REMOTE_UPDATE_TIMEOUT": c.Sync.UpdateTimeout,
		"REMOTE_DELETE_TIMEOUT": c.Sync.DeleteTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.Reconcile.RatePerS <= 0 {
		return fmt.Errorf("RECONCILE_RATE must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
