package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Addr               string
	DBDriver           string
	DBPath             string
	DatabaseURL        string
	DBMaxConns         int
	LogLevel           string
	Timezone           string
	HeartSweepInterval time.Duration
	StreakSweepAt      string
	SweepWorkerCount   int
	SweepQueueSize     int
	SubmitMaxAttempts  int
	RequestTimeout     time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBDriver:           strings.ToLower(envOr("DB_DRIVER", DriverSQLite)),
		DBPath:             envOr("DB_PATH", "file:lingoprogress.db"),
		DatabaseURL:        envOr("DATABASE_URL", ""),
		DBMaxConns:         envIntOr("DB_MAX_CONNS", 10),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		Timezone:           envOr("APP_TIMEZONE", "UTC"),
		HeartSweepInterval: envDurationOr("HEART_SWEEP_INTERVAL", 30*time.Minute),
		StreakSweepAt:      envOr("STREAK_SWEEP_AT", "00:00"),
		SweepWorkerCount:   envIntOr("SWEEP_WORKER_COUNT", 1),
		SweepQueueSize:     envIntOr("SWEEP_QUEUE_SIZE", 8),
		SubmitMaxAttempts:  envIntOr("SUBMIT_MAX_ATTEMPTS", 5),
		RequestTimeout:     envDurationOr("REQUEST_TIMEOUT", 10*time.Second),
	}
}

var clockTime = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validate reports the first setting that would keep the server from starting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL cannot be empty when DB_DRIVER=postgres")
		}
		if c.DBMaxConns < 1 {
			return fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.DBMaxConns)
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q is not a known location: %w", c.Timezone, err)
	}
	if c.HeartSweepInterval <= 0 {
		return fmt.Errorf("HEART_SWEEP_INTERVAL must be positive, got %v", c.HeartSweepInterval)
	}
	if !clockTime.MatchString(c.StreakSweepAt) {
		return fmt.Errorf("STREAK_SWEEP_AT must be HH:MM, got %q", c.StreakSweepAt)
	}
	if c.SweepWorkerCount < 1 {
		return fmt.Errorf("SWEEP_WORKER_COUNT must be at least 1, got %d", c.SweepWorkerCount)
	}
	if c.SweepQueueSize < 1 {
		return fmt.Errorf("SWEEP_QUEUE_SIZE must be at least 1, got %d", c.SweepQueueSize)
	}
	if c.SubmitMaxAttempts < 1 {
		return fmt.Errorf("SUBMIT_MAX_ATTEMPTS must be at least 1, got %d", c.SubmitMaxAttempts)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT cannot be negative, got %v", c.RequestTimeout)
	}
	return nil
}

// Location returns the configured timezone. Call after Validate.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}
