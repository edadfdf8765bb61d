package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type API struct {
	Addr        string
	CORSOrigins []string
	AuditLog    string // one JSON line per command, empty disables
}

type Logging struct {
	File  string
	Level string
}

type Storage struct {
	SessionDB   string // pebble directory, empty selects the in-memory store
	CatalogFile string // optional YAML asset catalog
}

type Notify struct {
	TTL      time.Duration
	Capacity int
}

// Feed controls the mock tick generator used when no external price source is attached.
type Feed struct {
	Enabled       bool
	Profile       string // "calm" or "volatile"; volatile replaces Interval and VolatilityBps
	Interval      time.Duration
	Seed          int64
	VolatilityBps int64
}

type Config struct {
	API     API
	Logging Logging
	Storage Storage
	Notify  Notify
	Feed    Feed
	IDMode  string // "uuid" or "counter"
}

func Default() Config {
	return Config{
		API: API{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			AuditLog:    "data/commands.log",
		},
		Logging: Logging{
			File:  "data/lintex.log",
			Level: "info",
		},
		Storage: Storage{
			SessionDB: "data/session.db",
		},
		Notify: Notify{
			TTL:      5 * time.Second,
			Capacity: 5,
		},
		Feed: Feed{
			Enabled:       false,
			Profile:       "calm",
			Interval:      time.Second,
			Seed:          1,
			VolatilityBps: 25,
		},
		IDMode: "uuid",
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	cfg.API.AuditLog = getEnv("AUDIT_LOG", cfg.API.AuditLog)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.API.CORSOrigins = splitList(origins)
	}

	cfg.Logging.File = getEnv("LOG_FILE", cfg.Logging.File)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)

	cfg.Storage.SessionDB = getEnv("SESSION_DB", cfg.Storage.SessionDB)
	cfg.Storage.CatalogFile = getEnv("CATALOG_FILE", cfg.Storage.CatalogFile)

	if ttl := os.Getenv("NOTIFY_TTL_MS"); ttl != "" {
		if ms, err := strconv.Atoi(ttl); err == nil && ms > 0 {
			cfg.Notify.TTL = time.Duration(ms) * time.Millisecond
		}
	}
	if capacity := os.Getenv("NOTIFY_CAP"); capacity != "" {
		if n, err := strconv.Atoi(capacity); err == nil && n > 0 {
			cfg.Notify.Capacity = n
		}
	}

	if enabled := os.Getenv("ENABLE_FEED"); enabled != "" {
		cfg.Feed.Enabled = enabled == "true"
	}
	if profile := os.Getenv("FEED_PROFILE"); profile == "calm" || profile == "volatile" {
		cfg.Feed.Profile = profile
	}
	if interval := os.Getenv("FEED_INTERVAL_MS"); interval != "" {
		if ms, err := strconv.Atoi(interval); err == nil && ms > 0 {
			cfg.Feed.Interval = time.Duration(ms) * time.Millisecond
		}
	}
	if seed := os.Getenv("FEED_SEED"); seed != "" {
		if n, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Feed.Seed = n
		}
	}
	if vol := os.Getenv("FEED_VOLATILITY_BPS"); vol != "" {
		if n, err := strconv.ParseInt(vol, 10, 64); err == nil && n >= 0 {
			cfg.Feed.VolatilityBps = n
		}
	}

	if mode := os.Getenv("ID_MODE"); mode == "uuid" || mode == "counter" {
		cfg.IDMode = mode
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
