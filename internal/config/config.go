// Package config loads the runtime configuration from the environment.
//
// Variables use the HEARTH_ prefix (HEARTH_PORT, HEARTH_STORE, ...). An
// optional .env file is read first; variables already set win.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "HEARTH"

// Store kinds.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

// Backend kinds.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendREST   = "rest"
)

// Config holds all application configuration.
type Config struct {
	Port          int    `envconfig:"PORT" default:"8080"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"*"`

	// Transcript archive.
	Store         string        `envconfig:"STORE" default:"memory"`
	RedisURL      string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	TranscriptDir string        `envconfig:"TRANSCRIPT_DIR" default:".hearth/transcripts"`
	TranscriptTTL time.Duration `envconfig:"TRANSCRIPT_TTL" default:"720h"`
	MaskPII       bool          `envconfig:"MASK_PII" default:"true"`
	// EncryptionKey is a base64 AES-256 key; empty disables encryption at rest.
	EncryptionKey string `envconfig:"ENCRYPTION_KEY"`
	// DistributedLock guards archive writes across instances (redis store only).
	DistributedLock bool `envconfig:"DISTRIBUTED_LOCK" default:"false"`

	// Search and ticket backend.
	Backend       string `envconfig:"BACKEND" default:"memory"`
	BackendURL    string `envconfig:"BACKEND_URL"`
	BackendAPIKey string `envconfig:"BACKEND_API_KEY"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"./data/hearth.db"`
	ListingsPath  string `envconfig:"LISTINGS_PATH"`

	// Dialog.
	CatalogPath       string        `envconfig:"CATALOG_PATH"`
	ResultsRoute      string        `envconfig:"RESULTS_ROUTE" default:"/properties"`
	PresentationDelay time.Duration `envconfig:"PRESENTATION_DELAY" default:"600ms"`
	ReplyDelay        time.Duration `envconfig:"REPLY_DELAY" default:"0s"`
	SearchTimeout     time.Duration `envconfig:"SEARCH_TIMEOUT" default:"10s"`
	SubmitTimeout     time.Duration `envconfig:"SUBMIT_TIMEOUT" default:"10s"`
	ForwardAmenities  bool          `envconfig:"FORWARD_AMENITIES" default:"false"`
	IdleTTL           time.Duration `envconfig:"IDLE_TTL" default:"30m"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv loads the given files, or ./.env if none is given.
// A missing default file is not an error.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate rejects inconsistent combinations.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}

	switch c.Store {
	case StoreNone, StoreMemory:
	case StoreFile:
		if c.TranscriptDir == "" {
			errs = append(errs, errors.New("file store requires HEARTH_TRANSCRIPT_DIR"))
		}
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis store requires HEARTH_REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q (want none, memory, file or redis)", c.Store))
	}
	if c.DistributedLock && c.Store != StoreRedis {
		errs = append(errs, errors.New("distributed lock requires the redis store"))
	}
	if c.EncryptionKey != "" {
		if _, err := c.Key(); err != nil {
			errs = append(errs, err)
		}
	}

	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite backend requires HEARTH_SQLITE_PATH"))
		}
	case BackendREST:
		if c.BackendURL == "" {
			errs = append(errs, errors.New("rest backend requires HEARTH_BACKEND_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want memory, sqlite or rest)", c.Backend))
	}

	for name, d := range map[string]time.Duration{
		"presentation delay": c.PresentationDelay,
		"reply delay":        c.ReplyDelay,
		"search timeout":     c.SearchTimeout,
		"submit timeout":     c.SubmitTimeout,
		"idle ttl":           c.IdleTTL,
		"transcript ttl":     c.TranscriptTTL,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Key decodes the encryption key.
func (c *Config) Key() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Level returns the parsed log level; Validate guarantees it parses.
func (c *Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
