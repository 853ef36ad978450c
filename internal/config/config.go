// Package config loads runtime settings from an optional .env file and the
// environment, applies defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultBaseURL         = "https://api.yescale.io/v1"
	defaultModel           = "gemini-2.5-pro-thinking"
	defaultTemperature     = 0.7
	defaultRequestTimeout  = 5 * time.Minute
	defaultMaxRetries      = 2
	defaultRateInterval    = 2 * time.Second
	defaultCacheTTL        = 10 * time.Minute
	defaultUploadDir       = "static/uploads"
	defaultUploadURLPrefix = "/static/uploads"

	persistentDataDir = "/var/data"
	databaseFile      = "story_project.db"
)

// ErrMissingAPIKey is returned by [Config.RequireAPIKey] when no LLM key is set.
var ErrMissingAPIKey = errors.New("config: GOOGLE_API_KEY or OPENAI_API_KEY must be set")

// Config holds every setting the services need. It is built once at startup
// and passed down explicitly.
type Config struct {
	APIKey         string
	BaseURL        string        `validate:"required,url"`
	Model          string        `validate:"required"`
	Temperature    float32       `validate:"gte=0,lte=2"`
	RequestTimeout time.Duration `validate:"gt=0"`
	MaxRetries     int           `validate:"gte=0,lte=10"`
	RateInterval   time.Duration `validate:"gte=0"`
	CacheTTL       time.Duration `validate:"gte=0"`
	LenientRepair  bool

	InputCostPerMillion  float64 `validate:"gte=0"`
	OutputCostPerMillion float64 `validate:"gte=0"`

	DatabasePath    string `validate:"required"`
	UploadDir       string `validate:"required"`
	UploadURLPrefix string `validate:"required,startswith=/"`

	LogLevel  string
	LogFormat string `validate:"omitempty,oneof=text json"`
}

// Load reads the given .env files (or ./.env when none are given; a missing
// file is not an error), then the process environment, and validates the result.
// Variables already present in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", file, err)
		}
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Empty values fall back to
// defaults; malformed values are errors.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		APIKey:          firstNonEmpty(getenv("GOOGLE_API_KEY"), getenv("OPENAI_API_KEY")),
		BaseURL:         orDefault(getenv("LLM_BASE_URL"), defaultBaseURL),
		Model:           orDefault(getenv("LLM_MODEL"), defaultModel),
		DatabasePath:    orDefault(getenv("DATABASE_PATH"), DefaultDatabasePath()),
		UploadDir:       orDefault(getenv("UPLOAD_DIR"), defaultUploadDir),
		UploadURLPrefix: strings.TrimRight(orDefault(getenv("UPLOAD_URL_PREFIX"), defaultUploadURLPrefix), "/"),
		LogLevel:        getenv("LOG_LEVEL"),
		LogFormat:       strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT"))),
	}

	var err error
	if cfg.Temperature, err = parseFloat32(getenv, "LLM_TEMPERATURE", defaultTemperature); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = parseDuration(getenv, "LLM_TIMEOUT", defaultRequestTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = parseInt(getenv, "LLM_MAX_RETRIES", defaultMaxRetries); err != nil {
		return nil, err
	}
	if cfg.RateInterval, err = parseDuration(getenv, "LLM_RATE_INTERVAL", defaultRateInterval); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = parseDuration(getenv, "LLM_CACHE_TTL", defaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.InputCostPerMillion, err = parseFloat64(getenv, "LLM_INPUT_COST_PER_MILLION"); err != nil {
		return nil, err
	}
	if cfg.OutputCostPerMillion, err = parseFloat64(getenv, "LLM_OUTPUT_COST_PER_MILLION"); err != nil {
		return nil, err
	}
	if cfg.LenientRepair, err = parseBool(getenv, "LENIENT_JSON_REPAIR", false); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

// RequireAPIKey reports ErrMissingAPIKey when generation is impossible.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// DefaultDatabasePath prefers the persistent disk mount when it exists.
func DefaultDatabasePath() string {
	if info, err := os.Stat(persistentDataDir); err == nil && info.IsDir() {
		return filepath.Join(persistentDataDir, databaseFile)
	}
	return filepath.Join("instance", databaseFile)
}

func parseFloat32(getenv func(string) string, key string, def float32) (float32, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, raw, err)
	}
	return float32(v), nil
}

func parseFloat64(getenv func(string) string, key string) (float64, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, raw, err)
	}
	return v, nil
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, raw, err)
	}
	return v, nil
}

func parseInt(getenv func(string) string, key string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, raw, err)
	}
	return v, nil
}

func parseBool(getenv func(string) string, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s=%q: %w", key, raw, err)
	}
	return v, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
