// Package config loads runtime configuration from CALC_ environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pwdtools/calc-engine/generic"
)

// Config holds runtime configuration for the server and CLI.
type Config struct {
	Addr         string        `envconfig:"ADDR" default:":8080"`
	DBPath       string        `envconfig:"DB_PATH" default:"./calc.db"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// GotenbergURL enables PDF output; empty disables it.
	GotenbergURL     string        `envconfig:"GOTENBERG_URL"`
	GotenbergTimeout time.Duration `envconfig:"GOTENBERG_TIMEOUT" default:"20s"`

	BatchWorkers int    `envconfig:"BATCH_WORKERS" default:"4"`
	BatchMaxRows int    `envconfig:"BATCH_MAX_ROWS" default:"5000"`
	UploadMaxMB  int64  `envconfig:"UPLOAD_MAX_MB" default:"10"`
	WordsPolicy  string `envconfig:"WORDS_POLICY" default:"numeric_fallback"`

	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit   int      `envconfig:"RATE_LIMIT" default:"120"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load reads envFiles (missing files are ignored, malformed ones are an
// error), then the environment.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := envconfig.Process("calc", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	if _, err := c.Words(); err != nil {
		return err
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("config: batch workers must be at least 1, got %d", c.BatchWorkers)
	}
	if c.BatchMaxRows < 1 {
		return fmt.Errorf("config: batch max rows must be at least 1, got %d", c.BatchMaxRows)
	}
	if c.UploadMaxMB < 1 {
		return fmt.Errorf("config: upload limit must be at least 1 MB, got %d", c.UploadMaxMB)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rate limit must not be negative, got %d", c.RateLimit)
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: db path is required")
	}
	return nil
}

// Words returns the configured legal-words policy.
func (c *Config) Words() (generic.WordsPolicy, error) {
	switch p := generic.WordsPolicy(c.WordsPolicy); p {
	case generic.WordsStrict, generic.WordsNumericFallback:
		return p, nil
	default:
		return "", fmt.Errorf("config: unknown words policy %q", c.WordsPolicy)
	}
}

// UploadLimit is the largest accepted upload in bytes.
func (c *Config) UploadLimit() int64 { return c.UploadMaxMB << 20 }
