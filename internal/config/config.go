// Package config loads client settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/language"
)

// Prefix is prepended to every environment variable name.
const Prefix = "ECOSCAN"

// Config holds client configuration. Fields map to ECOSCAN_<FIELD_NAME>;
// no field falls back to an unprefixed variable such as LANG.
type Config struct {
	BackendURL    string        `split_words:"true" default:"http://localhost:5291"`
	StateDir      string        `split_words:"true"`
	Lang          string        `default:"pt-BR"`
	LogLevel      string        `split_words:"true" default:"warn"`
	AdminPassword string        `split_words:"true" default:"Admin"`
	HTTPTimeout   time.Duration `split_words:"true" default:"30s"`
}

// Load reads .env from the working directory, if present, then the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit .env path. A missing file is not an
// error; variables already set in the environment win over the file.
func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if cfg.StateDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving state dir (set %s_STATE_DIR): %w", Prefix, err)
		}
		cfg.StateDir = filepath.Join(dir, "ecoscan")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and normalizes BackendURL.
func (c *Config) Validate() error {
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	if c.BackendURL == "" {
		return fmt.Errorf("%s_BACKEND_URL must not be empty", Prefix)
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s_BACKEND_URL %q: expected http(s)://host[:port]", Prefix, c.BackendURL)
	}
	if _, err := language.Parse(c.Lang); err != nil {
		return fmt.Errorf("%s_LANG %q: %w", Prefix, c.Lang, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%s_HTTP_TIMEOUT must be positive, got %s", Prefix, c.HTTPTimeout)
	}
	if c.StateDir == "" {
		return fmt.Errorf("%s_STATE_DIR must not be empty", Prefix)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%s_LOG_LEVEL %q: expected debug, info, warn or error", Prefix, s)
}
